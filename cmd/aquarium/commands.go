package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const submitFailedMessage = "Failed to send message. Please try again."

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func newSubmitCmd(opts *options) *cobra.Command {
	var req types.FeedbackCreate

	cmd := &cobra.Command{
		Use:     "submit",
		Short:   "Send a feedback message",
		Example: `  aquarium submit --name Ada --email ada@example.com --message "Lovely site"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}

			created, err := client.Create(cmd.Context(), req)
			if err != nil {
				logger.GetLogger().Errorw("Feedback submission failed", "error", err)
				fmt.Fprintln(cmd.ErrOrStderr(), submitFailedMessage)
				return errReported
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Thanks, %s! Your message was sent.\n", created.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "your name")
	cmd.Flags().StringVar(&req.Email, "email", "", "your email address")
	cmd.Flags().StringVar(&req.Message, "message", "", "the message")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every feedback message, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}

			items, err := client.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list feedback: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No feedback yet.")
				return nil
			}
			for _, fb := range items {
				fmt.Fprintf(out, "%s %s\n", headerStyle.Render(fb.Name+" <"+fb.Email+">"),
					dimStyle.Render(fb.CreatedAt.Local().Format(time.DateTime)+"  "+fb.ID))
				fmt.Fprintf(out, "  %s\n", fb.Message)
			}
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove one feedback message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete feedback: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newTuningCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "tuning",
		Short: "Print the physics tuning as YAML",
		Long: `Prints the physics tuning in effect (defaults, or the --tuning file) as YAML.
Edit the output and pass it back with --tuning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.physics()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode tuning: %w", err)
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write tuning file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
