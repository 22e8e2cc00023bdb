package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/folio-site/folio-backend/internal/aquarium"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/pkg/feedbackapi"
	"github.com/spf13/cobra"
)

// errReported marks failures already shown to the user.
var errReported = errors.New("reported")

type options struct {
	apiURL  string
	tuning  string
	logFile string

	newClient func(baseURL string) (feedbackapi.ClientInterface, error)
}

func defaultOptions() *options {
	apiURL := os.Getenv("FOLIO_API_URL")
	if apiURL == "" {
		apiURL = feedbackapi.DefaultBaseURL
	}
	return &options{
		apiURL:  apiURL,
		logFile: filepath.Join(os.TempDir(), "aquarium.log"),
		newClient: func(baseURL string) (feedbackapi.ClientInterface, error) {
			return feedbackapi.NewClient(baseURL)
		},
	}
}

func (o *options) client() (feedbackapi.ClientInterface, error) {
	return o.newClient(o.apiURL)
}

func (o *options) physics() (aquarium.Config, error) {
	if o.tuning == "" {
		return aquarium.DefaultConfig(), nil
	}
	return aquarium.LoadConfig(o.tuning)
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "aquarium",
		Short: "Feedback aquarium for the portfolio gateway",
		Long: `aquarium shows every feedback message as a bubble you can drag around
the terminal. Dragging a bubble pushes its neighbours away.

Run without a subcommand to open the aquarium.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Keep log lines off the terminal UI.
			logger.InitLoggerWithOutput(opts.logFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", opts.apiURL, "feedback gateway base URL (env FOLIO_API_URL)")
	root.PersistentFlags().StringVar(&opts.tuning, "tuning", opts.tuning, "YAML file overriding the bubble physics")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", opts.logFile, "where to write logs")

	root.AddCommand(
		newWatchCmd(opts),
		newSubmitCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newTuningCmd(opts),
	)
	return root
}
