package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/folio-site/folio-backend/internal/aquarium"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/pkg/feedbackapi"
	"github.com/folio-site/folio-backend/types"
	"github.com/spf13/cobra"
)

// One terminal cell covers this many container pixels.
const (
	cellWidth  = 10
	cellHeight = 20
)

// Rows used by the title and status lines.
const chromeRows = 2

const loadFailedMessage = "Failed to load messages. Press r to retry."

// streamer is implemented by clients that can open the live feed.
type streamer interface {
	Stream(ctx context.Context) (*feedbackapi.Stream, error)
}

type (
	loadedMsg  struct{ items []types.Feedback }
	loadErrMsg struct{ err error }
	frameMsg   time.Time
	streamMsg  struct {
		stream *feedbackapi.Stream
	}
	feedMsg struct {
		event feedbackapi.StreamEvent
	}
	feedErrMsg struct{ err error }
)

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the aquarium (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}
}

func runWatch(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.physics()
	if err != nil {
		return err
	}
	client, err := opts.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	aq := aquarium.New(cfg, 0, 0)
	if err := aq.Attach(ctx); err != nil {
		return err
	}
	defer aq.Detach()

	m := newModel(ctx, client, aq)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if fm, ok := final.(*model); ok && fm.stream != nil {
		_ = fm.stream.Close()
	}
	return err
}

type model struct {
	ctx    context.Context
	client feedbackapi.ClientInterface
	aq     *aquarium.Aquarium
	frame  time.Duration
	stream *feedbackapi.Stream

	cols, rows int
	status     string
	live       bool
}

func newModel(ctx context.Context, client feedbackapi.ClientInterface, aq *aquarium.Aquarium) *model {
	return &model{
		ctx:    ctx,
		client: client,
		aq:     aq,
		frame:  aq.Config().Tick,
		status: "Loading…",
	}
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.load(), m.nextFrame()}
	if s, ok := m.client.(streamer); ok {
		cmds = append(cmds, m.openStream(s))
	}
	return tea.Batch(cmds...)
}

func (m *model) load() tea.Cmd {
	return func() tea.Msg {
		items, err := m.client.List(m.ctx)
		if err != nil {
			return loadErrMsg{err}
		}
		return loadedMsg{items}
	}
}

func (m *model) nextFrame() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *model) openStream(s streamer) tea.Cmd {
	return func() tea.Msg {
		stream, err := s.Stream(m.ctx)
		if err != nil {
			return feedErrMsg{err}
		}
		return streamMsg{stream}
	}
}

func (m *model) readStream() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		ev, err := stream.Next(m.ctx)
		if err != nil {
			return feedErrMsg{err}
		}
		return feedMsg{ev}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aq.Detach()
			return m, tea.Quit
		case "r":
			m.status = "Reloading…"
			return m, m.load()
		}

	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.aq.Resize(float64(m.cols*cellWidth), float64(m.tankRows()*cellHeight))

	case tea.MouseMsg:
		m.handleMouse(msg)

	case frameMsg:
		return m, m.nextFrame()

	case loadedMsg:
		m.aq.Load(msg.items)
		m.status = fmt.Sprintf("%d messages", len(msg.items))

	case loadErrMsg:
		logger.GetLogger().Errorw("Failed to load feedback", "error", msg.err)
		m.status = loadFailedMessage

	case streamMsg:
		m.stream = msg.stream
		m.live = true
		return m, m.readStream()

	case feedMsg:
		m.applyEvent(msg.event)
		if m.stream == nil {
			return m, nil
		}
		return m, m.readStream()

	case feedErrMsg:
		if m.ctx.Err() == nil {
			logger.GetLogger().Warnw("Live feed unavailable", "error", msg.err)
		}
		m.live = false
	}

	return m, nil
}

func (m *model) applyEvent(ev feedbackapi.StreamEvent) {
	switch ev.Type {
	case feedbackapi.EventCreated:
		fb, err := ev.Feedback()
		if err != nil {
			logger.GetLogger().Warnw("Bad live feed message", "error", err)
			return
		}
		m.aq.Add(fb)
		m.status = fmt.Sprintf("New message from %s", fb.Name)
	case feedbackapi.EventDeleted:
		id, err := ev.DeletedID()
		if err != nil {
			logger.GetLogger().Warnw("Bad live feed message", "error", err)
			return
		}
		m.aq.Remove(id)
	}
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	p := m.toContainer(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.aq.PointerDown(p)
		}
	case tea.MouseActionMotion:
		m.aq.PointerMove(p)
	case tea.MouseActionRelease:
		m.aq.PointerUp()
	}
}

// toContainer maps a terminal cell to the pixel at its centre.
func (m *model) toContainer(col, row int) aquarium.Vec {
	return aquarium.Vec{
		X: (float64(col) + 0.5) * cellWidth,
		Y: (float64(row-1) + 0.5) * cellHeight,
	}
}

func (m *model) tankRows() int {
	if m.rows <= chromeRows {
		return 0
	}
	return m.rows - chromeRows
}

func (m *model) View() string {
	if m.cols == 0 {
		return m.status
	}

	title := titleStyle.Render("feedback aquarium")
	if m.live {
		title += liveStyle.Render(" ● live")
	}

	return title + "\n" +
		renderTank(m.aq.Snapshot(), m.aq.Config().Radius, m.cols, m.tankRows()) +
		statusStyle.Render(m.status+"  ·  drag bubbles · r reload · q quit")
}
