// Package tui provides the Bubble Tea exam presenter.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/timing"
)

const tickInterval = time.Second

type tickMsg struct {
	gen int
}

// ExitMsg reports that a presenter closed. Quit is set when the whole
// program should end rather than return to the form.
type ExitMsg struct {
	Components []model.Component
	OpenedAt   time.Time
	ClosedAt   time.Time
	Final      []timing.Derived
	Quit       bool
}

type keyMap struct {
	Exit key.Binding
	Quit key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Exit: key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc/q", "exit")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// Model implements the Bubble Tea presenter: it samples the clock once a
// second, derives every component and renders the result.
type Model struct {
	components []model.Component
	timings    []timing.Timing
	cfg        model.PresentConfig
	clock      timing.Clock
	logger     *zap.Logger
	notice     string

	// gen tags this presenter's ticks so a late tick from an earlier
	// presenter is never rescheduled.
	gen      int
	openedAt time.Time
	now      time.Time
	derived  []timing.Derived
	exited   bool

	width  int
	height int

	bar  progress.Model
	help help.Model
	keys keyMap
}

// NewModel builds a presenter for validated components and samples the
// clock once so the first frame has content.
func NewModel(components []model.Component, cfg model.PresentConfig, clock timing.Clock, logger *zap.Logger, notice string, gen int) (*Model, error) {
	if len(components) == 0 || len(components) > model.MaxComponents {
		return nil, fmt.Errorf("expected 1 to %d components, got %d", model.MaxComponents, len(components))
	}
	timings := make([]timing.Timing, len(components))
	for i, c := range components {
		tm, err := c.Timing()
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i+1, err)
		}
		timings[i] = tm
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Layout == "" {
		cfg.Layout = model.LayoutFull
	}
	m := &Model{
		components: append([]model.Component(nil), components...),
		timings:    timings,
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
		notice:     notice,
		gen:        gen,
		bar:        progress.New(progress.WithSolidFill(string(accentColor)), progress.WithoutPercentage()),
		help:       help.New(),
		keys:       defaultKeys(),
	}
	m.sample()
	m.openedAt = m.now
	m.logger.Info("presentation opened",
		zap.Int("components", len(components)),
		zap.String("layout", string(cfg.Layout)),
		zap.Bool("fullscreen", cfg.Fullscreen))
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.scheduleTick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.gen != m.gen || m.exited {
			return m, nil
		}
		m.sample()
		return m, m.scheduleTick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.exit(true)
		case key.Matches(msg, m.keys.Exit):
			return m, m.exit(false)
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.cfg.Layout == model.LayoutCompact {
		return m.renderCompact()
	}
	return m.renderFull()
}

// Derived returns the state computed on the most recent tick.
func (m *Model) Derived() []timing.Derived {
	return append([]timing.Derived(nil), m.derived...)
}

// Exited reports whether an exit key was handled.
func (m *Model) Exited() bool {
	return m.exited
}

func (m *Model) scheduleTick() tea.Cmd {
	gen := m.gen
	return tea.Every(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// sample reads the clock, never letting now move backwards, and derives
// every component.
func (m *Model) sample() {
	now := m.clock.Now()
	if now.Before(m.now) {
		now = m.now
	}
	m.now = now
	derived := make([]timing.Derived, len(m.timings))
	for i, tm := range m.timings {
		derived[i] = timing.Derive(tm, now)
		if m.derived != nil && m.derived[i].Status != derived[i].Status {
			m.logger.Info("status changed",
				zap.String("code", m.components[i].Code),
				zap.Stringer("from", m.derived[i].Status),
				zap.Stringer("to", derived[i].Status))
		}
	}
	m.derived = derived
}

func (m *Model) exit(quit bool) tea.Cmd {
	if m.exited {
		return nil
	}
	m.exited = true
	m.sample()
	msg := ExitMsg{
		Components: append([]model.Component(nil), m.components...),
		OpenedAt:   m.openedAt,
		ClosedAt:   m.now,
		Final:      m.Derived(),
		Quit:       quit,
	}
	m.logger.Info("presentation closed",
		zap.Duration("open_for", msg.ClosedAt.Sub(msg.OpenedAt)),
		zap.Bool("quit", quit))
	return func() tea.Msg {
		return msg
	}
}
