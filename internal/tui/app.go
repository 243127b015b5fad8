package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/setupui"
	"github.com/verte-zerg/examclock/internal/timing"
	"github.com/verte-zerg/examclock/internal/validate"
)

// RunRecorder stores finished presentations.
type RunRecorder interface {
	InsertRun(ctx context.Context, run model.RunRecord) (string, error)
}

// AppOptions configures the top-level program.
type AppOptions struct {
	// Components pre-fill the form. With Present set they are shown
	// immediately and must already be valid.
	Components []model.Component
	Present    bool
	Config     model.PresentConfig
	Clock      timing.Clock
	Recorder   RunRecorder
	Logger     *zap.Logger
	Notice     string
}

// App switches between the setup form and the presenter.
type App struct {
	form      *setupui.Model
	presenter *Model

	cfg      model.PresentConfig
	clock    timing.Clock
	recorder RunRecorder
	logger   *zap.Logger
	notice   string

	gen     int
	startup tea.Cmd
	err     error

	width  int
	height int
}

// NewApp builds the program model. When opts.Present is set the presenter
// opens before the first frame.
func NewApp(opts AppOptions) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = timing.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	a := &App{
		form:     setupui.NewModel(opts.Components),
		cfg:      opts.Config,
		clock:    opts.Clock,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		notice:   opts.Notice,
	}
	if opts.Present {
		cmd, err := a.startPresenter(opts.Components)
		if err != nil {
			return nil, err
		}
		a.startup = cmd
	}
	return a, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.presenter != nil {
		return a.startup
	}
	return a.form.Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.form.Update(msg)
		if a.presenter != nil {
			a.presenter.Update(msg)
		}
		return a, nil
	case setupui.SubmitMsg:
		cmd, err := a.startPresenter(msg.Components)
		if err != nil {
			a.logger.Error("failed to open presenter", zap.Error(err))
			a.err = err
			return a, tea.Quit
		}
		return a, cmd
	case ExitMsg:
		a.recordRun(msg)
		a.presenter = nil
		if msg.Quit {
			return a, tea.Quit
		}
		return a, tea.Batch(tea.ClearScreen, a.form.Focus())
	}
	if a.presenter != nil {
		_, cmd := a.presenter.Update(msg)
		return a, cmd
	}
	_, cmd := a.form.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if a.presenter != nil {
		return a.presenter.View()
	}
	return a.form.View()
}

// Err returns a fatal error that ended the program, if any.
func (a *App) Err() error {
	return a.err
}

// Presenting reports whether the presenter is showing.
func (a *App) Presenting() bool {
	return a.presenter != nil
}

func (a *App) startPresenter(components []model.Component) (tea.Cmd, error) {
	a.gen++
	p, err := NewModel(components, a.cfg, a.clock, a.logger, Notice(a.notice, components), a.gen)
	if err != nil {
		return nil, err
	}
	if a.width > 0 && a.height > 0 {
		p.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	}
	a.presenter = p
	return tea.Batch(tea.ClearScreen, p.Init()), nil
}

func (a *App) recordRun(msg ExitMsg) {
	if a.recorder == nil {
		return
	}
	run := model.RunRecord{
		OpenedAt:   msg.OpenedAt,
		ClosedAt:   msg.ClosedAt,
		Layout:     a.cfg.Layout,
		Fullscreen: a.cfg.Fullscreen,
		Components: RunComponents(msg.Components, msg.Final),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := a.recorder.InsertRun(ctx, run)
	if err != nil {
		a.logger.Error("failed to record presentation", zap.Error(err))
		return
	}
	a.logger.Debug("presentation recorded", zap.String("run_id", id))
}

// Notice joins a base notice with the input warnings of components into
// the single line shown above the presenter.
func Notice(base string, components []model.Component) string {
	parts := []string{}
	if base != "" {
		parts = append(parts, base)
	}
	for _, c := range components {
		for _, w := range validate.Warnings(c) {
			parts = append(parts, "warning: "+w)
		}
	}
	return strings.Join(parts, " | ")
}

// RunComponents pairs components with their final derived state.
func RunComponents(components []model.Component, final []timing.Derived) []model.RunComponent {
	out := make([]model.RunComponent, len(components))
	for i, c := range components {
		status := timing.NotStarted
		if i < len(final) {
			status = final[i].Status
		}
		out[i] = model.RunComponent{
			Component:     c,
			Position:      i,
			StatusAtClose: status.String(),
		}
	}
	return out
}
