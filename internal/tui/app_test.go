package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/setupui"
	"github.com/verte-zerg/examclock/internal/timing"
)

type fakeRecorder struct {
	runs []model.RunRecord
	err  error
}

func (f *fakeRecorder) InsertRun(_ context.Context, run model.RunRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.runs = append(f.runs, run)
	return "run-1", nil
}

func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if _, ok := msg.(ExitMsg); ok {
		a.Update(msg)
	}
}

func TestAppFormToPresenterAndBack(t *testing.T) {
	clock := timing.NewManualClock(at(9, 0))
	rec := &fakeRecorder{}
	a, err := NewApp(AppOptions{
		Components: []model.Component{maths()},
		Config:     fullConfig(),
		Clock:      clock,
		Recorder:   rec,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if a.Presenting() {
		t.Fatalf("expected form first")
	}

	a.Update(setupui.SubmitMsg{Components: []model.Component{maths()}})
	if !a.Presenting() {
		t.Fatalf("expected presenter after submit")
	}

	clock.Set(at(9, 30))
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(t, a, cmd)
	if a.Presenting() {
		t.Fatalf("expected form after exit")
	}
	if len(rec.runs) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(rec.runs))
	}
	run := rec.runs[0]
	if run.Duration().Minutes() != 30 || run.Components[0].StatusAtClose != "running" {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestAppPresentImmediately(t *testing.T) {
	a, err := NewApp(AppOptions{
		Components: []model.Component{maths(), biology()},
		Present:    true,
		Config:     fullConfig(),
		Clock:      timing.NewManualClock(at(9, 0)),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if !a.Presenting() {
		t.Fatalf("expected presenter on start")
	}
	if a.Init() == nil {
		t.Fatalf("expected tick command on init")
	}
}

func TestAppCtrlCQuitsFromPresenter(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	a, err := NewApp(AppOptions{
		Components: []model.Component{maths()},
		Present:    true,
		Config:     fullConfig(),
		Clock:      timing.NewManualClock(at(9, 0)),
		Recorder:   rec,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	exit := cmd()
	_, quit := a.Update(exit)
	if quit == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := quit().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestAppStaleTickAfterReopen(t *testing.T) {
	clock := timing.NewManualClock(at(9, 0))
	a, err := NewApp(AppOptions{
		Components: []model.Component{maths()},
		Present:    true,
		Config:     fullConfig(),
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drain(t, a, cmd)
	a.Update(setupui.SubmitMsg{Components: []model.Component{maths()}})

	if _, cmd := a.Update(tickMsg{gen: 1}); cmd != nil {
		t.Fatalf("tick from the first presenter must be dropped")
	}
	if _, cmd := a.Update(tickMsg{gen: 2}); cmd == nil {
		t.Fatalf("tick from the current presenter must reschedule")
	}
}

func TestRunComponents(t *testing.T) {
	final := []timing.Derived{{Status: timing.Finished}}
	got := RunComponents([]model.Component{maths(), biology()}, final)
	if got[0].StatusAtClose != "finished" || got[1].StatusAtClose != "not started" {
		t.Fatalf("unexpected statuses: %+v", got)
	}
	if got[1].Position != 1 {
		t.Fatalf("unexpected position %d", got[1].Position)
	}
}

func TestAppShowsBackwardsTimeWarning(t *testing.T) {
	backwards := maths()
	backwards.StartTime = "10:00"
	backwards.EndTime = "09:00"
	backwards.ExtraTime = 0
	a, err := NewApp(AppOptions{
		Components: []model.Component{backwards},
		Present:    true,
		Config:     fullConfig(),
		Clock:      timing.NewManualClock(at(9, 30)),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if !strings.Contains(a.View(), "J560/01: finish time 09:00 is not after start time 10:00") {
		t.Fatalf("expected warning in presenter view:\n%s", a.View())
	}
}

func TestNoticeJoinsBaseAndWarnings(t *testing.T) {
	backwards := biology()
	backwards.EndTime = "08:30"
	got := Notice("full-screen unavailable", []model.Component{maths(), backwards})
	want := "full-screen unavailable | warning: 8461/1H: finish time 08:30 is not after start time 09:00"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := Notice("", []model.Component{maths()}); got != "" {
		t.Fatalf("expected empty notice, got %q", got)
	}
}
