// Package plain prints exam countdowns as text lines, one block per tick,
// for output that is not an interactive terminal.
package plain

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/timing"
)

// Presenter renders components as status lines.
type Presenter struct {
	w                io.Writer
	components       []model.Component
	timings          []timing.Timing
	exitWhenFinished bool

	last []timing.Derived
	err  error
}

// New builds a Presenter for already validated components.
func New(w io.Writer, components []model.Component, exitWhenFinished bool) (*Presenter, error) {
	timings := make([]timing.Timing, len(components))
	for i, c := range components {
		tm, err := c.Timing()
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i+1, err)
		}
		timings[i] = tm
	}
	return &Presenter{
		w:                w,
		components:       components,
		timings:          timings,
		exitWhenFinished: exitWhenFinished,
	}, nil
}

// Tick derives and prints every component at now. It returns false when
// the run should end: a write failed, or every component has finished and
// the presenter was asked to exit then.
func (p *Presenter) Tick(now time.Time) bool {
	derived := p.derive(now)
	for _, line := range Lines(now, p.components, derived) {
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			p.err = fmt.Errorf("failed to write status: %w", err)
			return false
		}
	}
	if p.exitWhenFinished && allFinished(derived) {
		return false
	}
	return true
}

// Err returns the write error that ended the run, if any.
func (p *Presenter) Err() error {
	return p.err
}

// Last returns the state derived on the most recent tick.
func (p *Presenter) Last() []timing.Derived {
	return append([]timing.Derived(nil), p.last...)
}

func (p *Presenter) derive(now time.Time) []timing.Derived {
	derived := make([]timing.Derived, len(p.timings))
	for i, tm := range p.timings {
		derived[i] = timing.Derive(tm, now)
	}
	p.last = derived
	return derived
}

// Lines formats one status line per component.
func Lines(now time.Time, components []model.Component, derived []timing.Derived) []string {
	clock := timing.FormatClock(now)
	lines := make([]string, 0, len(components))
	for i, c := range components {
		d := derived[i]
		lines = append(lines, fmt.Sprintf("%s  %s  %-11s  %s  %5.1f%%  (%s-%s)",
			clock,
			c.Label(),
			d.Status,
			d.RemainingString(),
			d.Progress,
			timing.FormatHM(d.Start),
			timing.FormatHM(d.End),
		))
	}
	return lines
}

func allFinished(derived []timing.Derived) bool {
	for _, d := range derived {
		if d.Status != timing.Finished {
			return false
		}
	}
	return len(derived) > 0
}
