// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/examclock/internal/timing"
)

// MaxComponents is the number of components shown side by side in dual
// exam mode.
const MaxComponents = 2

// Component is one examined unit as entered by the invigilator.
type Component struct {
	Qualification string `toml:"qualification" validate:"required"`
	Code          string `toml:"code" validate:"required"`
	Title         string `toml:"title" validate:"required"`
	CentreNumber  string `toml:"centre" validate:"required"`
	StartTime     string `toml:"start" validate:"required,hhmm"`
	EndTime       string `toml:"end" validate:"required,hhmm"`
	ExtraTime     int    `toml:"extra" validate:"gte=0"`
}

// Timing builds the immutable timing value for c.
func (c Component) Timing() (timing.Timing, error) {
	return timing.New(c.StartTime, c.EndTime, c.ExtraTime)
}

// Trimmed returns c with surrounding whitespace removed from every text
// field.
func (c Component) Trimmed() Component {
	c.Qualification = strings.TrimSpace(c.Qualification)
	c.Code = strings.TrimSpace(c.Code)
	c.Title = strings.TrimSpace(c.Title)
	c.CentreNumber = strings.TrimSpace(c.CentreNumber)
	c.StartTime = strings.TrimSpace(c.StartTime)
	c.EndTime = strings.TrimSpace(c.EndTime)
	return c
}

// Label is a short "code title" description.
func (c Component) Label() string {
	return fmt.Sprintf("%s %s", c.Code, c.Title)
}

// Sheet is the ordered set of components presented together.
type Sheet struct {
	Components []Component `toml:"component" validate:"min=1,max=2,dive"`
}

// Layout selects the display density of the presenter.
type Layout string

const (
	LayoutFull    Layout = "full"
	LayoutCompact Layout = "compact"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case LayoutFull, LayoutCompact:
		return Layout(s), nil
	default:
		return "", fmt.Errorf("unknown layout %q (use %q or %q)", s, LayoutFull, LayoutCompact)
	}
}

// PresentConfig holds presenter settings.
type PresentConfig struct {
	Layout       Layout
	Fullscreen   bool
	BigClock     bool
	ShowProgress bool
	History      bool
}

// RunRecord is one invigilation log entry: a presentation from open to exit.
type RunRecord struct {
	ID         string
	OpenedAt   time.Time
	ClosedAt   time.Time
	Layout     Layout
	Fullscreen bool
	Components []RunComponent
}

// Duration is how long the presenter stayed open.
func (r RunRecord) Duration() time.Duration {
	return r.ClosedAt.Sub(r.OpenedAt)
}

// RunComponent is a component as shown during a run, with its status at exit.
type RunComponent struct {
	Component
	Position      int
	StatusAtClose string
}

// HistoryFilter selects runs for the history report.
type HistoryFilter struct {
	Since *time.Time
	Last  int
}
