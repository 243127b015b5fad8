// Package timing derives exam start, finish, countdown and progress from
// wall-clock time.
package timing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Status is the lifecycle state of a timed component.
type Status int

const (
	NotStarted Status = iota
	Running
	Finished
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Timing is an immutable exam timing: a start and an end time of day plus
// extra minutes appended after the end.
type Timing struct {
	startHour, startMinute int
	endHour, endMinute     int
	extra                  time.Duration
}

// New parses start and end as "HH:MM" (24-hour) and builds a Timing.
func New(start, end string, extraMinutes int) (Timing, error) {
	sh, sm, err := ParseClock(start)
	if err != nil {
		return Timing{}, fmt.Errorf("start time: %w", err)
	}
	eh, em, err := ParseClock(end)
	if err != nil {
		return Timing{}, fmt.Errorf("end time: %w", err)
	}
	if extraMinutes < 0 {
		return Timing{}, fmt.Errorf("extra time must be >= 0, got %d", extraMinutes)
	}
	return Timing{
		startHour:   sh,
		startMinute: sm,
		endHour:     eh,
		endMinute:   em,
		extra:       time.Duration(extraMinutes) * time.Minute,
	}, nil
}

// ExtraMinutes returns the extra time in whole minutes.
func (t Timing) ExtraMinutes() int {
	return int(t.extra / time.Minute)
}

// ParseClock validates an "HH:MM" time of day and returns its parts.
func ParseClock(s string) (hour, minute int, err error) {
	if !clockPattern.MatchString(s) {
		return 0, 0, fmt.Errorf("invalid time %q (expected HH:MM)", s)
	}
	parts := strings.SplitN(s, ":", 2)
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	return hour, minute, nil
}

// Derived is the timing state of one component at one instant.
type Derived struct {
	Status    Status
	Start     time.Time
	BaseEnd   time.Time
	End       time.Time
	Total     time.Duration
	Remaining time.Duration
	Progress  float64
}

// RemainingString formats the remaining time as HH:MM:SS.
func (d Derived) RemainingString() string {
	return FormatHMS(d.Remaining)
}

// Derive computes the state of t at now. Start and end are placed on the
// calendar day of now, in now's location. A non-positive total duration
// never divides: once started it is reported as finished.
func Derive(t Timing, now time.Time) Derived {
	start := onDay(now, t.startHour, t.startMinute)
	baseEnd := onDay(now, t.endHour, t.endMinute)
	end := baseEnd.Add(t.extra)
	total := end.Sub(start)

	d := Derived{
		Start:   start,
		BaseEnd: baseEnd,
		End:     end,
		Total:   total,
	}
	if now.Before(start) {
		d.Status = NotStarted
		d.Remaining = maxDuration(total, 0)
		d.Progress = 0
		return d
	}

	remaining := end.Sub(now)
	if remaining <= 0 || total <= 0 {
		d.Status = Finished
		d.Remaining = 0
		d.Progress = 100
		return d
	}
	d.Status = Running
	d.Remaining = remaining
	d.Progress = clamp(float64(total-remaining)/float64(total)*100, 0, 100)
	return d
}

// FormatHMS renders d as zero-padded HH:MM:SS. Hours may exceed 24.
// Fractions of a second round up and negative values render as zero.
func FormatHMS(d time.Duration) string {
	if d <= 0 {
		return "00:00:00"
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// FormatClock renders a wall-clock time as HH:MM:SS.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatHM renders a time of day as HH:MM.
func FormatHM(t time.Time) string {
	return t.Format("15:04")
}

func onDay(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
