package plain

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/timing"
)

func components() []model.Component {
	return []model.Component{
		{Code: "J560/01", Title: "Maths", StartTime: "09:00", EndTime: "10:30", ExtraTime: 15},
		{Code: "8461/1H", Title: "Biology", StartTime: "09:00", EndTime: "10:00"},
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 10, hour, minute, 0, 0, time.UTC)
}

func TestLinesFormat(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(&buf, components(), false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !p.Tick(at(10, 30)) {
		t.Fatalf("expected run to continue")
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "10:30:00  J560/01 Maths  running") || !strings.Contains(lines[0], "00:15:00") {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[0], "(09:00-10:45)") {
		t.Fatalf("expected extra-time finish in first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "finished") || !strings.Contains(lines[1], "100.0%") {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
}

func TestTickExitsWhenAllFinished(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(&buf, components(), true)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !p.Tick(at(10, 30)) {
		t.Fatalf("expected run to continue while one component runs")
	}
	if p.Tick(at(10, 45)) {
		t.Fatalf("expected run to end once all components finished")
	}
	last := p.Last()
	if len(last) != 2 || last[0].Status != timing.Finished || last[1].Status != timing.Finished {
		t.Fatalf("unexpected final state: %+v", last)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestTickStopsOnWriteError(t *testing.T) {
	p, err := New(failingWriter{}, components(), false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Tick(at(9, 0)) {
		t.Fatalf("expected write failure to end the run")
	}
	if p.Err() == nil {
		t.Fatalf("expected error to be recorded")
	}
}

func TestNewRejectsMalformedTime(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, []model.Component{{StartTime: "9am", EndTime: "10:00"}}, false); err == nil {
		t.Fatalf("expected malformed time error")
	}
}
