package history

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "examclock.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		opened := time.Unix(0, 0).UTC().Add(time.Duration(i) * time.Hour)
		run := model.RunRecord{
			OpenedAt: opened,
			ClosedAt: opened.Add(30 * time.Minute),
			Layout:   model.LayoutCompact,
			Components: []model.RunComponent{{
				Component:     model.Component{Code: "C1", StartTime: "09:00", EndTime: "10:00"},
				StatusAtClose: "running",
			}},
		}
		id, err := st.InsertRun(ctx, run)
		if err != nil {
			t.Fatalf("insert run: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.HistoryFilter{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(report.Runs))
	}
	if report.Runs[0].ID != ids[1] || report.Runs[1].ID != ids[2] {
		t.Fatalf("unexpected run ids: %+v", report.Runs)
	}
}

func TestRowFormats(t *testing.T) {
	opened := time.Date(2024, 6, 10, 8, 55, 0, 0, time.Local)
	run := model.RunRecord{
		OpenedAt: opened,
		ClosedAt: opened.Add(110*time.Minute + 20*time.Second),
		Layout:   model.LayoutFull,
		Components: []model.RunComponent{
			{Component: model.Component{Code: "J560/01"}, StatusAtClose: "finished"},
			{Component: model.Component{Code: "8461/1H"}, StatusAtClose: "running", Position: 1},
		},
	}
	row := Row(run)
	want := []string{"2024-06-10 08:55", "10:45", "1h50m", "full (windowed)", "J560/01, 8461/1H", "finished, running"}
	if len(row) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("cell %d: expected %q, got %q", i, want[i], row[i])
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Report{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No presentations logged." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderTable(t *testing.T) {
	opened := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)
	report := Report{Runs: []model.RunRecord{{
		OpenedAt:   opened,
		ClosedAt:   opened.Add(time.Hour),
		Layout:     model.LayoutCompact,
		Fullscreen: true,
		Components: []model.RunComponent{{Component: model.Component{Code: "H240/02"}, StatusAtClose: "finished"}},
	}}}
	var buf bytes.Buffer
	if err := Render(&buf, report); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"H240/02", "1h00m", "compact"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}
