package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/examclock/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "examclock.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleRun(opened time.Time) model.RunRecord {
	return model.RunRecord{
		OpenedAt:   opened,
		ClosedAt:   opened.Add(100 * time.Minute),
		Layout:     model.LayoutFull,
		Fullscreen: true,
		Components: []model.RunComponent{
			{
				Component: model.Component{
					Qualification: "GCSE",
					Code:          "J560/01",
					Title:         "Mathematics Paper 1",
					CentreNumber:  "12345",
					StartTime:     "09:00",
					EndTime:       "10:30",
					ExtraTime:     15,
				},
				Position:      0,
				StatusAtClose: "running",
			},
			{
				Component: model.Component{
					Qualification: "GCSE",
					Code:          "8461/1H",
					Title:         "Biology",
					CentreNumber:  "12345",
					StartTime:     "09:00",
					EndTime:       "10:15",
				},
				Position:      1,
				StatusAtClose: "finished",
			},
		},
	}
}

func TestInsertAndListRuns(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	opened := time.Date(2024, 6, 10, 8, 55, 0, 0, time.UTC)

	id, err := st.InsertRun(ctx, sampleRun(opened))
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated run id")
	}

	runs, err := st.ListRuns(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.ID != id || !got.OpenedAt.Equal(opened) || got.Duration() != 100*time.Minute {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.Layout != model.LayoutFull || !got.Fullscreen {
		t.Fatalf("unexpected layout/fullscreen: %+v", got)
	}
	if len(got.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(got.Components))
	}
	if got.Components[0].Code != "J560/01" || got.Components[0].ExtraTime != 15 {
		t.Fatalf("unexpected first component: %+v", got.Components[0])
	}
	if got.Components[1].StatusAtClose != "finished" {
		t.Fatalf("unexpected second component status: %q", got.Components[1].StatusAtClose)
	}
}

func TestInsertRunKeepsGivenID(t *testing.T) {
	st := openTestStore(t)
	run := sampleRun(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	run.ID = "fixed-id"
	id, err := st.InsertRun(context.Background(), run)
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	if id != "fixed-id" {
		t.Fatalf("expected fixed-id, got %s", id)
	}
	if _, err := st.InsertRun(context.Background(), run); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
}

func TestListRunsSince(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	day1 := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	for _, opened := range []time.Time{day1, day2} {
		if _, err := st.InsertRun(ctx, sampleRun(opened)); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	since := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	runs, err := st.ListRuns(ctx, model.HistoryFilter{Since: &since})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || !runs[0].OpenedAt.Equal(day2) {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}
