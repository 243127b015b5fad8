// Package history reports past presentations from the invigilation log.
package history

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/store"
)

// Report contains the runs selected for output.
type Report struct {
	Runs []model.RunRecord
}

// BuildReport loads runs matching filter, keeping only the last N when set.
func BuildReport(ctx context.Context, st *store.Store, filter model.HistoryFilter) (Report, error) {
	runs, err := st.ListRuns(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	if filter.Last > 0 && len(runs) > filter.Last {
		runs = runs[len(runs)-filter.Last:]
	}
	return Report{Runs: runs}, nil
}

// Render prints the report as a table.
func Render(w io.Writer, report Report) error {
	if len(report.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No presentations logged.")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("Opened", "Closed", "Open For", "Layout", "Components", "Status At Exit")
	for _, run := range report.Runs {
		if err := table.Append(Row(run)); err != nil {
			return fmt.Errorf("failed to add row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// Row formats one run as table cells.
func Row(run model.RunRecord) []string {
	labels := make([]string, 0, len(run.Components))
	statuses := make([]string, 0, len(run.Components))
	for _, c := range run.Components {
		labels = append(labels, c.Code)
		statuses = append(statuses, c.StatusAtClose)
	}
	layout := string(run.Layout)
	if !run.Fullscreen {
		layout += " (windowed)"
	}
	return []string{
		run.OpenedAt.Local().Format("2006-01-02 15:04"),
		run.ClosedAt.Local().Format("15:04"),
		formatDuration(run.Duration()),
		layout,
		strings.Join(labels, ", "),
		strings.Join(statuses, ", "),
	}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
