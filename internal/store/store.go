// Package store handles SQLite persistence of the invigilation log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/examclock/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for presentation runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			opened_at TEXT NOT NULL,
			closed_at TEXT NOT NULL,
			layout TEXT NOT NULL,
			fullscreen INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_components (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			qualification TEXT NOT NULL,
			code TEXT NOT NULL,
			title TEXT NOT NULL,
			centre_number TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			extra_minutes INTEGER NOT NULL,
			status_at_close TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_opened_at ON runs(opened_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a finished presentation and its components. An empty
// ID is replaced by a new UUID; the stored ID is returned.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord) (id string, err error) {
	id = run.ID
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, opened_at, closed_at, layout, fullscreen) VALUES (?, ?, ?, ?, ?)`,
		id,
		run.OpenedAt.UTC().Format(timeLayout),
		run.ClosedAt.UTC().Format(timeLayout),
		string(run.Layout),
		boolToInt(run.Fullscreen),
	); err != nil {
		return "", err
	}

	if len(run.Components) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_components (run_id, position, qualification, code, title, centre_number, start_time, end_time, extra_minutes, status_at_close)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, c := range run.Components {
			if _, err = stmt.ExecContext(ctx, id, c.Position, c.Qualification, c.Code, c.Title, c.CentreNumber,
				c.StartTime, c.EndTime, c.ExtraTime, c.StatusAtClose); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListRuns returns runs opened at or after filter.Since, oldest first, with
// their components.
func (s *Store) ListRuns(ctx context.Context, filter model.HistoryFilter) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Since != nil {
		clauses = append(clauses, "opened_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, opened_at, closed_at, layout, fullscreen
		FROM runs
		WHERE %s
		ORDER BY opened_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var (
			run                model.RunRecord
			openedAt, closedAt string
			layout             string
			fullscreen         int
		)
		if err := rows.Scan(&run.ID, &openedAt, &closedAt, &layout, &fullscreen); err != nil {
			return nil, err
		}
		if run.OpenedAt, err = time.Parse(timeLayout, openedAt); err != nil {
			return nil, err
		}
		if run.ClosedAt, err = time.Parse(timeLayout, closedAt); err != nil {
			return nil, err
		}
		run.Layout = model.Layout(layout)
		run.Fullscreen = fullscreen != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	components, err := s.listComponentsForRuns(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		runs[i].Components = components[runs[i].ID]
	}
	return runs, nil
}

func (s *Store) listComponentsForRuns(ctx context.Context, runIDs []string) (map[string][]model.RunComponent, error) {
	result := map[string][]model.RunComponent{}
	if len(runIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT run_id, position, qualification, code, title, centre_number, start_time, end_time, extra_minutes, status_at_close
		FROM run_components
		WHERE run_id IN (%s)
		ORDER BY run_id, position`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var runID string
		var c model.RunComponent
		if err := rows.Scan(&runID, &c.Position, &c.Qualification, &c.Code, &c.Title, &c.CentreNumber,
			&c.StartTime, &c.EndTime, &c.ExtraTime, &c.StatusAtClose); err != nil {
			return nil, err
		}
		result[runID] = append(result[runID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
