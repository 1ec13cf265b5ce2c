package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
)

// Run is one auto-tuner invocation.
type Run struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Seq           int64  `json:"seq"`
	ToolVersion   string `json:"tool_version"`
	SchemaVersion string `json:"schema_version"`
}

// CreateRun records a new tuning run, with no overrides, under a fresh ID
// and the next seq.
func (s *Store) CreateRun(ctx context.Context, name, description string) (Run, error) {
	run, _, err := s.ImportRun(ctx, name, description, nil)
	return run, err
}

// RunOverride is one override to store with ImportRun or AppendOverrides.
type RunOverride struct {
	Dispatch string
	Op       string
	Info     *codegen.CompilationInfo
}

// ImportRun records a new run together with its overrides in a single
// transaction. Either the run and every override are stored, or nothing
// is. inserted counts overrides that were not already stored.
func (s *Store) ImportRun(ctx context.Context, name, description string, overrides []RunOverride) (run Run, inserted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, 0, fmt.Errorf("import run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	run, err = s.insertRun(ctx, tx, name, description)
	if err != nil {
		return Run{}, 0, fmt.Errorf("import run: %w", err)
	}
	inserted, err = insertOverrides(ctx, tx, run.ID, overrides)
	if err != nil {
		return Run{}, 0, fmt.Errorf("import run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, 0, fmt.Errorf("import run: commit: %w", err)
	}
	return run, inserted, nil
}

func (s *Store) insertRun(ctx context.Context, tx *sql.Tx, name, description string) (Run, error) {
	seq, err := nextSeq(ctx, tx, "tuning_runs")
	if err != nil {
		return Run{}, err
	}

	run := Run{
		ID:            s.ids.Generate(),
		Name:          name,
		Description:   description,
		Seq:           seq,
		ToolVersion:   attr.ToolVersion,
		SchemaVersion: attr.SchemaVersion,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO tuning_runs (id, name, description, seq, tool_version, schema_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Name, run.Description, run.Seq, run.ToolVersion, run.SchemaVersion)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ReadRun retrieves a run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, seq, tool_version, schema_version
		FROM tuning_runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// LatestRun returns the most recently created run.
// Returns sql.ErrNoRows if the database has no runs.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, seq, tool_version, schema_version
		FROM tuning_runs
		ORDER BY seq DESC
		LIMIT 1
	`)
	return scanRun(row)
}

// ListRuns returns all runs ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, seq, tool_version, schema_version
		FROM tuning_runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Name, &run.Description, &run.Seq, &run.ToolVersion, &run.SchemaVersion)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// nextSeq returns one past the largest seq in table.
func nextSeq(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM "+table).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}
