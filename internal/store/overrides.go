package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
)

// DomainOverride prefixes stored override IDs.
const DomainOverride = "lowering/override/v1"

// Override is a stored compilation_info record for one op of one run.
type Override struct {
	ID       string
	RunID    string
	Dispatch string
	Op       string
	Info     *codegen.CompilationInfo
	InfoHash string
	Seq      int64
}

// OverrideID returns the content-addressed ID of an override.
func OverrideID(runID, dispatch, op string, info *codegen.CompilationInfo) (string, error) {
	return attr.Hash(attr.DictAttr{
		"domain":           attr.StringAttr(DomainOverride),
		"run_id":           attr.StringAttr(runID),
		"dispatch":         attr.StringAttr(dispatch),
		"op":               attr.StringAttr(op),
		"compilation_info": info,
	})
}

// WriteOverride stores info as the override of dispatch/op in a run.
// Writing an identical override again is a no-op and reports
// inserted=false. A different record for an already-tuned target fails.
//
// The record must verify; a malformed one is never stored.
func (s *Store) WriteOverride(ctx context.Context, runID, dispatch, op string, info *codegen.CompilationInfo) (inserted bool, err error) {
	n, err := s.AppendOverrides(ctx, runID, []RunOverride{{Dispatch: dispatch, Op: op, Info: info}})
	return n > 0, err
}

// AppendOverrides adds overrides to an existing run in a single
// transaction: all of them are stored or none is. Returns the number of
// overrides that were not already stored.
func (s *Store) AppendOverrides(ctx context.Context, runID string, overrides []RunOverride) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write override: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	inserted, err := insertOverrides(ctx, tx, runID, overrides)
	if err != nil {
		return 0, fmt.Errorf("write override: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write override: commit: %w", err)
	}
	return inserted, nil
}

func insertOverrides(ctx context.Context, tx *sql.Tx, runID string, overrides []RunOverride) (int, error) {
	inserted := 0
	for _, o := range overrides {
		ok, err := insertOverride(ctx, tx, runID, o.Dispatch, o.Op, o.Info)
		if err != nil {
			return 0, fmt.Errorf("override %s/%s: %w", o.Dispatch, o.Op, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func insertOverride(ctx context.Context, tx *sql.Tx, runID, dispatch, op string, info *codegen.CompilationInfo) (bool, error) {
	if info == nil {
		return false, fmt.Errorf("nil compilation info")
	}
	if err := info.Verify(); err != nil {
		return false, err
	}

	canonical, err := attr.MarshalCanonical(info)
	if err != nil {
		return false, err
	}
	infoHash, err := attr.Hash(info)
	if err != nil {
		return false, err
	}
	id, err := OverrideID(runID, dispatch, op, info)
	if err != nil {
		return false, err
	}

	seq, err := nextSeq(ctx, tx, "overrides")
	if err != nil {
		return false, err
	}

	// ON CONFLICT(id) makes identical writes idempotent. The
	// UNIQUE(run_id, dispatch, op) constraint still rejects a second,
	// different record for the same target.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO overrides (id, run_id, dispatch, op, compilation_info, info_hash, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, runID, dispatch, op, string(canonical), infoHash, seq)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReadOverrides returns the overrides of a run ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadOverrides(ctx context.Context, runID string) ([]Override, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, dispatch, op, compilation_info, info_hash, seq
		FROM overrides
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	overrides := []Override{}
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return overrides, nil
}

// LatestOverride returns the override of dispatch/op from the most recent
// run that tuned it.
// Returns sql.ErrNoRows if the op was never tuned.
func (s *Store) LatestOverride(ctx context.Context, dispatch, op string) (Override, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT o.id, o.run_id, o.dispatch, o.op, o.compilation_info, o.info_hash, o.seq
		FROM overrides o
		JOIN tuning_runs r ON o.run_id = r.id
		WHERE o.dispatch = ? AND o.op = ?
		ORDER BY r.seq DESC
		LIMIT 1
	`, dispatch, op)
	return scanOverride(row)
}

// OverridesWithInfo returns every stored override whose record hashes to
// infoHash, ordered by seq ASC, id ASC.
func (s *Store) OverridesWithInfo(ctx context.Context, infoHash string) ([]Override, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, dispatch, op, compilation_info, info_hash, seq
		FROM overrides
		WHERE info_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, infoHash)
	if err != nil {
		return nil, fmt.Errorf("query overrides by info: %w", err)
	}
	defer rows.Close()

	overrides := []Override{}
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return overrides, nil
}

func scanOverride(row scanner) (Override, error) {
	var o Override
	var infoJSON string
	err := row.Scan(&o.ID, &o.RunID, &o.Dispatch, &o.Op, &infoJSON, &o.InfoHash, &o.Seq)
	if err == sql.ErrNoRows {
		return Override{}, err
	}
	if err != nil {
		return Override{}, fmt.Errorf("scan override: %w", err)
	}

	decoded, err := attr.Unmarshal([]byte(infoJSON))
	if err != nil {
		return Override{}, fmt.Errorf("unmarshal compilation_info for %s: %w", o.ID, err)
	}
	info, ok := decoded.(*codegen.CompilationInfo)
	if !ok {
		return Override{}, fmt.Errorf("override %s: stored record is %T, not compilation info", o.ID, decoded)
	}
	o.Info = info
	return o, nil
}
