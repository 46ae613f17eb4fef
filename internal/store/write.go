package store

import (
	"context"
	"fmt"
)

// BeginRun inserts a run record. StartedAt defaults to now.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	vars, err := marshalList(run.Variables)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	years, err := marshalList(run.Years)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, fingerprint, variables, years, join_key, join_mode, phase, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Fingerprint,
		vars,
		years,
		run.JoinKey,
		run.JoinMode,
		run.Phase,
		timestamp(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the terminal phase of a run.
func (s *Store) FinishRun(ctx context.Context, id, phase string, rows int, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET phase = ?, rows = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, phase, rows, msg, timestamp(s.now()), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrNotFound, id)
	}
	return nil
}

// RecordArtifact inserts or replaces the ledger entry for (year, file).
// A re-materialized artifact overwrites the previous entry.
func (s *Store) RecordArtifact(ctx context.Context, a Artifact) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts
		(year, file, path, source_url, rows, columns, sha256, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(year, file) DO UPDATE SET
			path = excluded.path,
			source_url = excluded.source_url,
			rows = excluded.rows,
			columns = excluded.columns,
			sha256 = excluded.sha256,
			run_id = excluded.run_id,
			created_at = excluded.created_at
	`,
		a.Year,
		a.File,
		a.Path,
		a.SourceURL,
		a.Rows,
		a.Columns,
		a.SHA256,
		a.RunID,
		timestamp(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record artifact: %w", err)
	}
	return nil
}

// DeleteArtifacts removes artifact entries for year, or every entry when
// year is empty. Returns the number of entries removed.
func (s *Store) DeleteArtifacts(ctx context.Context, year string) (int64, error) {
	query := `DELETE FROM artifacts`
	var args []any
	if year != "" {
		query += ` WHERE year = ?`
		args = append(args, year)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete artifacts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete artifacts: %w", err)
	}
	return n, nil
}
