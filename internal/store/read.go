package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Artifacts lists artifact entries ordered by year then file.
// An empty year lists every entry.
func (s *Store) Artifacts(ctx context.Context, year string) ([]Artifact, error) {
	query := `
		SELECT year, file, path, source_url, rows, columns, sha256, run_id, created_at
		FROM artifacts`
	var args []any
	if year != "" {
		query += ` WHERE year = ?`
		args = append(args, year)
	}
	query += ` ORDER BY year ASC, file ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var (
			a       Artifact
			created string
		)
		if err := rows.Scan(&a.Year, &a.File, &a.Path, &a.SourceURL, &a.Rows, &a.Columns, &a.SHA256, &a.RunID, &created); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.CreatedAt = parseTimestamp(created)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return out, nil
}

// Artifact returns the entry for (year, file) or ErrNotFound.
func (s *Store) Artifact(ctx context.Context, year, file string) (Artifact, error) {
	var (
		a       Artifact
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT year, file, path, source_url, rows, columns, sha256, run_id, created_at
		FROM artifacts WHERE year = ? AND file = ?
	`, year, file).Scan(&a.Year, &a.File, &a.Path, &a.SourceURL, &a.Rows, &a.Columns, &a.SHA256, &a.RunID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, fmt.Errorf("artifact %s/%s: %w", year, file, ErrNotFound)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("query artifact: %w", err)
	}
	a.CreatedAt = parseTimestamp(created)
	return a, nil
}

// Run returns the run with the given id or ErrNotFound.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, variables, years, join_key, join_mode, phase, error, rows, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// Runs lists the most recent runs first, at most limit of them
// (all when limit <= 0).
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, fingerprint, variables, years, join_key, join_mode, phase, error, rows, started_at, finished_at
		FROM runs ORDER BY rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		vars, years       string
		started, finished string
	)
	err := sc.Scan(&run.ID, &run.Fingerprint, &vars, &years, &run.JoinKey, &run.JoinMode,
		&run.Phase, &run.Error, &run.Rows, &started, &finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.Variables, err = unmarshalList(vars); err != nil {
		return Run{}, err
	}
	if run.Years, err = unmarshalList(years); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	return run, nil
}
