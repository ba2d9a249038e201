package reportstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pfbverify/internal/services"
)

// Run statuses.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
	StatusError  = "error"
)

// Run is one persisted verification run.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Profile        string
	OSFactor       string
	Channels       int
	InputFFTLength int
	InputOverlap   int
	Threshold      float64
	Status         string
	ErrorMessage   string
	Cases          []Case
}

// Case is one compared signal within a run.
type Case struct {
	Suite        string
	Label        string
	Parameter    *int
	Mean         float64
	Sum          float64
	Compared     int
	MaxAbsDiff   float64
	Passed       bool
	ErrorMessage string
}

// Summary is the listing view of a run.
type Summary struct {
	ID          string
	StartedAt   time.Time
	Profile     string
	OSFactor    string
	Status      string
	CaseCount   int
	PassedCount int
}

// SaveRun stores run and its cases in a single transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return services.Wrap(services.ErrValidation, "reportstore", "save", "run id required", nil)
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (
                id, started_at, finished_at, profile, os_factor, channels,
                input_fft_length, input_overlap, threshold, status, error_message
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
			nullableString(run.Profile),
			run.OSFactor,
			run.Channels,
			run.InputFFTLength,
			run.InputOverlap,
			run.Threshold,
			run.Status,
			nullableString(run.ErrorMessage),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, c := range run.Cases {
			var param any
			if c.Parameter != nil {
				param = *c.Parameter
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cases (
                    run_id, suite, label, parameter, mean, sum, compared,
                    max_abs_diff, passed, error_message
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, c.Suite, c.Label, param, c.Mean, c.Sum, c.Compared,
				c.MaxAbsDiff, boolToInt(c.Passed), nullableString(c.ErrorMessage),
			); err != nil {
				return fmt.Errorf("insert case %s: %w", c.Label, err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT r.id, r.started_at, r.profile, r.os_factor, r.status,
            COUNT(c.id), COALESCE(SUM(c.passed), 0)
        FROM runs r LEFT JOIN cases c ON c.run_id = r.id
        GROUP BY r.id
        ORDER BY r.started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			started string
			profile sql.NullString
		)
		if err := rows.Scan(&sum.ID, &started, &profile, &sum.OSFactor, &sum.Status, &sum.CaseCount, &sum.PassedCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.StartedAt = parseTime(started)
		sum.Profile = profile.String
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetRun loads a run and its cases.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var (
		run              Run
		started, ended   string
		profile, errText sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, profile, os_factor, channels,
            input_fft_length, input_overlap, threshold, status, error_message
        FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &started, &ended, &profile, &run.OSFactor, &run.Channels,
		&run.InputFFTLength, &run.InputOverlap, &run.Threshold, &run.Status, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, services.Wrap(services.ErrNotFound, "reportstore", "get", "run "+id, nil)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(ended)
	run.Profile = profile.String
	run.ErrorMessage = errText.String

	rows, err := s.db.QueryContext(ctx,
		`SELECT suite, label, parameter, mean, sum, compared, max_abs_diff, passed, error_message
        FROM cases WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return Run{}, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c       Case
			param   sql.NullInt64
			passed  int
			caseErr sql.NullString
		)
		if err := rows.Scan(&c.Suite, &c.Label, &param, &c.Mean, &c.Sum, &c.Compared, &c.MaxAbsDiff, &passed, &caseErr); err != nil {
			return Run{}, fmt.Errorf("scan case: %w", err)
		}
		if param.Valid {
			v := int(param.Int64)
			c.Parameter = &v
		}
		c.Passed = passed != 0
		c.ErrorMessage = caseErr.String
		run.Cases = append(run.Cases, c)
	}
	return run, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
