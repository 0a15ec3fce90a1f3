package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ScanRun represents a row in the scan_runs table.
type ScanRun struct {
	ID           int64
	RunID        uuid.UUID
	Command      string
	ScanExitCode *int // nil when the scanner never ran
	ExitCode     int
	FindingCount int
	ErrorMessage string
	Findings     []byte // report JSON, nil on failure
	DurationMs   int
	CreatedAt    time.Time
}

// LogScanRun inserts a scan run.
func (d *DB) LogScanRun(ctx context.Context, r ScanRun) error {
	var errMsg *string
	if r.ErrorMessage != "" {
		errMsg = &r.ErrorMessage
	}
	var findings *string
	if r.Findings != nil {
		s := string(r.Findings)
		findings = &s
	}

	_, err := d.pool.Exec(ctx,
		`INSERT INTO scan_runs (run_id, command, scan_exit_code, exit_code, finding_count, error_message, findings, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
		r.RunID, r.Command, r.ScanExitCode, r.ExitCode, r.FindingCount, errMsg, findings, r.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("log scan run: %w", err)
	}
	return nil
}

const scanRunColumns = `id, run_id, command, scan_exit_code, exit_code, finding_count,
	COALESCE(error_message, ''), findings::text, duration_ms, created_at`

// GetScanHistory returns the most recent runs, newest first.
func (d *DB) GetScanHistory(ctx context.Context, limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.pool.Query(ctx,
		`SELECT `+scanRunColumns+` FROM scan_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("get scan history: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get scan history: %w", err)
	}
	return runs, nil
}

// GetScanRun returns the run with the given id, or nil if there is none.
func (d *DB) GetScanRun(ctx context.Context, runID uuid.UUID) (*ScanRun, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+scanRunColumns+` FROM scan_runs WHERE run_id = $1`, runID)
	r, err := scanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan run: %w", err)
	}
	return &r, nil
}

func scanRow(row pgx.Row) (ScanRun, error) {
	var (
		r        ScanRun
		scanCode *int32
		findings *string
	)
	err := row.Scan(&r.ID, &r.RunID, &r.Command, &scanCode, &r.ExitCode, &r.FindingCount,
		&r.ErrorMessage, &findings, &r.DurationMs, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	if scanCode != nil {
		v := int(*scanCode)
		r.ScanExitCode = &v
	}
	if findings != nil {
		r.Findings = []byte(*findings)
	}
	return r, nil
}
