package pipeline

import (
	"context"
	"strings"

	"github.com/lucasnoah/leakgate/internal/db"
	"github.com/lucasnoah/leakgate/internal/envelope"
)

// DBRecorder stores runs in the scan_runs table.
type DBRecorder struct {
	DB *db.DB
}

func (r *DBRecorder) RecordRun(ctx context.Context, run Run) error {
	return r.DB.LogScanRun(ctx, toScanRun(run))
}

func toScanRun(run Run) db.ScanRun {
	row := db.ScanRun{
		RunID:        run.ID,
		Command:      strings.Join(run.Command, " "),
		ScanExitCode: run.ScanExitCode,
		DurationMs:   int(run.Duration.Milliseconds()),
	}
	if run.Err != nil {
		env := envelope.FromError(run.Err)
		row.ExitCode = env.ExitCode
		row.ErrorMessage = env.ErrorMessage
		return row
	}
	if run.Report != nil {
		row.FindingCount = len(run.Report.Findings)
		if s, err := run.Report.JSON(); err == nil {
			row.Findings = []byte(s)
		}
	}
	return row
}
