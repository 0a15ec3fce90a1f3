package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lucasnoah/leakgate/internal/results"
)

// Result is the outcome of a successful pipeline run.
type Result struct {
	ScanExitCode int
	Report       *results.Report
}

// Run describes one invocation, successful or not, for the run history.
type Run struct {
	ID           uuid.UUID
	Command      []string
	ScanExitCode *int // nil when the pipeline stopped before the scanner ran
	Report       *results.Report
	Err          error
	Duration     time.Duration
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
}
