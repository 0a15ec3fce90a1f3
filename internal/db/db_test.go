package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// testDB connects to LEAKGATE_TEST_DATABASE_URL and starts from an empty schema.
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("LEAKGATE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEAKGATE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	d, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Reset(ctx); err != nil {
		t.Fatalf("reset test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func intPtr(v int) *int { return &v }

func TestMigrateIdempotent(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var version int
	if err := d.pool.QueryRow(ctx, "SELECT version FROM leakgate_schema_version").Scan(&version); err != nil {
		t.Fatalf("query schema version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected schema version 1, got %d", version)
	}
}

func TestLogAndGetScanRun(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	ok := ScanRun{
		RunID:        uuid.New(),
		Command:      "/app/gitleaks detect --source /code",
		ScanExitCode: intPtr(1),
		ExitCode:     0,
		FindingCount: 2,
		Findings:     []byte(`{"findings": []}`),
		DurationMs:   1200,
	}
	failed := ScanRun{
		RunID:        uuid.New(),
		Command:      "/app/gitleaks detect",
		ExitCode:     1,
		ErrorMessage: "The directory at /code is empty",
		DurationMs:   3,
	}
	for _, r := range []ScanRun{ok, failed} {
		if err := d.LogScanRun(ctx, r); err != nil {
			t.Fatalf("log scan run: %v", err)
		}
	}

	got, err := d.GetScanRun(ctx, ok.RunID)
	if err != nil {
		t.Fatalf("get scan run: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.ScanExitCode == nil || *got.ScanExitCode != 1 {
		t.Errorf("ScanExitCode = %v, want 1", got.ScanExitCode)
	}
	if got.FindingCount != 2 {
		t.Errorf("FindingCount = %d, want 2", got.FindingCount)
	}
	if len(got.Findings) == 0 {
		t.Error("expected findings JSON to be stored")
	}

	history, err := d.GetScanHistory(ctx, 10)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(history))
	}
	if history[0].RunID != failed.RunID {
		t.Errorf("expected newest run first")
	}
	if history[0].ScanExitCode != nil {
		t.Errorf("expected nil scan exit code for preflight failure, got %d", *history[0].ScanExitCode)
	}
	if history[0].ErrorMessage != failed.ErrorMessage {
		t.Errorf("ErrorMessage = %q", history[0].ErrorMessage)
	}
}

func TestGetScanRunMissing(t *testing.T) {
	d := testDB(t)
	got, err := d.GetScanRun(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
