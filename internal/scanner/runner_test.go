package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lucasnoah/leakgate/internal/envelope"
)

// mockCmd records calls and returns configured results.
type mockCmd struct {
	calls   [][]string
	results []mockResult
	callIdx int
}

type mockResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (m *mockCmd) Run(ctx context.Context, args []string) (string, string, int, error) {
	m.calls = append(m.calls, args)
	if m.callIdx >= len(m.results) {
		return "", "", 0, nil
	}
	r := m.results[m.callIdx]
	m.callIdx++
	return r.Stdout, r.Stderr, r.ExitCode, r.Err
}

// blockingCmd waits for the context to end, like a hung scanner.
type blockingCmd struct{}

func (blockingCmd) Run(ctx context.Context, args []string) (string, string, int, error) {
	<-ctx.Done()
	return "", "", -1, ctx.Err()
}

var scanArgs = []string{"/app/gitleaks", "detect", "--source", "/code", "--report-path", "./code/output.json"}

func TestInvoke_Clean(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{ExitCode: 0}}}
	inv := NewInvoker(mock, Options{Display: "Gitleaks"}, nil)

	code, err := inv.Invoke(context.Background(), scanArgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.calls))
	}
	if strings.Join(mock.calls[0], " ") != strings.Join(scanArgs, " ") {
		t.Errorf("unexpected command %v", mock.calls[0])
	}
}

func TestInvoke_FindingsIsNotAnError(t *testing.T) {
	mock := &mockCmd{results: []mockResult{{ExitCode: 1, Stderr: "leaks found: 3"}}}
	inv := NewInvoker(mock, Options{Display: "Gitleaks"}, nil)

	code, err := inv.Invoke(context.Background(), scanArgs)
	if err != nil {
		t.Fatalf("exit status 1 must not be an error, got %v", err)
	}
	if code != 1 {
		t.Errorf("expected exit code 1 to propagate, got %d", code)
	}
}

func TestInvoke_ToolFailure(t *testing.T) {
	tests := []struct {
		name        string
		result      mockResult
		explanation string
	}{
		{
			name:        "error line in stderr",
			result:      mockResult{ExitCode: 2, Stderr: "12:00PM INF scanning\nError: unknown flag: --nope\nUsage: gitleaks detect"},
			explanation: "Error: unknown flag: --nope",
		},
		{
			name:        "no error line",
			result:      mockResult{ExitCode: 126, Stderr: "permission denied"},
			explanation: "An unknown error occurred.",
		},
		{
			name:        "killed by signal",
			result:      mockResult{ExitCode: -1},
			explanation: "An unknown error occurred.",
		},
		{
			name:        "could not start",
			result:      mockResult{ExitCode: -1, Err: errors.New(`exec: "/app/gitleaks": no such file or directory`)},
			explanation: `Error: exec: "/app/gitleaks": no such file or directory`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockCmd{results: []mockResult{tt.result}}
			inv := NewInvoker(mock, Options{Display: "Gitleaks"}, nil)

			_, err := inv.Invoke(context.Background(), scanArgs)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var te *ToolError
			if !errors.As(err, &te) {
				t.Fatalf("expected *ToolError, got %T", err)
			}
			if te.Explanation != tt.explanation {
				t.Errorf("Explanation = %q, want %q", te.Explanation, tt.explanation)
			}

			env := envelope.FromError(err)
			if env.ExitCode != 2 {
				t.Errorf("envelope exit code = %d, want 2", env.ExitCode)
			}
			want := "Gitleaks scan failed!\nCommand: " + strings.Join(scanArgs, " ") + "\n" + tt.explanation
			if env.ErrorMessage != want {
				t.Errorf("message = %q, want %q", env.ErrorMessage, want)
			}
		})
	}
}

func TestInvoke_Timeout(t *testing.T) {
	inv := NewInvoker(blockingCmd{}, Options{Display: "Gitleaks", Timeout: 20 * time.Millisecond}, nil)

	_, err := inv.Invoke(context.Background(), scanArgs)
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected *ToolError, got %v", err)
	}
	if !strings.Contains(te.Explanation, "timeout after 20ms") {
		t.Errorf("unexpected explanation %q", te.Explanation)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected error to wrap context.DeadlineExceeded")
	}
}

func TestInvoke_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := NewInvoker(blockingCmd{}, Options{Display: "Gitleaks"}, nil)
	_, err := inv.Invoke(ctx, scanArgs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecRunner(t *testing.T) {
	r := &ExecRunner{}

	stdout, stderr, code, err := r.Run(context.Background(), []string{"sh", "-c", "echo out; echo 'Error: bad config' >&2; exit 3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
	if strings.TrimSpace(stdout) != "out" {
		t.Errorf("stdout = %q", stdout)
	}
	if ExtractErrorMessage(stderr) != "Error: bad config" {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExecRunner_StartFailure(t *testing.T) {
	r := &ExecRunner{}
	_, _, code, err := r.Run(context.Background(), []string{"/nonexistent/leakgate-test-binary"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if code != -1 {
		t.Errorf("expected exit code -1, got %d", code)
	}
}

func TestExecRunner_EmptyCommand(t *testing.T) {
	r := &ExecRunner{}
	if _, _, _, err := r.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}
