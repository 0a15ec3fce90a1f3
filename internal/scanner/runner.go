package scanner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandRunner abstracts process execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, args []string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner with os/exec. args[0] is the program.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, args []string) (string, string, int, error) {
	if len(args) == 0 {
		return "", "", -1, errors.New("exec: empty command")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// Exit statuses the scanner uses for a completed scan.
const (
	StatusClean    = 0
	StatusFindings = 1
)

// Options configures an Invoker.
type Options struct {
	Display string        // scanner name used in diagnostics
	Timeout time.Duration // zero waits for the scanner indefinitely
}

// Invoker runs the scanner and classifies its exit status.
type Invoker struct {
	cmd  CommandRunner
	opts Options
	log  *zap.SugaredLogger
}

// NewInvoker creates an Invoker with the given command runner.
func NewInvoker(cmd CommandRunner, opts Options, log *zap.SugaredLogger) *Invoker {
	if opts.Display == "" {
		opts.Display = "Scanner"
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Invoker{cmd: cmd, opts: opts, log: log}
}

// Invoke runs args and blocks until the process exits. Status 0 and status 1
// (findings present) are returned as-is; anything else is a *ToolError.
func (i *Invoker) Invoke(ctx context.Context, args []string) (int, error) {
	if i.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.opts.Timeout)
		defer cancel()
	}

	i.log.Debugw("starting scanner", "command", strings.Join(args, " "))
	start := time.Now()
	stdout, stderr, exitCode, err := i.cmd.Run(ctx, args)
	elapsed := time.Since(start)

	i.log.Debugw("scanner exited",
		"exit_code", exitCode,
		"duration", elapsed.String(),
		"stdout_bytes", len(stdout),
		"stderr_tail", tail(stderr))

	if ctxErr := ctx.Err(); ctxErr != nil {
		explanation := fmt.Sprintf("Error: scan cancelled: %v", ctxErr)
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			explanation = fmt.Sprintf("Error: timeout after %s", i.opts.Timeout)
		}
		return exitCode, i.toolError(args, exitCode, explanation, stderr, ctxErr)
	}
	if err != nil {
		return exitCode, i.toolError(args, exitCode, "Error: "+err.Error(), stderr, err)
	}

	switch exitCode {
	case StatusClean, StatusFindings:
		return exitCode, nil
	}
	return exitCode, i.toolError(args, exitCode, ExtractErrorMessage(stderr), stderr, nil)
}

func (i *Invoker) toolError(args []string, status int, explanation, stderr string, err error) *ToolError {
	te := &ToolError{
		Display:     i.opts.Display,
		Command:     append([]string(nil), args...),
		Status:      status,
		Explanation: explanation,
		Stderr:      stderr,
		Err:         err,
	}
	i.log.Warnw("scanner failed", "exit_code", status, "error", explanation)
	return te
}

// maxOutputLen caps how much stderr is kept in debug logs.
const maxOutputLen = 8000

// tail keeps the end of s, where error summaries usually are.
func tail(s string) string {
	if len(s) > maxOutputLen {
		return "…(truncated)\n" + s[len(s)-maxOutputLen:]
	}
	return s
}
