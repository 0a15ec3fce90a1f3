// Package pipeline runs preflight, scan, load and normalize in order and
// stops at the first stage that fails.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucasnoah/leakgate/internal/config"
	"github.com/lucasnoah/leakgate/internal/envelope"
	"github.com/lucasnoah/leakgate/internal/preflight"
	"github.com/lucasnoah/leakgate/internal/results"
	"github.com/lucasnoah/leakgate/internal/sarif"
	"github.com/lucasnoah/leakgate/internal/scanner"
)

// Options configures a Pipeline.
type Options struct {
	Config   *config.Config
	Runner   scanner.CommandRunner
	Recorder Recorder // optional
	Logger   *zap.SugaredLogger
	Version  string
}

// Pipeline is one configured scan pipeline.
type Pipeline struct {
	cfg      *config.Config
	invoker  *scanner.Invoker
	recorder Recorder
	log      *zap.SugaredLogger
	version  string
}

// New builds a Pipeline. The config is expected to be validated already.
func New(opts Options) (*Pipeline, error) {
	timeout, err := opts.Config.ScanTimeout()
	if err != nil {
		return nil, envelope.Wrap(envelope.ExitFailure, "Invalid configuration", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	inv := scanner.NewInvoker(opts.Runner, scanner.Options{
		Display: opts.Config.Scanner.Display,
		Timeout: timeout,
	}, log)

	return &Pipeline{
		cfg:      opts.Config,
		invoker:  inv,
		recorder: opts.Recorder,
		log:      log,
		version:  opts.Version,
	}, nil
}

// Run executes the full pipeline with the caller's scanner argv. Every error
// returned implements envelope.Coded.
func (p *Pipeline) Run(ctx context.Context, args []string) (*Result, error) {
	cmd := scanner.ResolveCommand(args, p.cfg.Scanner.Name, p.cfg.Scanner.Path)
	run := Run{ID: uuid.New(), Command: cmd}
	log := p.log.With("run_id", run.ID.String())

	start := time.Now()
	res, err := p.run(ctx, log, cmd, &run)
	run.Duration = time.Since(start)
	run.Err = err
	if res != nil {
		run.Report = res.Report
	}

	p.record(ctx, log, run)
	return res, err
}

func (p *Pipeline) run(ctx context.Context, log *zap.SugaredLogger, cmd []string, run *Run) (*Result, error) {
	if err := preflight.CheckMount(p.cfg.Mount.Path); err != nil {
		log.Debugw("preflight failed", "error", err)
		return nil, fmt.Errorf("preflight: %w", err)
	}

	code, err := p.invoker.Invoke(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	run.ScanExitCode = &code

	report, err := p.normalize(log, p.cfg.Result.Path)
	if err != nil {
		return nil, err
	}

	if p.cfg.Report.Path != "" {
		if err := p.writeReport(report); err != nil {
			log.Errorw("writing report file", "path", p.cfg.Report.Path, "error", err)
		}
	}

	return &Result{ScanExitCode: code, Report: report}, nil
}

// Normalize loads and normalizes an existing result file without scanning.
func (p *Pipeline) Normalize(path string) (*results.Report, error) {
	return p.normalize(p.log, path)
}

func (p *Pipeline) normalize(log *zap.SugaredLogger, path string) (*results.Report, error) {
	records, err := results.Load(path)
	if err != nil {
		log.Debugw("loading results failed", "error", err)
		return nil, fmt.Errorf("load results: %w", err)
	}

	n := results.Normalizer{Prefix: p.cfg.Mount.Prefix}
	report, err := n.Normalize(records)
	if err != nil {
		log.Debugw("normalizing results failed", "error", err)
		return nil, fmt.Errorf("normalize results: %w", err)
	}
	log.Debugw("normalized results", "findings", len(report.Findings))
	return report, nil
}

func (p *Pipeline) writeReport(report *results.Report) error {
	if p.cfg.Report.Format == "sarif" {
		return WriteJSON(p.cfg.Report.Path, sarif.FromReport(report, "leakgate", p.version))
	}
	s, err := report.JSON()
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return WriteAtomic(p.cfg.Report.Path, []byte(s+"\n"))
}

// recordTimeout bounds how long a run may wait on the history store.
const recordTimeout = 10 * time.Second

func (p *Pipeline) record(ctx context.Context, log *zap.SugaredLogger, run Run) {
	if p.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := p.recorder.RecordRun(ctx, run); err != nil {
		log.Warnw("recording run failed", "error", err)
	}
}

// WriteResult prints the scan banner and the report.
func WriteResult(w io.Writer, display string, res *Result) error {
	out, err := res.Report.JSON()
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s finished its scan in mode: %d\n", display, res.ScanExitCode); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
