package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lucasnoah/leakgate/internal/config"
	"github.com/lucasnoah/leakgate/internal/db"
	"github.com/lucasnoah/leakgate/internal/envelope"
	"github.com/lucasnoah/leakgate/internal/logging"
	"github.com/lucasnoah/leakgate/internal/pipeline"
	"github.com/lucasnoah/leakgate/internal/scanner"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

// newCommandRunner is replaced in tests.
var newCommandRunner = func() scanner.CommandRunner { return &scanner.ExecRunner{} }

var rootCmd = &cobra.Command{
	Use:   "leakgate <scanner command...>",
	Short: "leakgate: run a secret scanner and report its findings as JSON",
	Long: `leakgate checks that the source mount is populated, runs the secret scanner
command given on the command line, and prints its findings in a stable JSON
shape. Every failure is reported as a JSON envelope with an exit code:
1 for environment, result-file and format problems, 2 when the scanner fails.

All arguments are passed to the scanner untouched; use "leakgate help" for
this text.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
	RunE:               runScan,
}

// ExecuteContext runs the CLI with ctx, which cancels a running scan.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dbCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadRunConfig()
	if err != nil {
		return report(cmd, err)
	}
	log := newLogger(cfg)
	defer log.Sync() //nolint:errcheck

	recorder, cleanup := openRecorder(ctx, cfg, log)
	defer cleanup()

	p, err := pipeline.New(pipeline.Options{
		Config:   cfg,
		Runner:   newCommandRunner(),
		Recorder: recorder,
		Logger:   log,
		Version:  version,
	})
	if err != nil {
		return report(cmd, err)
	}

	res, err := p.Run(ctx, args)
	if err != nil {
		return report(cmd, err)
	}
	return pipeline.WriteResult(out, cfg.Scanner.Display, res)
}

// loadRunConfig loads the default config and rejects an invalid one with a
// coded error.
func loadRunConfig() (*config.Config, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, envelope.Wrap(envelope.ExitFailure, "Invalid configuration", err)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, envelope.Wrap(envelope.ExitFailure,
			fmt.Sprintf("Invalid configuration: %s", errs[0]), errors.Join(joined...))
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.SugaredLogger {
	log, err := logging.New(cfg.Log.Debug)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log
}

// connectTimeout bounds the initial database connection.
const connectTimeout = 10 * time.Second

// openRecorder returns a run recorder when a database is configured. A
// database that cannot be reached only disables recording.
func openRecorder(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (pipeline.Recorder, func()) {
	if cfg.Database.URL == "" {
		return nil, func() {}
	}
	d, err := openDB(ctx, cfg.Database.URL)
	if err != nil {
		log.Warnw("run history disabled", "error", err)
		return nil, func() {}
	}
	return &pipeline.DBRecorder{DB: d}, d.Close
}

// openDB opens and migrates the DB.
func openDB(ctx context.Context, url string) (*db.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	d, err := db.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}
