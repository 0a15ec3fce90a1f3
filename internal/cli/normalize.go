package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/leakgate/internal/pipeline"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <result-file>",
	Short: "Normalize an existing scanner result file without scanning",
	Long: `Loads a scanner result file, validates every record and prints the
normalized report. Failures are printed as the same JSON envelope a scan uses.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig()
		if err != nil {
			return report(cmd, err)
		}
		log := newLogger(cfg)
		defer log.Sync() //nolint:errcheck

		p, err := pipeline.New(pipeline.Options{Config: cfg, Logger: log, Version: version})
		if err != nil {
			return report(cmd, err)
		}

		r, err := p.Normalize(args[0])
		if err != nil {
			return report(cmd, err)
		}
		out, err := r.JSON()
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}
