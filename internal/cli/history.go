package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lucasnoah/leakgate/internal/analytics"
	"github.com/lucasnoah/leakgate/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scan runs from the run history database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		stats, _ := cmd.Flags().GetBool("stats")
		runFlag, _ := cmd.Flags().GetString("run")

		var runID uuid.UUID
		if runFlag != "" {
			id, err := uuid.Parse(runFlag)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", runFlag, err)
			}
			runID = id
		}

		d, err := openConfiguredDB(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if runFlag != "" {
			r, err := d.GetScanRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("no scan run with id %s", runID)
			}
			return printRun(cmd.OutOrStdout(), r)
		}

		runs, err := d.GetScanHistory(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("get scan history: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "No scan runs found.")
			return nil
		}
		if stats {
			printStats(w, runs)
			return nil
		}

		fmt.Fprintf(w, "%-20s %-8s %-5s %-5s %-8s %-9s %s\n",
			"TIME", "RUN", "SCAN", "EXIT", "FINDINGS", "DURATION", "ERROR")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))

		for _, r := range runs {
			scan := "-"
			if r.ScanExitCode != nil {
				scan = fmt.Sprintf("%d", *r.ScanExitCode)
			}
			msg := strings.SplitN(r.ErrorMessage, "\n", 2)[0]
			fmt.Fprintf(w, "%-20s %-8s %-5s %-5d %-8d %-9s %s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.RunID.String()[:8], scan, r.ExitCode, r.FindingCount,
				fmt.Sprintf("%dms", r.DurationMs), msg)
		}
		return nil
	},
}

// printRun shows one recorded run including its stored report.
func printRun(w io.Writer, r *db.ScanRun) error {
	scan := "-"
	if r.ScanExitCode != nil {
		scan = fmt.Sprintf("%d", *r.ScanExitCode)
	}
	fmt.Fprintf(w, "Run:        %s\n", r.RunID)
	fmt.Fprintf(w, "Time:       %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Command:    %s\n", r.Command)
	fmt.Fprintf(w, "Scan exit:  %s\n", scan)
	fmt.Fprintf(w, "Exit code:  %d\n", r.ExitCode)
	fmt.Fprintf(w, "Findings:   %d\n", r.FindingCount)
	fmt.Fprintf(w, "Duration:   %dms\n", r.DurationMs)
	if r.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:\n%s\n", r.ErrorMessage)
	}
	if len(r.Findings) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Findings, "", "  "); err != nil {
		return fmt.Errorf("format stored report: %w", err)
	}
	fmt.Fprintf(w, "Report:\n%s\n", buf.String())
	return nil
}

func printStats(w io.Writer, runs []db.ScanRun) {
	s := analytics.Summarize(runs)
	fmt.Fprintf(w, "Runs:           %d\n", s.Runs)
	fmt.Fprintf(w, "Clean:          %d\n", s.Clean)
	fmt.Fprintf(w, "With findings:  %d (%d findings)\n", s.WithFindings, s.TotalFindings)
	fmt.Fprintf(w, "Failed:         %d (%.1f%%, %d scanner failures)\n", s.Failed, s.FailedPct, s.ToolFailures)
	fmt.Fprintf(w, "Duration:       avg %.1fms  p50 %.1fms  p95 %.1fms\n", s.AvgMs, s.P50Ms, s.P95Ms)

	top := analytics.TopErrors(runs, 5)
	if len(top) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-6s %-6s %s\n", "COUNT", "PCT", "ERROR")
	for _, e := range top {
		fmt.Fprintf(w, "%-6d %-6.1f %s\n", e.Count, e.Pct, strings.SplitN(e.Message, "\n", 2)[0])
	}
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().String("run", "", "show one run by its id")
	historyCmd.Flags().Bool("stats", false, "summarize outcomes and durations instead of listing runs")
}
