// Package analytics summarizes recorded scan runs.
package analytics

import (
	"math"
	"sort"

	"github.com/lucasnoah/leakgate/internal/db"
	"github.com/lucasnoah/leakgate/internal/envelope"
)

// RunSummary holds outcome and duration stats for a set of runs.
type RunSummary struct {
	Runs          int     `json:"runs"`
	Clean         int     `json:"clean"`
	WithFindings  int     `json:"with_findings"`
	Failed        int     `json:"failed"`
	ToolFailures  int     `json:"tool_failures"`
	FailedPct     float64 `json:"failed_pct"`
	TotalFindings int     `json:"total_findings"`
	AvgMs         float64 `json:"avg_ms"`
	P50Ms         float64 `json:"p50_ms"`
	P95Ms         float64 `json:"p95_ms"`
}

// Summarize computes a RunSummary. Failed counts every run that ended in an
// envelope; ToolFailures is the subset where the scanner itself failed.
func Summarize(runs []db.ScanRun) RunSummary {
	s := RunSummary{Runs: len(runs)}
	durations := make([]float64, 0, len(runs))

	for _, r := range runs {
		durations = append(durations, float64(r.DurationMs))
		switch {
		case r.ExitCode == envelope.ExitTooling:
			s.Failed++
			s.ToolFailures++
		case r.ExitCode != envelope.ExitOK:
			s.Failed++
		case r.FindingCount > 0:
			s.WithFindings++
		default:
			s.Clean++
		}
		s.TotalFindings += r.FindingCount
	}

	sort.Float64s(durations)
	s.FailedPct = pct(s.Failed, s.Runs)
	s.AvgMs = avg(durations)
	s.P50Ms = percentile(durations, 50)
	s.P95Ms = percentile(durations, 95)
	return s
}

// ErrorCount is how often one error message ended a run.
type ErrorCount struct {
	Message string  `json:"message"`
	Count   int     `json:"count"`
	Pct     float64 `json:"pct"`
}

// TopErrors returns the most frequent error messages among failed runs,
// most frequent first. Ties sort by message. limit <= 0 returns all.
func TopErrors(runs []db.ScanRun, limit int) []ErrorCount {
	counts := make(map[string]int)
	failed := 0
	for _, r := range runs {
		if r.ExitCode == envelope.ExitOK {
			continue
		}
		failed++
		counts[r.ErrorMessage]++
	}

	results := make([]ErrorCount, 0, len(counts))
	for msg, n := range counts {
		results = append(results, ErrorCount{Message: msg, Count: n, Pct: pct(n, failed)})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].Message < results[j].Message
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
