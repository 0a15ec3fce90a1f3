// Package sarif renders a findings report as a SARIF 2.1.0 log.
package sarif

import (
	"strconv"
	"strings"

	"github.com/lucasnoah/leakgate/internal/results"
)

const (
	Version = "2.1.0"
	Schema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine,omitempty"`
}

// FromReport converts a normalized report. Every leaked secret is an error;
// the description doubles as rule id since the report carries no rule names.
func FromReport(r *results.Report, toolName, toolVersion string) *Log {
	out := make([]Result, 0, len(r.Findings))
	for _, f := range r.Findings {
		start, end := parseRange(f.LineRange)
		uri := strings.TrimPrefix(f.Filename, "/")
		if strings.TrimSpace(uri) == "" {
			uri = "UNKNOWN"
		}
		out = append(out, Result{
			RuleID:  f.Description,
			Level:   "error",
			Message: Message{Text: f.Description},
			Locations: []Location{
				{
					PhysicalLocation: PhysicalLocation{
						ArtifactLocation: ArtifactLocation{URI: uri},
						Region:           Region{StartLine: start, EndLine: end},
					},
				},
			},
		})
	}

	return &Log{
		Version: Version,
		Schema:  Schema,
		Runs: []Run{
			{
				Tool:    Tool{Driver: Driver{Name: toolName, Version: toolVersion}},
				Results: out,
			},
		},
	}
}

// parseRange splits "start-end". SARIF lines are 1-based, so anything below 1
// is clamped to 1 and an end before start is dropped.
func parseRange(lr string) (int, int) {
	a, b, _ := strings.Cut(lr, "-")
	start, err := strconv.Atoi(a)
	if err != nil || start < 1 {
		start = 1
	}
	end, err := strconv.Atoi(b)
	if err != nil || end < start {
		end = 0
	}
	return start, end
}
