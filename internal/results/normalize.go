package results

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/lucasnoah/leakgate/internal/envelope"
)

// InvalidFormatMessage is the public message for any SchemaError.
const InvalidFormatMessage = "Invalid format"

// Scanner-native field names.
const (
	FieldFile        = "File"
	FieldStartLine   = "StartLine"
	FieldEndLine     = "EndLine"
	FieldDescription = "Description"
)

// RawFinding is a validated scanner-native record.
type RawFinding struct {
	File        string
	StartLine   int
	EndLine     int
	Description string
}

// SchemaError reports the first record that does not match RawFinding.
type SchemaError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("record %d: field %q: %s", e.Index, e.Field, e.Reason)
}

func (e *SchemaError) ExitCode() int         { return envelope.ExitFailure }
func (e *SchemaError) PublicMessage() string { return InvalidFormatMessage }

// Normalizer validates raw records and projects them into Findings.
type Normalizer struct {
	// Prefix is stripped from every File. Files that do not start with it
	// are rejected.
	Prefix string
}

// Normalize validates every record, in order, and returns the report. The
// first invalid record aborts the whole batch; no partial report is returned.
func (n Normalizer) Normalize(records []map[string]any) (*Report, error) {
	report := &Report{Findings: make([]Finding, 0, len(records))}
	for i, rec := range records {
		raw, err := n.validate(i, rec)
		if err != nil {
			return nil, err
		}
		report.Findings = append(report.Findings, n.project(raw))
	}
	return report, nil
}

func (n Normalizer) validate(i int, rec map[string]any) (RawFinding, error) {
	var (
		raw RawFinding
		err error
	)
	if raw.File, err = stringField(i, rec, FieldFile); err != nil {
		return raw, err
	}
	if raw.StartLine, err = intField(i, rec, FieldStartLine); err != nil {
		return raw, err
	}
	if raw.EndLine, err = intField(i, rec, FieldEndLine); err != nil {
		return raw, err
	}
	if raw.Description, err = stringField(i, rec, FieldDescription); err != nil {
		return raw, err
	}

	// The strip below is fixed-length; refuse anything it would mangle.
	if !strings.HasPrefix(raw.File, n.Prefix) {
		return raw, &SchemaError{
			Index:  i,
			Field:  FieldFile,
			Reason: fmt.Sprintf("%q does not start with mount prefix %q", raw.File, n.Prefix),
		}
	}
	return raw, nil
}

func (n Normalizer) project(raw RawFinding) Finding {
	return Finding{
		Filename:    raw.File[len(n.Prefix):],
		LineRange:   fmt.Sprintf("%d-%d", raw.StartLine, raw.EndLine),
		Description: raw.Description,
	}
}

func stringField(i int, rec map[string]any, field string) (string, error) {
	v, ok := rec[field]
	if !ok || v == nil {
		return "", &SchemaError{Index: i, Field: field, Reason: "missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &SchemaError{Index: i, Field: field, Reason: fmt.Sprintf("is %s, want string", kindOf(v))}
	}
	return s, nil
}

func intField(i int, rec map[string]any, field string) (int, error) {
	v, ok := rec[field]
	if !ok || v == nil {
		return 0, &SchemaError{Index: i, Field: field, Reason: "missing"}
	}

	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			f = float64(n)
			break
		}
		parsed, err := t.Float64()
		if err != nil {
			return 0, &SchemaError{Index: i, Field: field, Reason: fmt.Sprintf("invalid number %s", t)}
		}
		f = parsed
	case float64:
		f = t
	default:
		return 0, &SchemaError{Index: i, Field: field, Reason: fmt.Sprintf("is %s, want integer", kindOf(v))}
	}

	if f != math.Trunc(f) {
		return 0, &SchemaError{Index: i, Field: field, Reason: fmt.Sprintf("%v is not an integer", f)}
	}
	// Line numbers are 32-bit whatever the JSON spelling.
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, &SchemaError{Index: i, Field: field, Reason: fmt.Sprintf("%v is out of range", f)}
	}
	return int(f), nil
}
