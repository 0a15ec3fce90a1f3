package results

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Finding is the stable output shape of one detected secret.
type Finding struct {
	Filename    string `json:"filename"`
	LineRange   string `json:"line_range"`
	Description string `json:"description"`
}

// Report is the document printed after a successful run.
type Report struct {
	Findings []Finding `json:"findings"`
}

// JSON returns the report indented by two spaces. Paths and descriptions are
// written without HTML escaping.
func (r *Report) JSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
