// Package scanner invokes the external secret scanner and classifies how it exited.
package scanner

import (
	"fmt"
	"strings"

	"github.com/lucasnoah/leakgate/internal/envelope"
)

// ResolveCommand returns a copy of args whose first token is replaced by
// binary when it mentions name. An empty args yields an empty, non-nil slice.
func ResolveCommand(args []string, name, binary string) []string {
	out := make([]string, len(args))
	copy(out, args)
	if len(out) > 0 && name != "" && strings.Contains(out[0], name) {
		out[0] = binary
	}
	return out
}

// unknownError is reported when the scanner's stderr has no Error: line.
const unknownError = "An unknown error occurred."

// ExtractErrorMessage returns the first stderr line that starts with "Error:".
func ExtractErrorMessage(stderr string) string {
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "Error:") {
			return line
		}
	}
	return unknownError
}

// ToolError reports a scanner that did not complete its scan.
type ToolError struct {
	Display     string
	Command     []string
	Status      int
	Explanation string
	Stderr      string
	Err         error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %s", e.Display, e.Status, e.Explanation)
}

func (e *ToolError) Unwrap() error { return e.Err }
func (e *ToolError) ExitCode() int { return envelope.ExitTooling }

func (e *ToolError) PublicMessage() string {
	return fmt.Sprintf("%s scan failed!\nCommand: %s\n%s",
		e.Display, strings.Join(e.Command, " "), e.Explanation)
}
