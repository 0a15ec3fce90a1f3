// Package results turns the scanner's raw result file into the stable report.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/lucasnoah/leakgate/internal/envelope"
)

// ExtractFailedMessage is the only message callers see for any LoadError.
const ExtractFailedMessage = "Something is wrong with extracting the data"

// LoadErrorKind says why the result file could not be loaded.
type LoadErrorKind int

const (
	NotFound LoadErrorKind = iota
	ReadFailed
	ParseFailed
)

func (k LoadErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case ReadFailed:
		return "read failed"
	case ParseFailed:
		return "parse failed"
	}
	return "unknown"
}

// LoadError is returned by Load. Kind and Err are kept for logs; the public
// message does not distinguish them.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error         { return e.Err }
func (e *LoadError) ExitCode() int         { return envelope.ExitFailure }
func (e *LoadError) PublicMessage() string { return ExtractFailedMessage }

// Load reads the JSON array of objects at path. Values are copied as decoded;
// numbers stay json.Number so nothing is rounded before validation.
func Load(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: NotFound, Path: path, Err: err}
		}
		return nil, &LoadError{Kind: ReadFailed, Path: path, Err: err}
	}

	records, err := decode(data)
	if err != nil {
		return nil, &LoadError{Kind: ParseFailed, Path: path, Err: err}
	}
	return records, nil
}

func decode(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("top-level value is %s, want array", kindOf(doc))
	}

	records := make([]map[string]any, 0, len(items))
	for i, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d is %s, want object", i, kindOf(item))
		}
		records = append(records, rec)
	}
	return records, nil
}

// kindOf names the JSON type of a decoded value.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
