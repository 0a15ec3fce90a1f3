package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// recognizedFormats is the set of valid report file formats.
var recognizedFormats = map[string]bool{
	"json":  true,
	"sarif": true,
}

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	// Required fields
	if cfg.Scanner.Name == "" {
		errs = append(errs, ValidationError{Field: "scanner.name", Message: "is required"})
	}
	if cfg.Scanner.Path == "" {
		errs = append(errs, ValidationError{Field: "scanner.path", Message: "is required"})
	} else if !filepath.IsAbs(cfg.Scanner.Path) {
		errs = append(errs, ValidationError{
			Field:   "scanner.path",
			Message: fmt.Sprintf("must be absolute, got %q", cfg.Scanner.Path),
		})
	}
	if cfg.Mount.Path == "" {
		errs = append(errs, ValidationError{Field: "mount.path", Message: "is required"})
	}
	if cfg.Mount.Prefix == "" {
		errs = append(errs, ValidationError{Field: "mount.prefix", Message: "is required"})
	}
	if cfg.Result.Path == "" {
		errs = append(errs, ValidationError{Field: "result.path", Message: "is required"})
	}

	if cfg.Scanner.Timeout != "" {
		d, err := time.ParseDuration(cfg.Scanner.Timeout)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "scanner.timeout",
				Message: fmt.Sprintf("invalid duration %q", cfg.Scanner.Timeout),
			})
		} else if d < 0 {
			errs = append(errs, ValidationError{Field: "scanner.timeout", Message: "must not be negative"})
		}
	}

	if cfg.Report.Format != "" && !recognizedFormats[cfg.Report.Format] {
		errs = append(errs, ValidationError{
			Field:   "report.format",
			Message: fmt.Sprintf("unrecognized format %q", cfg.Report.Format),
		})
	}

	return errs
}
