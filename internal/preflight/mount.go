// Package preflight verifies the environment before a scan is started.
package preflight

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lucasnoah/leakgate/internal/envelope"
)

// Reason identifies which mount condition failed.
type Reason int

const (
	ReasonMissing Reason = iota
	ReasonNotDir
	ReasonEmpty
	ReasonUnreadable
)

func (r Reason) String() string {
	switch r {
	case ReasonMissing:
		return "missing"
	case ReasonNotDir:
		return "not a directory"
	case ReasonEmpty:
		return "empty"
	case ReasonUnreadable:
		return "unreadable"
	}
	return "unknown"
}

// MountError reports a mount directory that cannot be scanned.
type MountError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *MountError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.PublicMessage(), e.Err)
	}
	return e.PublicMessage()
}

func (e *MountError) Unwrap() error { return e.Err }
func (e *MountError) ExitCode() int { return envelope.ExitFailure }

func (e *MountError) PublicMessage() string {
	switch e.Reason {
	case ReasonNotDir:
		return fmt.Sprintf("There was a problem with mounting to %s: not a directory", e.Path)
	case ReasonEmpty:
		return fmt.Sprintf("The directory at %s is empty", e.Path)
	case ReasonUnreadable:
		return fmt.Sprintf("There was a problem with mounting to %s", e.Path)
	}
	return fmt.Sprintf("There was a problem with mounting to %s: no such directory", e.Path)
}

// CheckMount confirms path exists, is a directory and has at least one entry.
func CheckMount(path string) error {
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MountError{Path: clean, Reason: ReasonMissing}
		}
		return &MountError{Path: clean, Reason: ReasonUnreadable, Err: err}
	}
	if !info.IsDir() {
		return &MountError{Path: clean, Reason: ReasonNotDir}
	}

	f, err := os.Open(clean)
	if err != nil {
		return &MountError{Path: clean, Reason: ReasonUnreadable, Err: err}
	}
	defer f.Close()

	// One entry is enough to prove the mount is populated.
	if _, err := f.Readdirnames(1); err != nil {
		if errors.Is(err, io.EOF) {
			return &MountError{Path: clean, Reason: ReasonEmpty}
		}
		return &MountError{Path: clean, Reason: ReasonUnreadable, Err: err}
	}
	return nil
}
