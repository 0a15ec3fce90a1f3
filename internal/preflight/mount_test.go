package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucasnoah/leakgate/internal/envelope"
)

func TestCheckMount(t *testing.T) {
	root := t.TempDir()

	populated := filepath.Join(root, "populated")
	if err := os.MkdirAll(populated, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(populated, "app.py"), []byte("print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(root, "empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}

	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		reason  Reason
		message string
	}{
		{"populated directory", populated, false, 0, ""},
		{"populated directory trailing slash", populated + "/", false, 0, ""},
		{"missing", filepath.Join(root, "nope"), true, ReasonMissing, "There was a problem with mounting to " + filepath.Join(root, "nope")},
		{"regular file", file, true, ReasonNotDir, "not a directory"},
		{"path through a file", filepath.Join(file, "sub"), true, ReasonUnreadable, "There was a problem with mounting to " + filepath.Join(file, "sub")},
		{"empty directory", empty + "/", true, ReasonEmpty, "The directory at " + empty + " is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMount(tt.path)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var me *MountError
			if !errors.As(err, &me) {
				t.Fatalf("expected *MountError, got %T", err)
			}
			if me.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s", me.Reason, tt.reason)
			}
			if !strings.Contains(me.PublicMessage(), tt.message) {
				t.Errorf("message %q does not contain %q", me.PublicMessage(), tt.message)
			}
			if tt.reason == ReasonUnreadable && strings.Contains(me.PublicMessage(), "no such directory") {
				t.Errorf("unreadable mount reported as missing: %q", me.PublicMessage())
			}

			env := envelope.FromError(err)
			if env.ExitCode != 1 {
				t.Errorf("exit code = %d, want 1", env.ExitCode)
			}
		})
	}
}
