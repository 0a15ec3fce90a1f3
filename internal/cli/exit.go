package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/leakgate/internal/envelope"
)

// ExitError carries the process exit code of a failure whose envelope has
// already been printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return envelope.ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return envelope.ExitFailure
}

// report prints err's envelope on stdout and returns it as an *ExitError.
func report(cmd *cobra.Command, err error) error {
	env := envelope.FromError(err)
	if werr := env.Write(cmd.OutOrStdout()); werr != nil {
		return &ExitError{Code: env.ExitCode, Err: errors.Join(err, werr)}
	}
	return &ExitError{Code: env.ExitCode, Err: err}
}
