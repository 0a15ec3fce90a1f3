// Package envelope defines the fixed JSON shape every fatal error is reported in.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // environment, data-access and schema errors
	ExitTooling = 2 // the external scanner failed
)

// Envelope is printed on stdout for every terminal error.
type Envelope struct {
	ExitCode     int    `json:"exit_code"`
	ErrorMessage string `json:"error_message"`
}

// Coded is implemented by errors that know their exit code and the message
// shown to the caller. The error string itself may carry more detail for logs.
type Coded interface {
	error
	ExitCode() int
	PublicMessage() string
}

// Error is a Coded error built from a code and message.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error         { return e.Err }
func (e *Error) ExitCode() int         { return e.Code }
func (e *Error) PublicMessage() string { return e.Message }

// Wrap returns a Coded error that keeps err for logging.
func Wrap(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// FromError converts err into an Envelope. Errors that do not implement
// Coded anywhere in their chain map to exit code 1 with err's text.
func FromError(err error) Envelope {
	var c Coded
	if errors.As(err, &c) {
		return Envelope{ExitCode: c.ExitCode(), ErrorMessage: c.PublicMessage()}
	}
	return Envelope{ExitCode: ExitFailure, ErrorMessage: err.Error()}
}

// JSON returns the envelope indented by four spaces.
func (e Envelope) JSON() (string, error) {
	data, err := json.MarshalIndent(e, "", "    ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write prints the envelope followed by a newline.
func (e Envelope) Write(w io.Writer) error {
	s, err := e.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
