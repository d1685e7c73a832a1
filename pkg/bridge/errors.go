package bridge

import (
	"errors"
	"fmt"
	"time"
)

// Sentinels wrapped by ValidationError.
var (
	ErrFunctionNotFound = errors.New("function not found in source")
	ErrInvalidShape     = errors.New("invalid shape")
)

// ValidationError reports a request that was rejected before any R process
// was started.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SerializationError reports an argument that cannot be encoded for R.
type SerializationError struct {
	Arg    string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize argument %q: %s", e.Arg, e.Reason)
}

// Unwrap lets errors.As match a SerializationError as a ValidationError.
func (e *SerializationError) Unwrap() error {
	return &ValidationError{Field: "argument", Msg: e.Reason}
}

// InterpreterNotFoundError reports that the R front end could not be located.
type InterpreterNotFoundError struct {
	Binary string
	Err    error
}

func (e *InterpreterNotFoundError) Error() string {
	return fmt.Sprintf("R interpreter %q not found; install R or set the rscript path", e.Binary)
}

func (e *InterpreterNotFoundError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a failed R call: a nonzero exit or no output.
type ExecutionError struct {
	Function string
	ExitCode int
	Message  string
}

func (e *ExecutionError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("R call %s failed (exit %d): %s", e.Function, e.ExitCode, e.Message)
	}
	return fmt.Sprintf("R call %s failed: %s", e.Function, e.Message)
}

// TimeoutError reports an R process killed at the timeout.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("R call timed out after %s", e.Timeout)
}

// DecodeError reports output that could not be decoded. It always signals a
// defect in the generated script or the decoder.
type DecodeError struct {
	Snippet string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode R output %q: %v", e.Snippet, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

const snippetLen = 200

func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	return s[:snippetLen] + "..."
}
