// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clierr carries explicit process exit codes through the error chain
// so main() can stay a one-liner.
package clierr

import (
	"errors"
	"fmt"
)

// ExitCoder is any error that knows its process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError wraps a cause with an explicit exit code. It supports Unwrap so
// errors.Is/As traverse the chain.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// New creates an ExitError with a message.
func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

// Newf is the formatted variant.
func Newf(code int, format string, args ...any) error {
	return &ExitError{code: normalize(code), msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an ExitError around an underlying cause.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

func normalize(code int) int {
	// An error never maps to success.
	if code <= 0 {
		return 1
	}
	return code
}
