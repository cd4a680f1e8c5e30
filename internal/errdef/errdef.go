// Package errdef defines the error kinds shared by every scurl package.
package errdef

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies an error so the CLI can pick a diagnostic and exit status.
type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeConfig        Code = "config"
	CodeUsage         Code = "usage"
	CodeTransport     Code = "transport"
	CodeParse         Code = "parse"
	CodeRedirectLimit Code = "redirect-limit"
	CodeHistory       Code = "history"
)

// Error is a coded error with an optional message and cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap annotates err with a code and optional message. It returns nil when
// err is nil.
func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: ensureCode(code), Message: msg, Err: err}
}

// New creates a formatted error with the supplied code.
func New(code Code, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: ensureCode(code), Message: msg}
}

// CodeOf extracts the outermost code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// Message returns the error text without the code prefix of the outermost
// coded error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if stdErrors.As(err, &e) {
		switch {
		case e.Err != nil && e.Message != "":
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		case e.Err != nil:
			return e.Err.Error()
		case e.Message != "":
			return e.Message
		}
	}
	return err.Error()
}

func ensureCode(code Code) Code {
	if code == "" {
		return CodeUnknown
	}
	return code
}
