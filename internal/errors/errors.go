// Package errors provides coded errors for the sheet stack. The code travels
// through wraps so the Discord layer can decide what a user may see.
package errors

import (
	"errors"
	"fmt"
	"maps"
)

// Code categorizes an error
type Code string

const (
	CodeUnknown         Code = "unknown"
	CodeInvalidArgument Code = "invalid_argument"
	CodeNotFound        Code = "not_found"
	CodeAlreadyExists   Code = "already_exists"
	CodeInternal        Code = "internal"
	// CodeNotReady marks a host capability requested before the host provided it
	CodeNotReady Code = "not_ready"
	// CodeMissingData marks a submission that lacks a required section
	CodeMissingData Code = "missing_data"
)

// Error is an application error with a code and optional metadata such as
// the actor id or template path involved
type Error struct {
	Code    Code
	Message string
	Cause   error
	Meta    map[string]any
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta records a key on the error and returns it
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any, 1)
	}
	e.Meta[key] = value
	return e
}

func newf(code Code, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Message: msg}
}

func NotFoundf(format string, args ...any) *Error {
	return newf(CodeNotFound, format, args...)
}

func InvalidArgument(message string) *Error {
	return newf(CodeInvalidArgument, "%s", message)
}

func InvalidArgumentf(format string, args ...any) *Error {
	return newf(CodeInvalidArgument, format, args...)
}

func AlreadyExistsf(format string, args ...any) *Error {
	return newf(CodeAlreadyExists, format, args...)
}

// NotReady reports a host capability that is not available yet
func NotReady(message string) *Error {
	return newf(CodeNotReady, "%s", message)
}

// MissingData reports input that lacks a required section
func MissingData(message string) *Error {
	return newf(CodeMissingData, "%s", message)
}

// Wrap adds context to err. A coded cause keeps its code and metadata;
// anything else is CodeUnknown. Wrapping nil returns nil.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := &Error{Code: CodeUnknown, Message: message, Cause: err}
	var coded *Error
	if errors.As(err, &coded) {
		wrapped.Code = coded.Code
		wrapped.Meta = maps.Clone(coded.Meta)
	}
	return wrapped
}

func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the code of the outermost coded error in err's chain
func GetCode(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

// GetMeta returns the metadata of the outermost coded error
func GetMeta(err error) map[string]any {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Meta
	}
	return nil
}

func IsNotFound(err error) bool        { return GetCode(err) == CodeNotFound }
func IsInvalidArgument(err error) bool { return GetCode(err) == CodeInvalidArgument }
func IsAlreadyExists(err error) bool   { return GetCode(err) == CodeAlreadyExists }
func IsNotReady(err error) bool        { return GetCode(err) == CodeNotReady }
func IsMissingData(err error) bool     { return GetCode(err) == CodeMissingData }
