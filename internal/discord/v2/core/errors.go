package core

import (
	"errors"
	"fmt"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// HandlerError represents an error that occurred during handler execution
type HandlerError struct {
	// The underlying error
	Err error

	// User-friendly message to display
	UserMessage string

	// Whether this error should be shown to the user
	ShowToUser bool

	// HTTP-like status code for categorization
	Code int
}

// Error implements the error interface
func (e *HandlerError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrorCodeBadRequest  = 400
	ErrorCodeNotFound    = 404
	ErrorCodeConflict    = 409
	ErrorCodeTooMany     = 429
	ErrorCodeInternal    = 500
	ErrorCodeUnavailable = 503
)

const (
	internalMessage    = "An internal error occurred. Please try again later."
	unavailableMessage = "The sheet is not available yet. Please try again in a moment."
)

// NewHandlerError creates a new handler error
func NewHandlerError(err error, userMessage string, code int) *HandlerError {
	return &HandlerError{
		Err:         err,
		UserMessage: userMessage,
		ShowToUser:  true,
		Code:        code,
	}
}

// NewInternalError creates an internal error with a generic user message
func NewInternalError(err error) *HandlerError {
	return &HandlerError{
		Err:         err,
		UserMessage: internalMessage,
		ShowToUser:  true,
		Code:        ErrorCodeInternal,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *HandlerError {
	return &HandlerError{
		UserMessage: fmt.Sprintf("%s not found", resource),
		ShowToUser:  true,
		Code:        ErrorCodeNotFound,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *HandlerError {
	return &HandlerError{
		UserMessage: message,
		ShowToUser:  true,
		Code:        ErrorCodeBadRequest,
	}
}

// FromError maps an application error onto a HandlerError. Coded errors keep
// their message when it is safe to show; anything else becomes internal.
func FromError(err error) *HandlerError {
	if err == nil {
		return nil
	}

	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		return handlerErr
	}

	switch sheeterr.GetCode(err) {
	case sheeterr.CodeNotFound:
		return NewHandlerError(err, rootMessage(err), ErrorCodeNotFound)
	case sheeterr.CodeInvalidArgument, sheeterr.CodeMissingData:
		return NewHandlerError(err, rootMessage(err), ErrorCodeBadRequest)
	case sheeterr.CodeAlreadyExists:
		return NewHandlerError(err, rootMessage(err), ErrorCodeConflict)
	case sheeterr.CodeNotReady:
		return NewHandlerError(err, unavailableMessage, ErrorCodeUnavailable)
	default:
		return NewInternalError(err)
	}
}

// rootMessage returns the message of the innermost coded error
func rootMessage(err error) string {
	msg := err.Error()
	var coded *sheeterr.Error
	for errors.As(err, &coded) {
		msg = coded.Message
		if coded.Cause == nil {
			break
		}
		err = coded.Cause
	}
	return msg
}
