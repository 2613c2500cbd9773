// File: internal/engine/errors.go

package engine

import (
	"errors"
	"fmt"
)

// ErrorCode is a string type used for structured error reporting from graph
// and analysis operations. Using a custom type ensures that only predefined
// constants can be used where an ErrorCode is expected.
type ErrorCode string

const (
	// -- Graph structure errors --
	ErrCodeNodeNotFound  ErrorCode = "NODE_NOT_FOUND"
	ErrCodeDuplicateNode ErrorCode = "DUPLICATE_NODE"
	ErrCodePortNotFound  ErrorCode = "PORT_NOT_FOUND"
	ErrCodePortOccupied  ErrorCode = "PORT_OCCUPIED"
	ErrCodePortMapped    ErrorCode = "PORT_MAPPED"
	ErrCodeCycleDetected ErrorCode = "CYCLE_DETECTED"

	// -- Analysis errors --
	ErrCodeAnalysisFailure ErrorCode = "ANALYSIS_FAILURE"
	ErrCodeWrongLightData  ErrorCode = "WRONG_LIGHT_DATA"
	ErrCodeNotImplemented  ErrorCode = "NOT_IMPLEMENTED"
	ErrCodeNotInvertible   ErrorCode = "NOT_INVERTIBLE"

	// -- Property errors --
	ErrCodeUnknownProperty   ErrorCode = "UNKNOWN_PROPERTY"
	ErrCodeWrongPropertyType ErrorCode = "WRONG_PROPERTY_TYPE"
	ErrCodeReadOnlyProperty  ErrorCode = "READ_ONLY_PROPERTY"

	// -- General --
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
)

// Error carries an ErrorCode alongside a human-readable message and an
// optional cause.
type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error from a code and a format string.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and context message to an underlying error.
func WrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the ErrorCode from err, or empty when err carries none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
