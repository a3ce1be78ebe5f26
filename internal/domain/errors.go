// Package domain holds the agent log records and the error vocabulary shared
// by the stores, the logging service and both transports.
package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument    ErrorCode = "invalid_argument"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeUnauthenticated    ErrorCode = "unauthenticated"
	CodeFailedPrecondition ErrorCode = "failed_precondition"
	CodeUnavailable        ErrorCode = "unavailable"
	CodeInternal           ErrorCode = "internal"
)

type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func InvalidArgument(message string) *AppError {
	return &AppError{Code: CodeInvalidArgument, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message}
}

func FailedPrecondition(message string) *AppError {
	return &AppError{Code: CodeFailedPrecondition, Message: message}
}

func Unavailable(message string, cause error) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message, Cause: cause}
}

func Internal(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Cause: cause}
}

// AsAppError unwraps err until it finds an *AppError.
func AsAppError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var typed *AppError
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// CodeOf reports the code carried by err. Errors that are not an *AppError
// are treated as internal.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
