// Package errors defines the service error taxonomy. Every failure the core
// surfaces is a well-formed rejection carrying a stable code and the HTTP
// status it renders as; there is no fatal class.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class on the wire.
type Code string

const (
	CodeValidation      Code = "VALIDATION_FAILURE"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeAuthFailed      Code = "AUTHENTICATION_FAILURE"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

// ServiceError is the error type all service operations propagate to the
// transport boundary.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a key/value pair for diagnostics. Details are logged,
// never rendered to unauthenticated callers.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Validation reports malformed input shape.
func Validation(message string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Unauthenticated reports a missing, invalid, or expired credential, or a
// credential referring to a vanished user. The message is generic so the
// cause never leaks.
func Unauthenticated(message string) *ServiceError {
	if message == "" {
		message = "could not validate credentials"
	}
	return &ServiceError{Code: CodeUnauthenticated, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// InvalidToken wraps a token verification failure as Unauthenticated,
// keeping the generic message on the wire and the cause for logs.
func InvalidToken(err error) *ServiceError {
	e := Unauthenticated("")
	e.Err = err
	return e
}

// AuthenticationFailed reports a username/password mismatch. Unknown user
// and wrong password share this one message.
func AuthenticationFailed() *ServiceError {
	return &ServiceError{
		Code:       CodeAuthFailed,
		Message:    "invalid username or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden reports an authenticated caller operating on a resource they do
// not own.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "not the owner of this resource"
	}
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// NotFound reports an id with no backing record.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Internal reports an unexpected failure from a collaborator.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// GetServiceError extracts a *ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
