package apperr

import (
	"errors"
	"net/http"
)

// Error is a domain error carrying a machine-readable code and the HTTP
// status it maps to. Callers branch on Code, never on message text.
type Error struct {
	Code    string
	Status  int
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func New(status int, code string) *Error {
	return &Error{Code: code, Status: status}
}

func BadRequest(code string) *Error {
	return New(http.StatusBadRequest, code)
}

func Unauthorized(code string) *Error {
	return New(http.StatusUnauthorized, code)
}

func Forbidden(code string) *Error {
	return New(http.StatusForbidden, code)
}

func NotFound(code string) *Error {
	return New(http.StatusNotFound, code)
}

func Conflict(code string) *Error {
	return New(http.StatusConflict, code)
}

// Upstream marks a failure of the external payment processor.
func Upstream(code string) *Error {
	return New(http.StatusBadGateway, code)
}

func (e *Error) WithMessage(msg string) *Error {
	clone := *e
	clone.Message = msg
	return &clone
}

func (e *Error) WithDetails(details map[string]interface{}) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// From extracts an *Error from err, wrapping anything unrecognized as a 500.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Code: "internal_error", Status: http.StatusInternalServerError, Message: err.Error()}
}

// CodeOf returns the machine code of err, or "internal_error".
func CodeOf(err error) string {
	return From(err).Code
}
