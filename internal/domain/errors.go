// Package domain defines the failure taxonomy shared by all services.
package domain

import (
	"errors"
	"net/http"
)

// Error is a service failure carrying the HTTP status it maps to and an
// optional structured detail for the response body.
type Error struct {
	Status  int
	Message string
	Detail  any
}

func (e *Error) Error() string { return e.Message }

func BadRequest(msg string) error { return &Error{Status: http.StatusBadRequest, Message: msg} }

func NotFound(msg string) error { return &Error{Status: http.StatusNotFound, Message: msg} }

func Conflict(msg string) error { return &Error{Status: http.StatusConflict, Message: msg} }

func Forbidden(msg string, detail any) error {
	return &Error{Status: http.StatusForbidden, Message: msg, Detail: detail}
}

func Unauthorized(msg string) error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// AsError unwraps err to a *Error, or wraps it as a 500.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Status: http.StatusInternalServerError, Message: "internal error"}
}
