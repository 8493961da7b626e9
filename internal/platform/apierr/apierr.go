package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation            = "validation_error"
	CodeNotFound              = "not_found"
	CodeConflict              = "conflict"
	CodeUnauthorized          = "unauthorized"
	CodeTrackingCodeExhausted = "tracking_code_exhausted"
	CodeInternal              = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(msg string) *Error {
	return New(http.StatusBadRequest, CodeValidation, errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(msg))
}

func Conflict(code string, err error) *Error {
	return New(http.StatusConflict, code, err)
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg))
}

func Internal(code string, err error) *Error {
	return New(http.StatusInternalServerError, code, err)
}

// As extracts an *Error from err. Anything else is reported as an internal error.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae
	}
	return Internal(CodeInternal, err)
}

func IsStatus(err error, status int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae != nil && ae.Status == status
}
