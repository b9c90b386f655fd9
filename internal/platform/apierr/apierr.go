package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodePermissionDenied = "permission_denied"
	CodeInvalidRequest   = "invalid_request"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeUnauthorized     = "unauthorized"
	CodeInternal         = "internal"
)

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrPermissionDenied = &Error{Status: http.StatusForbidden, Code: CodePermissionDenied}
	ErrInvalidRequest   = &Error{Status: http.StatusBadRequest, Code: CodeInvalidRequest}
	ErrNotFound         = &Error{Status: http.StatusNotFound, Code: CodeNotFound}
	ErrConflict         = &Error{Status: http.StatusConflict, Code: CodeConflict}
	ErrUnauthorized     = &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized}
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

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code != "" && e.Code == t.Code
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func PermissionDenied(format string, args ...any) *Error {
	return New(http.StatusForbidden, CodePermissionDenied, fmt.Errorf(format, args...))
}

func InvalidRequest(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, CodeConflict, fmt.Errorf(format, args...))
}

func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, fmt.Errorf(format, args...))
}

// From maps err onto the boundary error taxonomy. Errors outside the taxonomy
// become an opaque 500 so internal detail never reaches the client.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae
	}
	return New(http.StatusInternalServerError, CodeInternal, errors.New("Internal server error"))
}
