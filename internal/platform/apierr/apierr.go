package apierr

import (
	"fmt"
	"net/http"

	"github.com/aisleron/aisleron-server/internal/domain"
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

// FromDomain translates the domain error taxonomy into an HTTP error.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	code := domain.CodeOf(err)
	switch code {
	case domain.CodeNotFound:
		return New(http.StatusNotFound, string(code), err)
	case domain.CodeDuplicateLocationName,
		domain.CodeDuplicateAisleName,
		domain.CodeDuplicateProduct,
		domain.CodeDuplicateProductName:
		return New(http.StatusConflict, string(code), err)
	case domain.CodeInvalidLocation,
		domain.CodeDeleteDefaultAisle,
		domain.CodeAisleMove,
		domain.CodeInvalidArgument:
		return New(http.StatusUnprocessableEntity, string(code), err)
	case domain.CodeGeneric:
		return New(http.StatusInternalServerError, string(code), err)
	default:
		return New(http.StatusInternalServerError, string(domain.CodeGeneric), err)
	}
}
