package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the closed set of failure codes the use-case layer can
// raise. Callers branch on the code, never on message text.
type ErrorCode string

const (
	CodeInvalidLocation       ErrorCode = "invalid_location"
	CodeDuplicateLocationName ErrorCode = "duplicate_location_name"
	CodeDuplicateAisleName    ErrorCode = "duplicate_aisle_name"
	CodeDeleteDefaultAisle    ErrorCode = "delete_default_aisle"
	CodeDuplicateProduct      ErrorCode = "duplicate_product"
	CodeDuplicateProductName  ErrorCode = "duplicate_product_name"
	CodeAisleMove             ErrorCode = "aisle_move"
	CodeInvalidArgument       ErrorCode = "invalid_argument"
	CodeNotFound              ErrorCode = "not_found"
	CodeGeneric               ErrorCode = "generic"
)

// Error is the canonical domain error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a domain error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with domain error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return false
	}
	return domErr.Code == code
}

// CodeOf extracts the domain error code when available.
func CodeOf(err error) ErrorCode {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return ""
	}
	return domErr.Code
}
