package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes assembly failures.
type ErrorCode string

const (
	// ErrCodeInvalidVariable indicates an unknown variable, or one the
	// catalog does not list for a requested cycle.
	ErrCodeInvalidVariable ErrorCode = "INVALID_VARIABLE"

	// ErrCodeInvalidYear indicates an unsupported cycle label.
	ErrCodeInvalidYear ErrorCode = "INVALID_YEAR"

	// ErrCodeInvalidRequest indicates a bad join key or join mode.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrCodeRetrievalFailure indicates a file could not be downloaded.
	ErrCodeRetrievalFailure ErrorCode = "RETRIEVAL_FAILURE"

	// ErrCodeDecodeFailure indicates a payload or cached artifact could
	// not be decoded, or holds an empty identifier.
	ErrCodeDecodeFailure ErrorCode = "DECODE_FAILURE"

	// ErrCodeStorageFailure indicates the local cache could not be written.
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"

	// ErrCodeMissingColumn indicates a decoded file lacks a column the
	// catalog places in it.
	ErrCodeMissingColumn ErrorCode = "MISSING_COLUMN"

	// ErrCodeColumnCollision indicates two files of one cycle share a
	// non-identifier column.
	ErrCodeColumnCollision ErrorCode = "COLUMN_COLLISION"
)

// Error is a terminal assembly failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Variable, Year and File locate the failure when known.
	Variable string
	Year     string
	File     string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)

	var loc []string
	if e.Year != "" {
		loc = append(loc, "year="+e.Year)
	}
	if e.File != "" {
		loc = append(loc, "file="+e.File)
	}
	if e.Variable != "" {
		loc = append(loc, "variable="+e.Variable)
	}
	if len(loc) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(loc, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of a wrapped *Error, or "" if err is not one.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsInvalidVariable returns true for unknown or unavailable variables.
func IsInvalidVariable(err error) bool {
	return CodeOf(err) == ErrCodeInvalidVariable
}

// IsInvalidYear returns true for unsupported cycle labels.
func IsInvalidYear(err error) bool {
	return CodeOf(err) == ErrCodeInvalidYear
}

// IsRetrievalFailure returns true when a download failed.
func IsRetrievalFailure(err error) bool {
	return CodeOf(err) == ErrCodeRetrievalFailure
}

// IsDecodeFailure returns true when a payload could not be decoded.
func IsDecodeFailure(err error) bool {
	return CodeOf(err) == ErrCodeDecodeFailure
}

// IsUserError returns true for failures caused by the request itself,
// detected before any I/O.
func IsUserError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeInvalidVariable, ErrCodeInvalidYear, ErrCodeInvalidRequest:
		return true
	}
	return false
}
