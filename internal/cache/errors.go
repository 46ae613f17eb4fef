package cache

import (
	"errors"
	"fmt"
)

// Kind classifies a cache failure.
type Kind string

const (
	// KindRetrieval is a failed download.
	KindRetrieval Kind = "retrieval"
	// KindDecode is a payload or artifact that could not be decoded.
	KindDecode Kind = "decode"
	// KindStorage is a failed local filesystem operation.
	KindStorage Kind = "storage"
)

// Error reports a failure to materialize one descriptor.
type Error struct {
	Kind       Kind
	Descriptor Descriptor
	URL        string
	Err        error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Kind, e.Descriptor, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Descriptor, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a wrapped *Error, or "" if err is not one.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
