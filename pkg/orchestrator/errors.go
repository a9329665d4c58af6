package orchestrator

import (
	"errors"
	"fmt"
)

// ErrInvalidInputDirectory is returned when the input path is missing or is
// not a directory. It aborts the batch before any image is processed.
var ErrInvalidInputDirectory = errors.New("input path is not a directory")

// ErrorKind classifies why a single image failed.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindRead
	KindDecode
	KindSegment
	KindNoSubject
	KindEncode
	KindWrite
	KindCanceled
	KindInternal
)

// String returns the kind name used in logs and reports.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRead:
		return "read"
	case KindDecode:
		return "decode"
	case KindSegment:
		return "segment"
	case KindNoSubject:
		return "no-subject"
	case KindEncode:
		return "encode"
	case KindWrite:
		return "write"
	case KindCanceled:
		return "canceled"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ImageError is the error attached to a failed Result.
type ImageError struct {
	Kind ErrorKind
	Err  error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

func fail(kind ErrorKind, err error) *ImageError {
	return &ImageError{Kind: kind, Err: err}
}

// KindOf returns the ErrorKind carried by err, or KindInternal for errors
// that were not produced by the per-image pipeline.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ie *ImageError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindInternal
}
