// Package errs defines the failure kinds surfaced while resolving a media reference.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrResolution                 = errors.New("no resolving context")
	ErrProbeUnavailable           = errors.New("probe unavailable")
	ErrProbeFailed                = errors.New("probe failed")
	ErrUnsupportedDigestAlgorithm = errors.New("unsupported digest algorithm")
	ErrIO                         = errors.New("i/o error")
	// ErrEmitFailed is an ErrIO raised while copying an asset into the output root.
	ErrEmitFailed = errors.New("emit failed")
)

// Error ties a failure kind to the referenced path and its underlying cause.
type Error struct {
	Kind error
	Path string
	Err  error
}

func New(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrEmitFailed && target == ErrIO
}

func (e *Error) Unwrap() error {
	return e.Err
}
