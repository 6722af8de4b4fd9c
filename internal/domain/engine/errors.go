package engine

import "errors"

// ErrResourceNotFound indicates the image path does not resolve to an existing file.
var ErrResourceNotFound = errors.New("resource not found")

// ErrCanceled marks a child killed because the caller's context ended before
// the child's own deadline.
var ErrCanceled = errors.New("command canceled")

// ErrLoadFailure indicates the analysis engine rejected the image.
var ErrLoadFailure = errors.New("load failure")

// ErrorKind classifies a failed Result.
type ErrorKind string

const (
	ErrorSpawnFailed       ErrorKind = "spawn_failed"
	ErrorTimedOut          ErrorKind = "timed_out"
	ErrorNonZeroExit       ErrorKind = "non_zero_exit"
	ErrorUnsupportedEngine ErrorKind = "unsupported_engine"
	ErrorInvalidRequest    ErrorKind = "invalid_request"
	ErrorWriteFailed       ErrorKind = "write_failed"
)

// ResultError is the structured error carried by an unsuccessful Result.
type ResultError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ResultError) Error() string { return string(e.Kind) + ": " + e.Message }
