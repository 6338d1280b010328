package domain

import (
	"errors"
	"fmt"
)

// ErrNoData reports a feed that decoded cleanly but carried no usable entries.
var ErrNoData = errors.New("feed returned no data")

// FetchError reports a network failure, timeout, or non-2xx response from an
// upstream feed.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ShapeError reports an upstream payload that matched none of the known
// layouts for its feed. It never leaves a source adapter except as the
// reason the source degraded.
type ShapeError struct {
	Feed string
	Err  error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("decode %s feed: %v", e.Feed, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// WriteError reports a snapshot that could not be persisted. It is fatal to
// the pipeline run.
type WriteError struct {
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write snapshot %s: %v", e.Name, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
