package download

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetDownload classifies every failed download task.
	ErrAssetDownload = errors.New("asset download failed")

	// ErrClosed is the cause of tasks submitted after Close.
	ErrClosed = errors.New("download coordinator closed")

	// ErrEmptyBody is the cause when the CDN answers 2xx with no payload.
	ErrEmptyBody = errors.New("empty response body")
)

// Error is the failure outcome of one record's download task.
type Error struct {
	Key  string
	URL  string
	Path string
	// Err is the original cause (transport, status or storage error).
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("download %s from %s: %v", e.Key, e.URL, e.Err)
}

// Unwrap returns the cause for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrAssetDownload.
func (e *Error) Is(target error) bool {
	return target == ErrAssetDownload
}

// StatusError is returned by HTTPFetcher for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
