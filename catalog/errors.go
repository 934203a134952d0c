package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrChannelNotFound indicates the remote catalog has no entry for the channel.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrTransport indicates a network, status or decoding failure.
	ErrTransport = errors.New("catalog transport error")
)

// Kind classifies a catalog failure.
type Kind string

const (
	// KindNotFound maps to ErrChannelNotFound.
	KindNotFound Kind = "not_found"
	// KindTransport maps to ErrTransport.
	KindTransport Kind = "transport"
)

func (k Kind) sentinel() error {
	if k == KindNotFound {
		return ErrChannelNotFound
	}
	return ErrTransport
}

// Error wraps a catalog failure with its classification.
// It preserves the original error in the chain for inspection via errors.As.
type Error struct {
	Kind Kind
	// Op is the failed operation ("resolve" or "fetch").
	Op string
	// Channel is the channel name or id involved.
	Channel string
	// Err is the underlying error; may be nil.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s %s: %v: %v", e.Op, e.Channel, e.Kind.sentinel(), e.Err)
	}
	return fmt.Sprintf("catalog %s %s: %v", e.Op, e.Channel, e.Kind.sentinel())
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return e.Kind.sentinel() == target
}

func notFound(op, channel string) error {
	return &Error{Kind: KindNotFound, Op: op, Channel: channel}
}

func transport(op, channel string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Channel: channel, Err: err}
}

// StatusError is returned for unexpected HTTP statuses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
