// Package iox provides I/O helpers for HTTP bodies and resource cleanup.
package iox

import (
	"errors"
	"fmt"
	"io"
)

// drainLimit bounds how much of an unread body DrainClose consumes before
// giving up on connection reuse.
const drainLimit = 64 << 10

// ErrTooLarge is returned by ReadAllLimit when the input exceeds the limit.
var ErrTooLarge = errors.New("input exceeds size limit")

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// DiscardErr calls fn and discards the returned error, for deferred
// flushes whose failure is unactionable:
//
//	defer iox.DiscardErr(w.Flush)
func DiscardErr(fn func() error) { _ = fn() }

// DrainClose reads up to 64 KiB of rc and closes it, so the HTTP transport
// can reuse the connection:
//
//	defer iox.DrainClose(resp.Body)
func DrainClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, drainLimit))
	_ = rc.Close()
}

// ReadAllLimit reads r to EOF. It fails with ErrTooLarge when r yields more
// than limit bytes.
func ReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
