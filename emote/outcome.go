package emote

import (
	"context"
	"sync"
)

// Outcome is a single-assignment result cell for a record's download.
//
// It starts pending and is completed exactly once, by the download task
// owning the record. Any number of callers may wait on it; all of them
// observe the same path or error.
type Outcome struct {
	once sync.Once
	done chan struct{}
	path string
	err  error
}

func newOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

// Complete records the result. Only the first call has any effect;
// it reports whether this call was the one that completed the outcome.
func (o *Outcome) Complete(path string, err error) bool {
	completed := false
	o.once.Do(func() {
		if err != nil {
			path = ""
		}
		o.path = path
		o.err = err
		close(o.done)
		completed = true
	})
	return completed
}

// Done is closed once the outcome is completed.
func (o *Outcome) Done() <-chan struct{} {
	return o.done
}

// Await suspends until the outcome is completed or ctx ends.
// A context error is returned as-is and does not complete the outcome.
func (o *Outcome) Await(ctx context.Context) (string, error) {
	if res, ok := o.Peek(); ok {
		return res.Path, res.Err
	}
	select {
	case <-o.done:
		return o.path, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Result is a completed outcome.
type Result struct {
	Path string
	Err  error
}

// Peek returns the result without waiting. ok is false while pending.
func (o *Outcome) Peek() (res Result, ok bool) {
	select {
	case <-o.done:
		return Result{Path: o.path, Err: o.err}, true
	default:
		return Result{}, false
	}
}
