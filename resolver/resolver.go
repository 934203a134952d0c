// Package resolver maps raw chat tokens to emote keys.
package resolver

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/pithecene-io/emotes/emote"
	"github.com/pithecene-io/emotes/index"
	"github.com/pithecene-io/emotes/metrics"
)

// DefaultMemoSize bounds the pattern-scan memo.
const DefaultMemoSize = 4096

// Resolver implements the token matching policy: exact key first, then a
// scan of pattern records. Among several matching pattern records the first
// one found wins; the scan order is unspecified.
type Resolver struct {
	idx     *index.Index
	metrics *metrics.Collector

	mu   sync.Mutex
	memo *lru.Cache // token -> memoEntry
}

type memoEntry struct {
	key     string
	found   bool
	version uint64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetrics records resolution counters on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Resolver) { r.metrics = c }
}

// WithMemoSize sets the memo capacity. Zero or negative disables the memo.
func WithMemoSize(n int) Option {
	return func(r *Resolver) {
		if n <= 0 {
			r.memo = nil
			return
		}
		r.memo = lru.New(n)
	}
}

// New creates a Resolver over idx.
func New(idx *index.Index, opts ...Option) *Resolver {
	r := &Resolver{idx: idx, memo: lru.New(DefaultMemoSize)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the key token selects, if any. It never blocks on I/O.
func (r *Resolver) Resolve(token string) (string, bool) {
	if rec, ok := r.idx.Lookup(token); ok {
		r.metrics.IncResolveExact()
		return rec.Key, true
	}

	// Read the version before scanning so a registration racing the scan
	// leaves the stored entry stale.
	version := r.idx.Version()
	if e, ok := r.cached(token, version); ok {
		r.count(e.found)
		return e.key, e.found
	}

	key, found := r.scan(token)
	r.store(token, memoEntry{key: key, found: found, version: version})
	r.count(found)
	return key, found
}

func (r *Resolver) scan(token string) (string, bool) {
	var hit *emote.Record
	r.idx.RangePatterns(func(rec *emote.Record) bool {
		if rec.Matches(token) {
			hit = rec
			return false
		}
		return true
	})
	if hit == nil {
		return "", false
	}
	return hit.Key, true
}

func (r *Resolver) cached(token string, version uint64) (memoEntry, bool) {
	if r.memo == nil {
		return memoEntry{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.memo.Get(token)
	if !ok {
		return memoEntry{}, false
	}
	e := v.(memoEntry)
	if e.version != version {
		r.memo.Remove(token)
		return memoEntry{}, false
	}
	return e, true
}

func (r *Resolver) store(token string, e memoEntry) {
	if r.memo == nil {
		return
	}
	r.mu.Lock()
	r.memo.Add(token, e)
	r.mu.Unlock()
}

func (r *Resolver) count(found bool) {
	if found {
		r.metrics.IncResolvePattern()
		return
	}
	r.metrics.IncResolveMiss()
}
