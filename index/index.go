// Package index holds the process-wide registry of emote records.
//
// Records are looked up by key without locks; per-channel key lists and the
// channel order are kept under a RWMutex that only writers and snapshot
// readers take. Entries are never removed.
package index

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pithecene-io/emotes/emote"
)

// Index maps keys to records and channels to the ordered keys they produced.
type Index struct {
	records  sync.Map // key -> *emote.Record
	patterns sync.Map // key -> *emote.Record, pattern records only

	size    atomic.Int64
	version atomic.Uint64

	mu       sync.RWMutex
	channels map[string]*channelKeys
	order    []string
}

type channelKeys struct {
	keys []string
	seen map[string]struct{}
}

// New creates an empty index.
func New() *Index {
	return &Index{channels: make(map[string]*channelKeys)}
}

// Register inserts or overwrites rec under rec.Key and appends the key to
// the owning channel's list. The last registration for a key wins.
// Safe for concurrent use; once Register returns, Lookup observes rec.
func (x *Index) Register(rec *emote.Record) {
	if _, loaded := x.records.Swap(rec.Key, rec); !loaded {
		x.size.Add(1)
	}
	if rec.IsPattern {
		x.patterns.Store(rec.Key, rec)
	} else {
		x.patterns.Delete(rec.Key)
	}

	x.mu.Lock()
	ck, ok := x.channels[rec.ChannelName]
	if !ok {
		ck = &channelKeys{seen: make(map[string]struct{})}
		x.channels[rec.ChannelName] = ck
		x.order = append(x.order, rec.ChannelName)
	}
	if _, dup := ck.seen[rec.Key]; !dup {
		ck.seen[rec.Key] = struct{}{}
		ck.keys = append(ck.keys, rec.Key)
	}
	x.mu.Unlock()

	x.version.Add(1)
}

// Lookup returns the record registered under key.
func (x *Index) Lookup(key string) (*emote.Record, bool) {
	v, ok := x.records.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*emote.Record), true
}

// RangePatterns calls fn for each pattern record until fn returns false.
// Iteration order is unspecified.
func (x *Index) RangePatterns(fn func(rec *emote.Record) bool) {
	x.patterns.Range(func(_, v any) bool {
		return fn(v.(*emote.Record))
	})
}

// AllKeys returns a sorted snapshot of every registered key.
func (x *Index) AllKeys() []string {
	return x.collectKeys(func(string) bool { return true })
}

// KeysWithPrefix returns a sorted snapshot of the keys starting with prefix.
func (x *Index) KeysWithPrefix(prefix string) []string {
	return x.collectKeys(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func (x *Index) collectKeys(keep func(string) bool) []string {
	keys := make([]string, 0, x.size.Load())
	x.records.Range(func(k, _ any) bool {
		if key := k.(string); keep(key) {
			keys = append(keys, key)
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

// KeysForChannel returns the channel's keys in registration order.
// A key shadowed by a later channel stays listed under every channel that produced it.
// Names are matched exactly first, then case-insensitively in registration order.
func (x *Index) KeysForChannel(name string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ck, ok := x.channels[name]
	if !ok {
		for _, ch := range x.order {
			if strings.EqualFold(ch, name) {
				ck, ok = x.channels[ch], true
				break
			}
		}
	}
	if !ok {
		return nil
	}
	out := make([]string, len(ck.keys))
	copy(out, ck.keys)
	return out
}

// Channels returns channel names in the order they were first registered.
func (x *Index) Channels() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Len returns the number of distinct keys.
func (x *Index) Len() int {
	return int(x.size.Load())
}

// Version increases on every Register.
func (x *Index) Version() uint64 {
	return x.version.Load()
}
