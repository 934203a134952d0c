// Package metrics provides per-session counters for ingestion, downloads and
// resolution.
//
// The Collector is a leaf package with no internal dependencies. Every
// increment method is nil-receiver safe so components can be built without one.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Ingestion
	ChannelsLoaded    int64
	ChannelsSkipped   int64
	RecordsRegistered int64
	RecordsRejected   int64

	// Downloads
	AssetsCached        int64 // already present on local disk
	AssetsMirrored      int64 // copied from the shared mirror
	AssetsDownloaded    int64 // fetched from the CDN
	AssetsFailed        int64
	MirrorWriteFailures int64

	// Resolution
	ResolveExact   int64
	ResolvePattern int64
	ResolveMiss    int64

	// Events
	EventsPublished int64
	PublishFailures int64

	// Dimensions (informational, set at construction)
	MirrorBackend string
	Adapter       string
	SessionID     string
}

// AssetsSettled returns the number of download tasks that have completed.
func (s Snapshot) AssetsSettled() int64 {
	return s.AssetsCached + s.AssetsMirrored + s.AssetsDownloaded + s.AssetsFailed
}

// Collector accumulates counters for one engine.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// NewCollector creates a Collector with dimension labels.
// Empty labels are reported as-is.
func NewCollector(mirrorBackend, adapter, sessionID string) *Collector {
	return &Collector{s: Snapshot{
		MirrorBackend: mirrorBackend,
		Adapter:       adapter,
		SessionID:     sessionID,
	}}
}

func (c *Collector) add(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// --- Ingestion ---

// IncChannelLoaded records a channel whose catalog was registered.
func (c *Collector) IncChannelLoaded() {
	if c == nil {
		return
	}
	c.add(&c.s.ChannelsLoaded)
}

// IncChannelSkipped records a channel skipped after a catalog failure.
func (c *Collector) IncChannelSkipped() {
	if c == nil {
		return
	}
	c.add(&c.s.ChannelsSkipped)
}

// AddRecordsRegistered records n registered records.
func (c *Collector) AddRecordsRegistered(n int) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.s.RecordsRegistered += int64(n)
	c.mu.Unlock()
}

// IncRecordRejected records a catalog entry that failed validation.
func (c *Collector) IncRecordRejected() {
	if c == nil {
		return
	}
	c.add(&c.s.RecordsRejected)
}

// --- Downloads ---
// Exactly one of the four outcome counters is bumped per executed download.

// IncAssetCached records a task satisfied by an existing local file.
func (c *Collector) IncAssetCached() {
	if c == nil {
		return
	}
	c.add(&c.s.AssetsCached)
}

// IncAssetMirrored records a task satisfied from the mirror.
func (c *Collector) IncAssetMirrored() {
	if c == nil {
		return
	}
	c.add(&c.s.AssetsMirrored)
}

// IncAssetDownloaded records a task that fetched from the CDN.
func (c *Collector) IncAssetDownloaded() {
	if c == nil {
		return
	}
	c.add(&c.s.AssetsDownloaded)
}

// IncAssetFailed records a task that completed with an error.
func (c *Collector) IncAssetFailed() {
	if c == nil {
		return
	}
	c.add(&c.s.AssetsFailed)
}

// IncMirrorWriteFailure records a failed best-effort mirror upload.
func (c *Collector) IncMirrorWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.s.MirrorWriteFailures)
}

// --- Resolution ---

// IncResolveExact records a token resolved by key.
func (c *Collector) IncResolveExact() {
	if c == nil {
		return
	}
	c.add(&c.s.ResolveExact)
}

// IncResolvePattern records a token resolved through a pattern record.
func (c *Collector) IncResolvePattern() {
	if c == nil {
		return
	}
	c.add(&c.s.ResolvePattern)
}

// IncResolveMiss records a token that resolved to nothing.
func (c *Collector) IncResolveMiss() {
	if c == nil {
		return
	}
	c.add(&c.s.ResolveMiss)
}

// --- Events ---

// IncEventPublished records a delivered adapter event.
func (c *Collector) IncEventPublished() {
	if c == nil {
		return
	}
	c.add(&c.s.EventsPublished)
}

// IncPublishFailure records an adapter publish error.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.add(&c.s.PublishFailures)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
