// Package engine is the emote resolution and caching engine.
//
// An Engine ingests channel catalogs into a shared index, starts one
// background download per registered record, and answers two questions for
// chat-rendering callers: which key does a token select (Resolve, never
// blocks) and where is that key's image on disk (AwaitAsset, suspends until
// the download settles). Entries are never removed; the index is rebuilt
// from the remote catalog on every start.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pithecene-io/emotes/adapter"
	"github.com/pithecene-io/emotes/assetstore"
	"github.com/pithecene-io/emotes/catalog"
	"github.com/pithecene-io/emotes/download"
	"github.com/pithecene-io/emotes/emote"
	"github.com/pithecene-io/emotes/index"
	"github.com/pithecene-io/emotes/log"
	"github.com/pithecene-io/emotes/metrics"
	"github.com/pithecene-io/emotes/resolver"
	"github.com/pithecene-io/emotes/types"
)

var (
	// ErrUnknownKey is returned for keys that were never registered.
	ErrUnknownKey = errors.New("unknown emote key")

	// ErrAwaitTimeout is returned when AwaitTimeout elapses before a download settles.
	ErrAwaitTimeout = errors.New("timed out waiting for emote asset")
)

// Config configures an Engine.
type Config struct {
	// CacheDir is the root under which blobs are stored (required).
	CacheDir string
	// CDNURL overrides emote.DefaultCDNURL.
	CDNURL string

	// Catalog supplies channel ids and catalogs (required).
	Catalog catalog.Source
	// Store defaults to an assetstore.FSStore.
	Store assetstore.Store
	// Mirror is an optional shared blob tier.
	Mirror assetstore.Mirror
	// Fetcher defaults to a download.HTTPFetcher.
	Fetcher download.Fetcher
	// Adapter receives channel_loaded events (optional).
	Adapter adapter.Adapter

	Logger  *log.Logger
	Metrics *metrics.Collector
	Session *types.SessionMeta

	// DownloadParallel limits concurrent network downloads (default 8).
	DownloadParallel int
	// ChannelParallel > 1 ingests that many channels concurrently.
	ChannelParallel int
	// CatalogRetries is the number of retries for transport failures
	// while resolving or fetching a catalog. Not-found is never retried.
	CatalogRetries int
	// CatalogRetryInterval is the first retry delay (default 500ms).
	CatalogRetryInterval time.Duration
	// AwaitTimeout bounds AwaitAsset when positive.
	AwaitTimeout time.Duration
	// PublishTimeout bounds each adapter publish (default 10s).
	PublishTimeout time.Duration
	// MemoSize is the resolver memo capacity (default resolver.DefaultMemoSize).
	MemoSize int
}

// Engine is safe for concurrent use.
type Engine struct {
	cfg      Config
	idx      *index.Index
	resolver *resolver.Resolver
	coord    *download.Coordinator
	logger   *log.Logger
	metrics  *metrics.Collector

	channelIDs sync.Map // channel name -> catalog id
	aliases    sync.Map // configured name -> registered channel name
}

// New creates an Engine. Collaborators left nil get production defaults.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine: config is required")
	}
	c := *cfg
	if c.CacheDir == "" {
		return nil, errors.New("engine: cache dir is required")
	}
	if c.Catalog == nil {
		return nil, errors.New("engine: catalog source is required")
	}
	if c.Store == nil {
		c.Store = assetstore.NewFSStore()
	}
	if c.Fetcher == nil {
		c.Fetcher = download.NewHTTPFetcher(download.HTTPConfig{})
	}
	if c.Logger == nil {
		c.Logger = log.Nop()
	}
	if c.CatalogRetries < 0 {
		return nil, fmt.Errorf("engine: catalog retries must be >= 0, got %d", c.CatalogRetries)
	}
	if c.CatalogRetryInterval <= 0 {
		c.CatalogRetryInterval = 500 * time.Millisecond
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 10 * time.Second
	}
	if c.MemoSize == 0 {
		c.MemoSize = resolver.DefaultMemoSize
	}

	coord, err := download.New(download.Config{
		Store:    c.Store,
		Fetcher:  c.Fetcher,
		Mirror:   c.Mirror,
		Parallel: c.DownloadParallel,
		Logger:   c.Logger,
		Metrics:  c.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	idx := index.New()
	return &Engine{
		cfg:      c,
		idx:      idx,
		resolver: resolver.New(idx, resolver.WithMetrics(c.Metrics), resolver.WithMemoSize(c.MemoSize)),
		coord:    coord,
		logger:   c.Logger.Named("engine"),
		metrics:  c.Metrics,
	}, nil
}

// Resolve returns the key token selects: an exact key first, otherwise the
// first pattern record that matches the whole token. It never blocks.
func (e *Engine) Resolve(token string) (string, bool) {
	return e.resolver.Resolve(token)
}

// Record returns the record registered under key.
func (e *Engine) Record(key string) (*emote.Record, bool) {
	return e.idx.Lookup(key)
}

// ListChannels returns channel names in registration order.
func (e *Engine) ListChannels() []string {
	return e.idx.Channels()
}

// ChannelID returns the catalog id a loaded channel was fetched with.
// name may be the registered channel name or the name it was loaded by.
func (e *Engine) ChannelID(name string) (int, bool) {
	v, ok := e.channelIDs.Load(e.channelFor(name))
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// ListKeys returns a channel's keys in catalog order. channel may be the
// registered channel name or the name it was loaded by.
func (e *Engine) ListKeys(channel string) []string {
	return e.idx.KeysForChannel(e.channelFor(channel))
}

// channelFor maps a configured name to the name its records were registered
// under. Unknown names are returned unchanged.
func (e *Engine) channelFor(name string) string {
	if v, ok := e.aliases.Load(name); ok {
		return v.(string)
	}
	return name
}

// KeysWithPrefix returns every key starting with prefix, sorted.
func (e *Engine) KeysWithPrefix(prefix string) []string {
	return e.idx.KeysWithPrefix(prefix)
}

// Summary counts registered keys.
type Summary struct {
	Channels    int
	Keys        int
	BaseKeys    int // default-variant keys
	VariantKeys int // styled-variant keys
	PatternKeys int
}

// Summary returns key counts across all channels.
func (e *Engine) Summary() Summary {
	s := Summary{Channels: len(e.idx.Channels())}
	for _, key := range e.idx.AllKeys() {
		rec, ok := e.idx.Lookup(key)
		if !ok {
			continue
		}
		s.Keys++
		if rec.Variant == "" {
			s.BaseKeys++
		} else {
			s.VariantKeys++
		}
		if rec.IsPattern {
			s.PatternKeys++
		}
	}
	return s
}

// Wait blocks until every submitted download has settled or ctx ends.
func (e *Engine) Wait(ctx context.Context) error {
	return e.coord.Wait(ctx)
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() metrics.Snapshot {
	return e.metrics.Snapshot()
}

// Close cancels pending downloads, waits for them to settle and releases
// the adapter. Records stay resolvable after Close.
func (e *Engine) Close() error {
	var errs []error
	if err := e.coord.Close(); err != nil {
		errs = append(errs, err)
	}
	if e.cfg.Adapter != nil {
		if err := e.cfg.Adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close adapter: %w", err))
		}
	}
	return errors.Join(errs...)
}
