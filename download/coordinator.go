// Package download runs the background task that materialises each emote
// record's blob on local disk.
//
// Every submitted record gets exactly one task. A task first checks the local
// store, then the optional mirror, and only then issues a single CDN fetch.
// The outcome is published through the record's write-once Outcome cell.
// Failures are contained to the record; nothing here retries.
package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/pithecene-io/emotes/assetstore"
	"github.com/pithecene-io/emotes/emote"
	"github.com/pithecene-io/emotes/log"
	"github.com/pithecene-io/emotes/metrics"
)

// DefaultParallel is the default limit on concurrent network work.
const DefaultParallel = 8

// Config configures a Coordinator.
type Config struct {
	// Store is the local blob store (required).
	Store assetstore.Store
	// Fetcher issues CDN requests (required).
	Fetcher Fetcher
	// Mirror is consulted before the CDN and filled after it (optional).
	Mirror assetstore.Mirror
	// Parallel limits concurrent mirror and CDN work (default 8).
	// Local existence checks are not limited.
	Parallel int
	Logger   *log.Logger
	Metrics  *metrics.Collector
}

// Coordinator owns the download tasks of an engine.
type Coordinator struct {
	store   assetstore.Store
	fetcher Fetcher
	mirror  assetstore.Mirror
	logger  *log.Logger
	metrics *metrics.Collector

	sem    chan struct{}
	flight singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex // orders Submit against Close
	closed atomic.Bool
}

// New creates a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, errors.New("download: store is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("download: fetcher is required")
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = DefaultParallel
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:   cfg.Store,
		fetcher: cfg.Fetcher,
		mirror:  cfg.Mirror,
		logger:  cfg.Logger.Named("download"),
		metrics: cfg.Metrics,
		sem:     make(chan struct{}, cfg.Parallel),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Submit starts rec's download task and returns immediately.
// After Close the record completes at once with ErrClosed.
func (c *Coordinator) Submit(rec *emote.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		rec.Outcome.Complete("", &Error{Key: rec.Key, URL: rec.RemoteURL, Path: rec.LocalPath, Err: ErrClosed})
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(rec)
	}()
}

func (c *Coordinator) run(rec *emote.Record) {
	// Records re-registered under the same path share one in-flight task body.
	v, err, _ := c.flight.Do(rec.LocalPath, func() (any, error) {
		return c.ensure(rec)
	})
	if err != nil {
		rec.Outcome.Complete("", &Error{Key: rec.Key, URL: rec.RemoteURL, Path: rec.LocalPath, Err: err})
		return
	}
	rec.Outcome.Complete(v.(string), nil)
}

// ensure makes the blob for rec present locally and returns its path.
func (c *Coordinator) ensure(rec *emote.Record) (string, error) {
	ctx := c.ctx

	ok, err := c.store.Exists(ctx, rec.LocalPath)
	if err != nil {
		return c.fail(rec, "stat", err)
	}
	if ok {
		c.metrics.IncAssetCached()
		return rec.LocalPath, nil
	}

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return c.fail(rec, "acquire", ctx.Err())
	}

	if data, hit := c.fromMirror(ctx, rec); hit {
		if err := c.store.Write(ctx, rec.LocalPath, data); err != nil {
			return c.fail(rec, "write", err)
		}
		c.metrics.IncAssetMirrored()
		return rec.LocalPath, nil
	}

	data, err := c.fetcher.Fetch(ctx, rec.RemoteURL)
	if err != nil {
		return c.fail(rec, "fetch", err)
	}
	if err := c.store.Write(ctx, rec.LocalPath, data); err != nil {
		return c.fail(rec, "write", err)
	}
	c.metrics.IncAssetDownloaded()
	c.logger.Debug("downloaded", map[string]any{
		"key":   rec.Key,
		"bytes": len(data),
	})
	c.toMirror(ctx, rec, data)
	return rec.LocalPath, nil
}

func (c *Coordinator) fromMirror(ctx context.Context, rec *emote.Record) ([]byte, bool) {
	if c.mirror == nil {
		return nil, false
	}
	data, ok, err := c.mirror.Fetch(ctx, rec.RelPath)
	if err != nil {
		c.logger.Warn("mirror read failed, falling back to cdn", map[string]any{
			"key":   rec.Key,
			"path":  rec.RelPath,
			"error": err.Error(),
		})
		return nil, false
	}
	if !ok || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// toMirror uploads a freshly downloaded blob. Failures never fail the task.
func (c *Coordinator) toMirror(ctx context.Context, rec *emote.Record, data []byte) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.Put(ctx, rec.RelPath, data); err != nil {
		c.metrics.IncMirrorWriteFailure()
		c.logger.Warn("mirror write failed", map[string]any{
			"key":   rec.Key,
			"path":  rec.RelPath,
			"error": err.Error(),
		})
	}
}

func (c *Coordinator) fail(rec *emote.Record, stage string, err error) (string, error) {
	c.metrics.IncAssetFailed()
	c.logger.Error("download failed", map[string]any{
		"channel": rec.ChannelName,
		"key":     rec.Key,
		"url":     rec.RemoteURL,
		"stage":   stage,
		"error":   err.Error(),
	})
	return "", err
}

// Wait blocks until every submitted task has completed or ctx ends.
func (c *Coordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels in-flight work and waits for every task to complete.
// Cancelled tasks complete with the context error. Close is idempotent.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	c.closed.Store(true)
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}
