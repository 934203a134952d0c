package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/pithecene-io/emotes/adapter"
	"github.com/pithecene-io/emotes/catalog"
	"github.com/pithecene-io/emotes/emote"
	"github.com/pithecene-io/emotes/types"
)

// ChannelResult is the outcome of ingesting one configured channel.
type ChannelResult struct {
	// Requested is the configured channel name.
	Requested string
	// Channel is the name records were registered under.
	Channel   string
	ChannelID int
	// Emotes is the number of catalog entries registered.
	Emotes int
	// Keys are the registered keys in catalog order.
	Keys []string
	// Err is set when the channel was skipped.
	Err      error
	Duration time.Duration
}

// LoadChannels ingests each channel. Failures are contained per channel:
// a skipped channel never stops the others. Results are in input order.
func (e *Engine) LoadChannels(ctx context.Context, names []string) []ChannelResult {
	results := make([]ChannelResult, len(names))
	if e.cfg.ChannelParallel <= 1 {
		for i, name := range names {
			results[i] = e.LoadChannel(ctx, name)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.ChannelParallel)
	for i, name := range names {
		g.Go(func() error {
			results[i] = e.LoadChannel(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// LoadChannel resolves name to an id, fetches its catalog and registers it.
// The global channel name maps to the base set without a lookup.
func (e *Engine) LoadChannel(ctx context.Context, name string) ChannelResult {
	start := time.Now()
	res := ChannelResult{Requested: name}

	skip := func(err error) ChannelResult {
		res.Err = err
		res.Duration = time.Since(start)
		e.metrics.IncChannelSkipped()
		fields := map[string]any{"channel": name, "error": err.Error()}
		if errors.Is(err, catalog.ErrChannelNotFound) {
			e.logger.Warn("channel not found, skipping", fields)
		} else {
			e.logger.Error("channel catalog failed, skipping", fields)
		}
		return res
	}

	id := types.GlobalChannelID
	if !types.IsGlobalChannel(name) {
		var err error
		id, err = retryCatalog(ctx, e.catalogBackOff(ctx), func() (int, error) {
			return e.cfg.Catalog.ResolveChannelID(ctx, name)
		})
		if err != nil {
			return skip(err)
		}
	}
	res.ChannelID = id

	cat, err := retryCatalog(ctx, e.catalogBackOff(ctx), func() (*types.ChannelCatalog, error) {
		return e.cfg.Catalog.FetchCatalog(ctx, id)
	})
	if err != nil {
		return skip(err)
	}

	keys, err := e.RegisterCatalog(name, cat)
	if err != nil {
		return skip(err)
	}
	res.Channel = channelName(name, cat)
	res.Keys = keys
	res.Emotes = len(keys) / len(types.Variants)
	res.Duration = time.Since(start)
	e.channelIDs.Store(res.Channel, id)
	if res.Channel != name {
		e.aliases.Store(name, res.Channel)
	}

	e.metrics.IncChannelLoaded()
	e.logger.Info("channel loaded", map[string]any{
		"channel":     res.Channel,
		"channel_id":  id,
		"emotes":      res.Emotes,
		"keys":        len(keys),
		"duration_ms": res.Duration.Milliseconds(),
	})
	e.publish(ctx, &res)
	return res
}

// RegisterCatalog materialises one record per catalog entry and variant,
// registers each in catalog order and submits its download. Entries that
// fail validation are skipped and logged.
func (e *Engine) RegisterCatalog(requestedName string, cat *types.ChannelCatalog) ([]string, error) {
	if cat == nil {
		return nil, fmt.Errorf("engine: nil catalog for %q", requestedName)
	}
	channel := channelName(requestedName, cat)
	if channel == "" {
		return nil, errors.New("engine: catalog has no channel name")
	}

	keys := make([]string, 0, len(cat.Emotes)*len(types.Variants))
	for _, entry := range cat.Emotes {
		recs, err := e.materialise(channel, entry)
		if err != nil {
			e.metrics.IncRecordRejected()
			e.logger.Warn("catalog entry rejected", map[string]any{
				"channel": channel,
				"id":      entry.ID,
				"code":    entry.Code,
				"error":   err.Error(),
			})
			continue
		}
		for _, rec := range recs {
			e.idx.Register(rec)
			e.coord.Submit(rec)
			keys = append(keys, rec.Key)
		}
	}
	e.metrics.AddRecordsRegistered(len(keys))
	return keys, nil
}

// materialise builds every variant of entry, or none of them.
func (e *Engine) materialise(channel string, entry types.CatalogEmote) ([]*emote.Record, error) {
	recs := make([]*emote.Record, 0, len(types.Variants))
	for _, variant := range types.Variants {
		rec, err := emote.NewRecord(emote.Params{
			ChannelName: channel,
			ID:          entry.ID,
			Code:        entry.Code,
			Variant:     variant,
			CacheRoot:   e.cfg.CacheDir,
			CDNURL:      e.cfg.CDNURL,
		})
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// channelName prefers the catalog's own name over the configured one.
func channelName(requested string, cat *types.ChannelCatalog) string {
	if cat.ChannelName != "" {
		return cat.ChannelName
	}
	return requested
}

func (e *Engine) catalogBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.CatalogRetryInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.cfg.CatalogRetries)), ctx)
}

// retryCatalog retries transport failures; not-found is permanent.
func retryCatalog[T any](ctx context.Context, b backoff.BackOff, op func() (T, error)) (T, error) {
	var out T
	err := backoff.Retry(func() error {
		v, err := op()
		if err != nil {
			if errors.Is(err, catalog.ErrChannelNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = v
		return nil
	}, b)
	if err != nil && ctx.Err() != nil && !errors.Is(err, catalog.ErrChannelNotFound) {
		return out, fmt.Errorf("%w: %w", catalog.ErrTransport, ctx.Err())
	}
	return out, err
}

func (e *Engine) publish(ctx context.Context, res *ChannelResult) {
	if e.cfg.Adapter == nil {
		return
	}
	patterns := 0
	for _, key := range res.Keys {
		if rec, ok := e.idx.Lookup(key); ok && rec.IsPattern {
			patterns++
		}
	}
	event := &adapter.ChannelLoadedEvent{
		ContractVersion: types.EventContractVersion,
		EventType:       adapter.EventTypeChannelLoaded,
		SessionID:       e.sessionID(),
		Channel:         res.Channel,
		RequestedName:   res.Requested,
		ChannelID:       res.ChannelID,
		EmoteCount:      res.Emotes,
		KeyCount:        len(res.Keys),
		PatternCount:    patterns,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		DurationMs:      res.Duration.Milliseconds(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, e.cfg.PublishTimeout)
	defer cancel()
	if err := e.cfg.Adapter.Publish(publishCtx, event); err != nil {
		e.metrics.IncPublishFailure()
		e.logger.Warn("publish failed", map[string]any{
			"channel": res.Channel,
			"error":   err.Error(),
		})
		return
	}
	e.metrics.IncEventPublished()
}

func (e *Engine) sessionID() string {
	if e.cfg.Session == nil {
		return ""
	}
	return e.cfg.Session.SessionID
}
