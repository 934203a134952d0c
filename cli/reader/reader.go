package reader

import (
	"github.com/pithecene-io/emotes/emote"
	"github.com/pithecene-io/emotes/engine"
	"github.com/pithecene-io/emotes/metrics"
	"github.com/pithecene-io/emotes/types"
)

// Source abstracts the read-only engine surface the CLI renders from.
type Source interface {
	Resolve(token string) (string, bool)
	Record(key string) (*emote.Record, bool)
	ListChannels() []string
	ChannelID(name string) (int, bool)
	ListKeys(channel string) []string
	KeysWithPrefix(prefix string) []string
	Summary() engine.Summary
	Metrics() metrics.Snapshot
}

// Verify the engine satisfies Source.
var _ Source = (*engine.Engine)(nil)

// Channels converts ingestion results into rows, keeping input order.
func Channels(results []engine.ChannelResult) []ChannelItem {
	items := make([]ChannelItem, 0, len(results))
	for _, res := range results {
		item := ChannelItem{
			Channel:    res.Channel,
			ChannelID:  res.ChannelID,
			Status:     ChannelLoaded,
			Emotes:     res.Emotes,
			Keys:       len(res.Keys),
			DurationMs: res.Duration.Milliseconds(),
		}
		if item.Channel == "" {
			item.Channel = res.Requested
		}
		if res.Err != nil {
			item.Status = ChannelSkipped
			item.Error = res.Err.Error()
		}
		items = append(items, item)
	}
	return items
}

// ListChannels returns one row per registered channel in registration order.
func ListChannels(src Source) []ChannelItem {
	names := src.ListChannels()
	items := make([]ChannelItem, 0, len(names))
	for _, name := range names {
		keys := src.ListKeys(name)
		item := ChannelItem{
			Channel: name,
			Status:  ChannelLoaded,
			Keys:    len(keys),
			Emotes:  len(keys) / len(types.Variants),
		}
		if id, ok := src.ChannelID(name); ok {
			item.ChannelID = id
		}
		items = append(items, item)
	}
	return items
}

// ListKeys returns a channel's keys in catalog order.
func ListKeys(src Source, channel string) []KeyItem {
	return keyItems(src, src.ListKeys(channel))
}

// ListVariants returns every key starting with prefix, sorted.
func ListVariants(src Source, prefix string) []KeyItem {
	return keyItems(src, src.KeysWithPrefix(prefix))
}

func keyItems(src Source, keys []string) []KeyItem {
	items := make([]KeyItem, 0, len(keys))
	for _, key := range keys {
		rec, ok := src.Record(key)
		if !ok {
			continue
		}
		items = append(items, KeyItem{
			Key:     key,
			Channel: rec.ChannelName,
			ID:      rec.ID,
			Variant: rec.Variant,
			Pattern: rec.IsPattern,
			Asset:   AssetState(rec),
		})
	}
	return items
}

// Resolve reports what token resolves to without waiting for its asset.
func Resolve(src Source, token string) *ResolveResponse {
	key, ok := src.Resolve(token)
	if !ok {
		return &ResolveResponse{Token: token}
	}
	return Describe(src, token, key)
}

// Describe reports the current state of key as the resolution of token.
func Describe(src Source, token, key string) *ResolveResponse {
	resp := &ResolveResponse{Token: token}
	rec, ok := src.Record(key)
	if !ok {
		return resp
	}
	resp.Found = true
	resp.Key = key
	resp.Channel = rec.ChannelName
	resp.ID = rec.ID
	resp.Code = rec.Code
	resp.Variant = rec.Variant
	resp.Pattern = rec.IsPattern
	resp.RemoteURL = rec.RemoteURL
	resp.Asset = AssetState(rec)
	if res, done := rec.Outcome.Peek(); done {
		resp.Path = res.Path
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
	}
	if img, ok := rec.Decoded(); ok {
		resp.Width = img.Width
		resp.Height = img.Height
	}
	return resp
}

// Stats returns key counts and the engine counters.
func Stats(src Source) *StatsResponse {
	sum := src.Summary()
	m := src.Metrics()
	return &StatsResponse{
		SessionID:           m.SessionID,
		Channels:            sum.Channels,
		Keys:                sum.Keys,
		BaseKeys:            sum.BaseKeys,
		VariantKeys:         sum.VariantKeys,
		PatternKeys:         sum.PatternKeys,
		ChannelsLoaded:      m.ChannelsLoaded,
		ChannelsSkipped:     m.ChannelsSkipped,
		RecordsRejected:     m.RecordsRejected,
		AssetsCached:        m.AssetsCached,
		AssetsMirrored:      m.AssetsMirrored,
		AssetsDownloaded:    m.AssetsDownloaded,
		AssetsFailed:        m.AssetsFailed,
		MirrorWriteFailures: m.MirrorWriteFailures,
		ResolveExact:        m.ResolveExact,
		ResolvePattern:      m.ResolvePattern,
		ResolveMiss:         m.ResolveMiss,
		EventsPublished:     m.EventsPublished,
		PublishFailures:     m.PublishFailures,
		MirrorBackend:       m.MirrorBackend,
		Adapter:             m.Adapter,
	}
}

// AssetState reports a record's download state without blocking.
func AssetState(rec *emote.Record) string {
	res, done := rec.Outcome.Peek()
	switch {
	case !done:
		return AssetPending
	case res.Err != nil:
		return AssetFailed
	default:
		return AssetReady
	}
}
