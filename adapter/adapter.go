// Package adapter defines the event-bus adapter boundary.
//
// Adapters notify downstream systems when a channel's emotes have been
// registered. The engine owns adapter lifecycle; users provide configuration
// only. Publish failures are reported to the caller and never fail ingestion.
package adapter

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// EventTypeChannelLoaded is the event_type of ChannelLoadedEvent.
const EventTypeChannelLoaded = "channel_loaded"

// ChannelLoadedEvent is published after a channel's catalog is registered.
type ChannelLoadedEvent struct {
	ContractVersion string `json:"contract_version" msgpack:"contract_version"`
	EventType       string `json:"event_type" msgpack:"event_type"` // always "channel_loaded"
	SessionID       string `json:"session_id" msgpack:"session_id"`
	Channel         string `json:"channel" msgpack:"channel"`
	RequestedName   string `json:"requested_name" msgpack:"requested_name"`
	ChannelID       int    `json:"channel_id" msgpack:"channel_id"`
	EmoteCount      int    `json:"emote_count" msgpack:"emote_count"`     // catalog entries registered
	KeyCount        int    `json:"key_count" msgpack:"key_count"`         // records registered (entries x variants)
	PatternCount    int    `json:"pattern_count" msgpack:"pattern_count"` // records whose code is a pattern
	Timestamp       string `json:"timestamp" msgpack:"timestamp"`         // RFC 3339
	DurationMs      int64  `json:"duration_ms" msgpack:"duration_ms"`
}

// Adapter publishes channel events to a downstream system.
type Adapter interface {
	// Publish sends an event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ChannelLoadedEvent) error

	// Close releases adapter resources.
	Close() error
}

// RetryInterval is the delay before the first retry; later retries double it.
const RetryInterval = 500 * time.Millisecond

// RetryPolicy returns the backoff used by adapters: exponential from
// RetryInterval, no jitter, at most retries retries, bound to ctx.
func RetryPolicy(ctx context.Context, retries int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}
