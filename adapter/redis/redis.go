// Package redis implements a Redis adapter.
//
// Channel events are encoded as JSON (default) or MessagePack and either
// PUBLISHed to a pub/sub channel or appended to a capped stream, which lets
// late subscribers replay recent loads. Retries with exponential backoff on
// errors.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/emotes/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "emotes:channel_loaded"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// DefaultStreamMaxLen caps stream mode; trimming is approximate.
const DefaultStreamMaxLen = 10000

// Delivery modes.
const (
	ModePubSub = "pubsub"
	ModeStream = "stream"
)

// Payload encodings.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Config configures the Redis pub/sub adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel or stream key (default: emotes:channel_loaded).
	Channel string
	// Mode is pubsub (default) or stream.
	Mode string
	// StreamMaxLen caps the stream length in stream mode (default 10000).
	StreamMaxLen int64
	// Encoding is the payload encoding: json (default) or msgpack.
	Encoding string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure.
	Retries int
}

// Adapter publishes channel events via Redis PUBLISH or XADD.
type Adapter struct {
	config Config
	client *goredis.Client
	encode func(any) ([]byte, error)
}

// New creates a Redis pub/sub adapter from the given config.
// Returns an error if the URL is empty or invalid, or the encoding is unknown.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	switch cfg.Mode {
	case "":
		cfg.Mode = ModePubSub
	case ModePubSub, ModeStream:
	default:
		return nil, fmt.Errorf("redis adapter: unknown mode %q (want pubsub or stream)", cfg.Mode)
	}
	if cfg.StreamMaxLen <= 0 {
		cfg.StreamMaxLen = DefaultStreamMaxLen
	}

	var encode func(any) ([]byte, error)
	switch cfg.Encoding {
	case "", EncodingJSON:
		cfg.Encoding = EncodingJSON
		encode = json.Marshal
	case EncodingMsgpack:
		encode = msgpack.Marshal
	default:
		return nil, fmt.Errorf("redis adapter: unknown encoding %q (want json or msgpack)", cfg.Encoding)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
		encode: encode,
	}, nil
}

// Publish sends the encoded event to the configured channel or stream.
func (a *Adapter) Publish(ctx context.Context, event *adapter.ChannelLoadedEvent) error {
	body, err := a.encode(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	attempts := 0
	op := func() error {
		attempts++
		publishCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
		err := a.send(publishCtx, event, body)
		if errors.Is(err, goredis.ErrClosed) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(op, adapter.RetryPolicy(ctx, a.config.Retries)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("redis: context canceled: %w", ctxErr)
		}
		return fmt.Errorf("redis: failed after %d attempts: %w", attempts, err)
	}
	return nil
}

func (a *Adapter) send(ctx context.Context, event *adapter.ChannelLoadedEvent, body []byte) error {
	if a.config.Mode == ModeStream {
		return a.client.XAdd(ctx, &goredis.XAddArgs{
			Stream: a.config.Channel,
			MaxLen: a.config.StreamMaxLen,
			Approx: true,
			Values: []any{
				"event_type", event.EventType,
				"channel", event.Channel,
				"encoding", a.config.Encoding,
				"payload", body,
			},
		}).Err()
	}
	return a.client.Publish(ctx, a.config.Channel, body).Err()
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Verify Adapter implements the adapter interface.
var _ adapter.Adapter = (*Adapter)(nil)
