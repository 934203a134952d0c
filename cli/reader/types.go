// Package reader builds the read-side view payloads for the emotes CLI.
//
// Every command renders one of these payloads, whether as json, yaml,
// a table or a TUI view. The TUI never shows data missing from them.
package reader

// Asset states reported for a key.
const (
	AssetReady   = "ready"
	AssetPending = "pending"
	AssetFailed  = "failed"
)

// Channel states reported by sync.
const (
	ChannelLoaded  = "loaded"
	ChannelSkipped = "skipped"
)

// ChannelItem is one row of sync and list channels output.
type ChannelItem struct {
	Channel    string `json:"channel" yaml:"channel"`
	ChannelID  int    `json:"channel_id" yaml:"channel_id"`
	Status     string `json:"status" yaml:"status"`
	Emotes     int    `json:"emotes" yaml:"emotes"`
	Keys       int    `json:"keys" yaml:"keys"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// KeyItem is one row of list keys and list variants output.
type KeyItem struct {
	Key     string `json:"key" yaml:"key"`
	Channel string `json:"channel" yaml:"channel"`
	ID      int    `json:"id" yaml:"id"`
	Variant string `json:"variant" yaml:"variant"`
	Pattern bool   `json:"pattern" yaml:"pattern"`
	Asset   string `json:"asset" yaml:"asset"`
}

// ResolveResponse describes what a token resolved to.
type ResolveResponse struct {
	Token     string `json:"token" yaml:"token"`
	Found     bool   `json:"found" yaml:"found"`
	Key       string `json:"key,omitempty" yaml:"key,omitempty"`
	Channel   string `json:"channel,omitempty" yaml:"channel,omitempty"`
	ID        int    `json:"id,omitempty" yaml:"id,omitempty"`
	Code      string `json:"code,omitempty" yaml:"code,omitempty"`
	Variant   string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Pattern   bool   `json:"pattern" yaml:"pattern"`
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
	Asset     string `json:"asset,omitempty" yaml:"asset,omitempty"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Width     int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int    `json:"height,omitempty" yaml:"height,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// StatsResponse combines key counts with the engine counters.
type StatsResponse struct {
	SessionID string `json:"session_id" yaml:"session_id"`

	// Keys
	Channels    int `json:"channels" yaml:"channels"`
	Keys        int `json:"keys" yaml:"keys"`
	BaseKeys    int `json:"base_keys" yaml:"base_keys"`
	VariantKeys int `json:"variant_keys" yaml:"variant_keys"`
	PatternKeys int `json:"pattern_keys" yaml:"pattern_keys"`

	// Ingestion
	ChannelsLoaded  int64 `json:"channels_loaded" yaml:"channels_loaded"`
	ChannelsSkipped int64 `json:"channels_skipped" yaml:"channels_skipped"`
	RecordsRejected int64 `json:"records_rejected" yaml:"records_rejected"`

	// Assets
	AssetsCached        int64 `json:"assets_cached" yaml:"assets_cached"`
	AssetsMirrored      int64 `json:"assets_mirrored" yaml:"assets_mirrored"`
	AssetsDownloaded    int64 `json:"assets_downloaded" yaml:"assets_downloaded"`
	AssetsFailed        int64 `json:"assets_failed" yaml:"assets_failed"`
	MirrorWriteFailures int64 `json:"mirror_write_failures" yaml:"mirror_write_failures"`

	// Resolution
	ResolveExact   int64 `json:"resolve_exact" yaml:"resolve_exact"`
	ResolvePattern int64 `json:"resolve_pattern" yaml:"resolve_pattern"`
	ResolveMiss    int64 `json:"resolve_miss" yaml:"resolve_miss"`

	// Events
	EventsPublished int64 `json:"events_published" yaml:"events_published"`
	PublishFailures int64 `json:"publish_failures" yaml:"publish_failures"`

	MirrorBackend string `json:"mirror_backend" yaml:"mirror_backend"`
	Adapter       string `json:"adapter" yaml:"adapter"`
}
