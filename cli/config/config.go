package config

import (
	"fmt"
	"time"
)

// Config represents an emotes.yaml configuration file.
// All values are optional and act as defaults for emotes command flags.
// CLI flags always override config values.
type Config struct {
	Channels []string       `yaml:"channels" env:"CHANNELS" envSeparator:","`
	CacheDir string         `yaml:"cache_dir" env:"CACHE_DIR"`
	Catalog  CatalogConfig  `yaml:"catalog" envPrefix:"CATALOG_"`
	Download DownloadConfig `yaml:"download" envPrefix:"DOWNLOAD_"`
	Ingest   IngestConfig   `yaml:"ingest" envPrefix:"INGEST_"`
	Mirror   MirrorConfig   `yaml:"mirror" envPrefix:"MIRROR_"`
	Adapter  AdapterConfig  `yaml:"adapter" envPrefix:"ADAPTER_"`
}

// CatalogConfig holds catalog service defaults.
type CatalogConfig struct {
	APIURL  string   `yaml:"api_url" env:"API_URL"`
	SiteURL string   `yaml:"site_url" env:"SITE_URL"`
	CDNURL  string   `yaml:"cdn_url" env:"CDN_URL"`
	Timeout Duration `yaml:"timeout,omitempty" env:"TIMEOUT"`
	Retries *int     `yaml:"retries,omitempty" env:"RETRIES"`
}

// DownloadConfig holds asset download defaults.
type DownloadConfig struct {
	Parallel     int      `yaml:"parallel" env:"PARALLEL"`
	Timeout      Duration `yaml:"timeout,omitempty" env:"TIMEOUT"`
	AwaitTimeout Duration `yaml:"await_timeout,omitempty" env:"AWAIT_TIMEOUT"`
}

// IngestConfig holds channel ingestion defaults.
type IngestConfig struct {
	Parallel int `yaml:"parallel" env:"PARALLEL"`
}

// MirrorConfig selects the shared blob mirror.
type MirrorConfig struct {
	Backend     string `yaml:"backend" env:"BACKEND"`
	Path        string `yaml:"path" env:"PATH"`
	Region      string `yaml:"region" env:"REGION"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	S3PathStyle bool   `yaml:"s3_path_style" env:"S3_PATH_STYLE"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type     string            `yaml:"type" env:"TYPE"`
	URL      string            `yaml:"url" env:"URL"`
	Channel  string            `yaml:"channel,omitempty" env:"CHANNEL"`
	Mode     string            `yaml:"mode,omitempty" env:"MODE"`
	Encoding string            `yaml:"encoding,omitempty" env:"ENCODING"`
	Headers  map[string]string `yaml:"headers,omitempty"`
	Timeout  Duration          `yaml:"timeout,omitempty" env:"TIMEOUT"`
	Retries  *int              `yaml:"retries,omitempty" env:"RETRIES"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText parses a duration from an environment variable.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
