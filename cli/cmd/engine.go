package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/emotes/adapter"
	redisadapter "github.com/pithecene-io/emotes/adapter/redis"
	"github.com/pithecene-io/emotes/adapter/webhook"
	"github.com/pithecene-io/emotes/assetstore"
	"github.com/pithecene-io/emotes/catalog"
	"github.com/pithecene-io/emotes/cli/config"
	"github.com/pithecene-io/emotes/download"
	"github.com/pithecene-io/emotes/engine"
	"github.com/pithecene-io/emotes/log"
	"github.com/pithecene-io/emotes/metrics"
	"github.com/pithecene-io/emotes/types"
)

// DefaultConfigFile is read when --config is not given and the file exists.
const DefaultConfigFile = "emotes.yaml"

// defaultCatalogRetries applies when neither the file nor the environment set one.
const defaultCatalogRetries = 2

// Adapter types.
const (
	adapterWebhook = "webhook"
	adapterRedis   = "redis"
)

// loadConfig resolves emotes.yaml and the environment, then applies flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)
	return cfg, nil
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("channel") {
		cfg.Channels = c.StringSlice("channel")
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("catalog-url") {
		cfg.Catalog.APIURL = c.String("catalog-url")
	}
	if c.IsSet("cdn-url") {
		cfg.Catalog.CDNURL = c.String("cdn-url")
	}
	if c.IsSet("parallel") {
		cfg.Download.Parallel = c.Int("parallel")
	}
	if c.IsSet("channel-parallel") {
		cfg.Ingest.Parallel = c.Int("channel-parallel")
	}
	if c.IsSet("mirror-backend") {
		cfg.Mirror.Backend = c.String("mirror-backend")
	}
	if c.IsSet("mirror-path") {
		cfg.Mirror.Path = c.String("mirror-path")
	}
	if c.IsSet("adapter") {
		cfg.Adapter.Type = c.String("adapter")
	}
	if c.IsSet("adapter-url") {
		cfg.Adapter.URL = c.String("adapter-url")
	}
}

// defaultCacheDir is <user cache dir>/emotes, or ./emotes-cache when the
// platform has no cache directory.
func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "emotes-cache"
	}
	return filepath.Join(dir, "emotes")
}

// buildEngine wires every collaborator named in cfg.
func buildEngine(ctx context.Context, cfg *config.Config, logOpts log.Options) (*engine.Engine, error) {
	session := &types.SessionMeta{SessionID: uuid.New().String()}
	logger, err := log.New(session, logOpts)
	if err != nil {
		return nil, err
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}

	mirror, err := mirrorFactory(ctx, cfg.Mirror)
	if err != nil {
		return nil, err
	}
	ad, err := adapterFactory(cfg.Adapter)
	if err != nil {
		return nil, errors.Join(err, closeIfCloser(mirror))
	}

	retries := defaultCatalogRetries
	if cfg.Catalog.Retries != nil {
		retries = *cfg.Catalog.Retries
	}

	userAgent := "emotes/" + types.Version
	e, err := engine.New(&engine.Config{
		CacheDir: cacheDir,
		CDNURL:   cfg.Catalog.CDNURL,
		Catalog: catalog.New(catalog.Config{
			APIURL:    cfg.Catalog.APIURL,
			SiteURL:   cfg.Catalog.SiteURL,
			Timeout:   cfg.Catalog.Timeout.Duration,
			UserAgent: userAgent,
		}),
		Store:   assetstore.NewFSStore(),
		Mirror:  mirror,
		Fetcher: download.NewHTTPFetcher(download.HTTPConfig{Timeout: cfg.Download.Timeout.Duration, UserAgent: userAgent}),
		Adapter: ad,
		Logger:  logger,
		Metrics: metrics.NewCollector(
			backendName(mirror),
			cfg.Adapter.Type,
			session.SessionID,
		),
		Session:          session,
		DownloadParallel: cfg.Download.Parallel,
		ChannelParallel:  cfg.Ingest.Parallel,
		CatalogRetries:   retries,
		AwaitTimeout:     cfg.Download.AwaitTimeout.Duration,
	})
	if err != nil {
		return nil, errors.Join(err, closeIfCloser(ad), closeIfCloser(mirror))
	}
	return e, nil
}

// Collaborator constructors, replaceable in tests.
var (
	mirrorFactory  = buildMirror
	adapterFactory = buildAdapter
)

// closeIfCloser closes v when it holds resources.
func closeIfCloser(v any) error {
	c, ok := v.(io.Closer)
	if !ok || c == nil {
		return nil
	}
	return c.Close()
}

func buildMirror(ctx context.Context, mc config.MirrorConfig) (assetstore.Mirror, error) {
	switch mc.Backend {
	case "":
		return nil, nil
	case assetstore.BackendFS:
		if mc.Path == "" {
			return nil, errors.New("mirror backend fs requires a path")
		}
		return assetstore.NewFSMirror(mc.Path), nil
	case assetstore.BackendS3:
		bucket, prefix := assetstore.ParseS3Path(mc.Path)
		return assetstore.NewS3Mirror(ctx, assetstore.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       mc.Region,
			Endpoint:     mc.Endpoint,
			UsePathStyle: mc.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported mirror backend: %s (must be fs or s3)", mc.Backend)
	}
}

func backendName(m assetstore.Mirror) string {
	if lm, ok := m.(*assetstore.LodeMirror); ok {
		return lm.Backend()
	}
	return ""
}

func buildAdapter(ac config.AdapterConfig) (adapter.Adapter, error) {
	switch ac.Type {
	case "":
		return nil, nil
	case adapterWebhook:
		cfg := webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Timeout: ac.Timeout.Duration,
			Retries: webhook.DefaultRetries,
		}
		if ac.Retries != nil {
			cfg.Retries = *ac.Retries
		}
		return webhook.New(cfg)
	case adapterRedis:
		cfg := redisadapter.Config{
			URL:      ac.URL,
			Channel:  ac.Channel,
			Mode:     ac.Mode,
			Encoding: ac.Encoding,
			Timeout:  ac.Timeout.Duration,
			Retries:  redisadapter.DefaultRetries,
		}
		if ac.Retries != nil {
			cfg.Retries = *ac.Retries
		}
		return redisadapter.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported adapter: %s (must be webhook or redis)", ac.Type)
	}
}

// session is a loaded engine plus the ingestion results.
type session struct {
	engine  *engine.Engine
	results []engine.ChannelResult
}

// openSession builds the engine and ingests every configured channel.
// When await is set it also waits for all downloads to settle.
func openSession(ctx context.Context, c *cli.Context, await bool) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfigError)
	}
	if len(cfg.Channels) == 0 {
		return nil, cli.Exit("no channels configured (use --channel or channels: in emotes.yaml)", exitConfigError)
	}

	e, err := buildEngine(ctx, cfg, log.Options{
		Level:  c.String("log-level"),
		Format: c.String("log-format"),
	})
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfigError)
	}

	results := e.LoadChannels(ctx, cfg.Channels)
	if await {
		if err := e.Wait(ctx); err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("waiting for downloads: %w", err)
		}
	}
	return &session{engine: e, results: results}, nil
}

func (s *session) Close() error {
	return s.engine.Close()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// awaitTimeout bounds waits in commands that need a single asset.
const awaitTimeout = 2 * time.Minute
