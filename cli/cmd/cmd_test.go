package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/emotes/adapter"
	"github.com/pithecene-io/emotes/assetstore"
	"github.com/pithecene-io/emotes/cli/config"
	"github.com/pithecene-io/emotes/log"
	"github.com/pithecene-io/emotes/types"
)

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	flags := ReadOnlyFlags()

	hasTUI := false
	for _, f := range flags {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}

	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}

func TestCommandFlags_NoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range commandFlags(&cli.IntFlag{Name: "limit"}) {
		for _, name := range f.Names() {
			if seen[name] {
				t.Errorf("duplicate flag %q", name)
			}
			seen[name] = true
		}
	}
	for _, want := range []string{"config", "c", "channel", "cache-dir", "format", "tui", "limit"} {
		if !seen[want] {
			t.Errorf("missing flag %q", want)
		}
	}
}

func TestIsStderrTTY(_ *testing.T) {
	// Actual TTY behavior depends on runtime environment.
	_ = isStderrTTY()
}

// newTestApp returns an app whose exit codes are returned instead of
// terminating the test binary.
func newTestApp(commands ...*cli.Command) *cli.App {
	return &cli.App{
		Name:           "emotes",
		Writer:         io.Discard,
		ErrWriter:      io.Discard,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands:       commands,
	}
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatalf("expected cli.ExitCoder, got %v", err)
	}
	return coder.ExitCode()
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emotes.yaml")
	content := `channels: [twitch, fromfile]
cache_dir: /from/file
download:
  parallel: 3
mirror:
  backend: fs
  path: /mirror/file
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var got *config.Config
	loader := &cli.Command{
		Name:  "load",
		Flags: EngineFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			got = cfg
			return err
		},
	}
	err := newTestApp(loader).Run([]string{"emotes", "load",
		"--config", path,
		"--channel", "alpha", "--channel", "beta",
		"--parallel", "9",
		"--mirror-path", "/mirror/flag",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !slices.Equal(got.Channels, []string{"alpha", "beta"}) {
		t.Errorf("channels = %v", got.Channels)
	}
	if got.CacheDir != "/from/file" {
		t.Errorf("cache_dir = %q, want file value", got.CacheDir)
	}
	if got.Download.Parallel != 9 {
		t.Errorf("parallel = %d, want 9", got.Download.Parallel)
	}
	if got.Mirror.Backend != "fs" || got.Mirror.Path != "/mirror/flag" {
		t.Errorf("mirror = %+v", got.Mirror)
	}
}

func TestSyncCommand_InvalidLogLevel(t *testing.T) {
	u := newFakeUpstream(t)
	cfgPath, _ := u.writeConfig(t, "twitch")

	err := newTestApp(SyncCommand()).Run([]string{"emotes", "sync", "-c", cfgPath, "--log-level", "loud"})
	if code := exitCode(t, err); code != exitConfigError {
		t.Errorf("exit code = %d, want %d", code, exitConfigError)
	}
}

func TestBuildAdapter(t *testing.T) {
	retries := 0
	tests := []struct {
		name    string
		cfg     config.AdapterConfig
		wantNil bool
		wantErr bool
	}{
		{"none", config.AdapterConfig{}, true, false},
		{"webhook", config.AdapterConfig{Type: "webhook", URL: "https://hooks.example.com", Retries: &retries}, false, false},
		{"webhook without url", config.AdapterConfig{Type: "webhook"}, false, true},
		{"redis", config.AdapterConfig{Type: "redis", URL: "redis://localhost:6379/0", Encoding: "msgpack"}, false, false},
		{"redis bad encoding", config.AdapterConfig{Type: "redis", URL: "redis://localhost:6379/0", Encoding: "xml"}, false, true},
		{"redis stream", config.AdapterConfig{Type: "redis", URL: "redis://localhost:6379/0", Mode: "stream"}, false, false},
		{"unknown", config.AdapterConfig{Type: "kafka", URL: "x"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad, err := buildAdapter(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (ad == nil) != tt.wantNil {
				t.Errorf("adapter = %v, wantNil %v", ad, tt.wantNil)
			}
			if ad != nil {
				_ = ad.Close()
			}
		})
	}
}

func TestBuildMirror(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name        string
		cfg         config.MirrorConfig
		wantBackend string
		wantErr     bool
	}{
		{"none", config.MirrorConfig{}, "", false},
		{"fs", config.MirrorConfig{Backend: "fs", Path: dir}, assetstore.BackendFS, false},
		{"fs without path", config.MirrorConfig{Backend: "fs"}, "", true},
		{"s3 without bucket", config.MirrorConfig{Backend: "s3"}, "", true},
		{"unknown", config.MirrorConfig{Backend: "gcs", Path: "x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := buildMirror(t.Context(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := backendName(m); got != tt.wantBackend {
				t.Errorf("backend = %q, want %q", got, tt.wantBackend)
			}
		})
	}
}

// closingMirror records Close on an in-memory mirror.
type closingMirror struct {
	assetstore.Mirror
	closed atomic.Int32
}

func (m *closingMirror) Close() error {
	m.closed.Add(1)
	return nil
}

// closingAdapter records Close and drops events.
type closingAdapter struct {
	closed atomic.Int32
}

func (a *closingAdapter) Publish(context.Context, *adapter.ChannelLoadedEvent) error { return nil }

func (a *closingAdapter) Close() error {
	a.closed.Add(1)
	return nil
}

// stubFactories swaps the collaborator constructors for the duration of t.
func stubFactories(t *testing.T, m *closingMirror, a *closingAdapter, adapterErr error) {
	t.Helper()
	prevMirror, prevAdapter := mirrorFactory, adapterFactory
	t.Cleanup(func() { mirrorFactory, adapterFactory = prevMirror, prevAdapter })

	mirrorFactory = func(context.Context, config.MirrorConfig) (assetstore.Mirror, error) {
		return m, nil
	}
	adapterFactory = func(config.AdapterConfig) (adapter.Adapter, error) {
		if adapterErr != nil {
			return nil, adapterErr
		}
		return a, nil
	}
}

func TestBuildEngine_ClosesCollaboratorsOnError(t *testing.T) {
	negative := -1
	adapterErr := errors.New("adapter unavailable")

	tests := []struct {
		name        string
		cfg         config.Config
		adapterErr  error
		wantErr     error
		wantMirror  int32
		wantAdapter int32
	}{
		{
			name:        "engine rejects config",
			cfg:         config.Config{CacheDir: "cache", Catalog: config.CatalogConfig{Retries: &negative}},
			wantMirror:  1,
			wantAdapter: 1,
		},
		{
			name:       "adapter fails",
			cfg:        config.Config{CacheDir: "cache"},
			adapterErr: adapterErr,
			wantErr:    adapterErr,
			wantMirror: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &closingMirror{Mirror: assetstore.NewMemoryMirror()}
			a := &closingAdapter{}
			stubFactories(t, m, a, tt.adapterErr)

			cfg := tt.cfg
			cfg.CacheDir = filepath.Join(t.TempDir(), cfg.CacheDir)
			e, err := buildEngine(t.Context(), &cfg, log.Options{Output: io.Discard})
			if err == nil {
				_ = e.Close()
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if got := m.closed.Load(); got != tt.wantMirror {
				t.Errorf("mirror closed %d times, want %d", got, tt.wantMirror)
			}
			if got := a.closed.Load(); got != tt.wantAdapter {
				t.Errorf("adapter closed %d times, want %d", got, tt.wantAdapter)
			}
		})
	}
}

func TestBuildEngine_KeepsCollaboratorsOnSuccess(t *testing.T) {
	m := &closingMirror{Mirror: assetstore.NewMemoryMirror()}
	a := &closingAdapter{}
	stubFactories(t, m, a, nil)

	cfg := config.Config{CacheDir: t.TempDir()}
	e, err := buildEngine(t.Context(), &cfg, log.Options{Output: io.Discard})
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	if m.closed.Load() != 0 || a.closed.Load() != 0 {
		t.Error("collaborators closed before the engine")
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if a.closed.Load() != 1 {
		t.Errorf("adapter closed %d times after engine Close, want 1", a.closed.Load())
	}
}

// fakeUpstream serves a catalog site/API and a CDN from one httptest server.
type fakeUpstream struct {
	srv       *httptest.Server
	cdnHits   atomic.Int32
	failAsset string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 28, 28))); err != nil {
		t.Fatal(err)
	}
	catalogs := map[string]types.ChannelCatalog{
		"0": {ChannelID: "0", ChannelName: "twitch", Emotes: []types.CatalogEmote{
			{ID: 25, Code: "Kappa"},
			{ID: 200, Code: "[o_o]"},
		}},
		"12345": {ChannelID: "12345", ChannelName: "pogchannel", Emotes: []types.CatalogEmote{
			{ID: 100, Code: "pogHi"},
		}},
	}

	u := &fakeUpstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/channels/{id}", func(w http.ResponseWriter, r *http.Request) {
		cat, ok := catalogs[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cat)
	})
	mux.HandleFunc("/search/channel", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("query") == "pogchannel" {
			w.Header().Set("Location", "/channel/12345")
			w.WriteHeader(http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/cdn/", func(w http.ResponseWriter, r *http.Request) {
		u.cdnHits.Add(1)
		if u.failAsset != "" && strings.Contains(r.URL.Path, u.failAsset) {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write(img.Bytes())
	})
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

// writeConfig points the catalog at the fake upstream.
func (u *fakeUpstream) writeConfig(t *testing.T, channels ...string) (cfgPath, cacheDir string) {
	t.Helper()
	dir := t.TempDir()
	cacheDir = filepath.Join(dir, "cache")
	cfgPath = filepath.Join(dir, "emotes.yaml")
	content := "channels: [" + strings.Join(channels, ", ") + "]\n" +
		"cache_dir: " + cacheDir + "\n" +
		"catalog:\n" +
		"  api_url: " + u.srv.URL + "/api\n" +
		"  site_url: " + u.srv.URL + "\n" +
		"  cdn_url: " + u.srv.URL + "/cdn\n" +
		"  retries: 0\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, cacheDir
}

func TestSyncCommand_EndToEnd(t *testing.T) {
	u := newFakeUpstream(t)
	cfgPath, cacheDir := u.writeConfig(t, "twitch", "pogchannel")

	err := newTestApp(SyncCommand()).Run([]string{"emotes", "sync", "-c", cfgPath, "--format", "json"})
	if code := exitCode(t, err); code != exitSuccess {
		t.Fatalf("exit code = %d (%v), want 0", code, err)
	}

	// 3 catalog entries x 6 variants.
	if got := u.cdnHits.Load(); got != 18 {
		t.Errorf("CDN hits = %d, want 18", got)
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "pogchannel", "pogHi_TK.png")); err != nil {
		t.Errorf("expected cached blob: %v", err)
	}

	// A second sync reuses the cache.
	err = newTestApp(SyncCommand()).Run([]string{"emotes", "sync", "-c", cfgPath, "--format", "json"})
	if code := exitCode(t, err); code != exitSuccess {
		t.Fatalf("second sync exit code = %d", code)
	}
	if got := u.cdnHits.Load(); got != 18 {
		t.Errorf("CDN hits after restart = %d, want 18", got)
	}
}

func TestSyncCommand_PartialFailure(t *testing.T) {
	u := newFakeUpstream(t)
	cfgPath, _ := u.writeConfig(t, "twitch", "ghost")

	err := newTestApp(SyncCommand()).Run([]string{"emotes", "sync", "-c", cfgPath, "--format", "json"})
	if code := exitCode(t, err); code != exitPartial {
		t.Errorf("exit code = %d, want %d", code, exitPartial)
	}
}

func TestSyncCommand_NoChannels(t *testing.T) {
	u := newFakeUpstream(t)
	cfgPath, _ := u.writeConfig(t)

	err := newTestApp(SyncCommand()).Run([]string{"emotes", "sync", "-c", cfgPath})
	if code := exitCode(t, err); code != exitConfigError {
		t.Errorf("exit code = %d, want %d", code, exitConfigError)
	}
}

func TestResolveCommand_FailedAsset(t *testing.T) {
	u := newFakeUpstream(t)
	u.failAsset = "/100_HF/"
	cfgPath, _ := u.writeConfig(t, "pogchannel")

	err := newTestApp(ResolveCommand()).Run([]string{"emotes", "resolve", "-c", cfgPath, "--format", "json", "pogHi"})
	if code := exitCode(t, err); code != exitSuccess {
		t.Errorf("pogHi exit code = %d, want 0", code)
	}

	err = newTestApp(ResolveCommand()).Run([]string{"emotes", "resolve", "-c", cfgPath, "--format", "json", "pogHi_HF"})
	if code := exitCode(t, err); code != exitPartial {
		t.Errorf("pogHi_HF exit code = %d, want %d", code, exitPartial)
	}
}

func TestResolveCommand_RequiresToken(t *testing.T) {
	err := newTestApp(ResolveCommand()).Run([]string{"emotes", "resolve"})
	if code := exitCode(t, err); code != exitConfigError {
		t.Errorf("exit code = %d, want %d", code, exitConfigError)
	}
}

func TestListCommand_RejectsTUI(t *testing.T) {
	u := newFakeUpstream(t)
	cfgPath, _ := u.writeConfig(t, "twitch")

	err := newTestApp(ListCommand()).Run([]string{"emotes", "list", "channels", "-c", cfgPath, "--tui"})
	if err == nil || !strings.Contains(err.Error(), "--tui is not supported") {
		t.Errorf("err = %v", err)
	}
}

func TestListVariants_RequiresPrefix(t *testing.T) {
	err := newTestApp(ListCommand()).Run([]string{"emotes", "list", "variants"})
	if code := exitCode(t, err); code != exitConfigError {
		t.Errorf("exit code = %d, want %d", code, exitConfigError)
	}
}

func TestVersionCommand_RejectsTUI(t *testing.T) {
	err := newTestApp(VersionCommand("abc123")).Run([]string{"emotes", "version", "--tui"})
	if code := exitCode(t, err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
