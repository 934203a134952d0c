// Package catalog retrieves remote emote catalogs.
//
// A catalog lists the (id, code) pairs that belong to a channel. Channel
// names are mapped to numeric ids through the catalog site's search
// endpoint; the base set (id 0) needs no lookup.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pithecene-io/emotes/iox"
	"github.com/pithecene-io/emotes/types"
)

const (
	// DefaultAPIURL is the catalog API base.
	DefaultAPIURL = "https://api.twitchemotes.com/api/v4"
	// DefaultSiteURL hosts the channel search endpoint.
	DefaultSiteURL = "https://www.twitchemotes.com"
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second
)

// maxCatalogBytes bounds the decoded response body.
const maxCatalogBytes = 16 << 20

// Source is the catalog capability consumed by the engine.
type Source interface {
	// ResolveChannelID maps a configured channel name to its numeric id.
	ResolveChannelID(ctx context.Context, name string) (int, error)
	// FetchCatalog returns the catalog of a channel id.
	FetchCatalog(ctx context.Context, channelID int) (*types.ChannelCatalog, error)
}

// Config configures the HTTP catalog client.
type Config struct {
	// APIURL overrides DefaultAPIURL.
	APIURL string
	// SiteURL overrides DefaultSiteURL.
	SiteURL string
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
	// UserAgent is sent on every request when set.
	UserAgent string
	// Transport overrides the HTTP round tripper (tests).
	Transport http.RoundTripper
}

// Client is the HTTP implementation of Source.
type Client struct {
	apiURL    string
	siteURL   string
	userAgent string
	client    *http.Client
	search    *http.Client
}

// New creates a catalog client.
func New(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		siteURL:   strings.TrimRight(cfg.SiteURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		// The search endpoint answers with a redirect whose target carries the id.
		search: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// FetchCatalog GETs <api>/channels/<id>.
// A 404 yields ErrChannelNotFound; every other failure yields ErrTransport.
func (c *Client) FetchCatalog(ctx context.Context, channelID int) (*types.ChannelCatalog, error) {
	channel := strconv.Itoa(channelID)
	endpoint := c.apiURL + "/channels/" + channel

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, transport("fetch", channel, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transport("fetch", channel, fmt.Errorf("request failed: %w", err))
	}
	defer iox.DrainClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound("fetch", channel)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, transport("fetch", channel, &StatusError{Code: resp.StatusCode})
	}

	var cat types.ChannelCatalog
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes))
	if err := dec.Decode(&cat); err != nil {
		return nil, transport("fetch", channel, fmt.Errorf("decode catalog: %w", err))
	}
	return &cat, nil
}

// ResolveChannelID maps name to a channel id. The global channel name
// resolves to types.GlobalChannelID without a request.
func (c *Client) ResolveChannelID(ctx context.Context, name string) (int, error) {
	if types.IsGlobalChannel(name) {
		return types.GlobalChannelID, nil
	}

	form := url.Values{"query": {name}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.siteURL+"/search/channel", strings.NewReader(form.Encode()))
	if err != nil {
		return 0, transport("resolve", name, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.siteURL+"/")
	c.decorate(req)

	resp, err := c.search.Do(req)
	if err != nil {
		return 0, transport("resolve", name, fmt.Errorf("request failed: %w", err))
	}
	defer iox.DrainClose(resp.Body)

	location := resp.Header.Get("Location")
	if location == "" {
		if resp.StatusCode >= 500 {
			return 0, transport("resolve", name, &StatusError{Code: resp.StatusCode})
		}
		return 0, notFound("resolve", name)
	}
	id, err := parseChannelLocation(location)
	if err != nil {
		return 0, transport("resolve", name, err)
	}
	return id, nil
}

// parseChannelLocation extracts the id from a redirect such as "/channel/1234".
func parseChannelLocation(location string) (int, error) {
	u, err := url.Parse(location)
	if err != nil {
		return 0, fmt.Errorf("parse location %q: %w", location, err)
	}
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	id, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("parse channel id from %q: %w", location, err)
	}
	if id < 0 {
		return 0, fmt.Errorf("negative channel id in %q", location)
	}
	return id, nil
}

func (c *Client) decorate(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	c.search.CloseIdleConnections()
	return nil
}

// Verify Client implements Source.
var _ Source = (*Client)(nil)
