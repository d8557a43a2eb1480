// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every request when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a caps or feed response is read.
const maxResponseBytes = 32 << 20

var sharedHTTPClient = sync.OnceValue(func() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.DialContext = (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &http.Client{Transport: transport}
})

// SharedHTTPClient returns the process wide pooled client used when
// Config.HTTPClient is nil.
func SharedHTTPClient() *http.Client {
	return sharedHTTPClient()
}

// Config describes one indexer endpoint.
type Config struct {
	// Name identifies the indexer in logs and errors.
	Name    string
	BaseURL string
	APIKey  string

	HTTPClient *http.Client
	Timeout    time.Duration
	// RetryAttempts counts total tries for connection failures; 0 and 1 mean no retry.
	RetryAttempts uint
	UserAgent     string
	Log           *zerolog.Logger
}

// Client talks to one Torznab endpoint. It starts without capabilities and
// moves to the loaded state once StoreCapabilities succeeds.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
	caps atomic.Pointer[Capabilities]
}

// NewClient builds a client and loads its capabilities. It fails if the
// capability request fails.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := c.StoreCapabilities(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// NewClientNoCapabilities builds a client without capabilities. Every search
// fails with ErrNoCapabilities until StoreCapabilities succeeds.
func NewClientNoCapabilities(cfg Config) (*Client, error) {
	return newClient(cfg)
}

func newClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("torznab: base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrap(err, "torznab: invalid base url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.Errorf("torznab: unsupported url scheme %q", parsed.Scheme)
	}
	cfg.BaseURL = base

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = SharedHTTPClient()
	}

	logger := log.Logger
	if cfg.Log != nil {
		logger = *cfg.Log
	}

	c := &Client{
		cfg:  cfg,
		http: httpClient,
		log:  logger.With().Str("component", "torznab").Str("indexer", cfg.Name).Logger(),
	}
	return c, nil
}

// Name returns the configured indexer name.
func (c *Client) Name() string {
	return c.cfg.Name
}

var noCapabilities = &Capabilities{}

// Capabilities returns the stored capabilities, or an empty set before the
// first successful StoreCapabilities. The result must not be modified.
func (c *Client) Capabilities() *Capabilities {
	if caps := c.caps.Load(); caps != nil {
		return caps
	}
	return noCapabilities
}

// HasCapabilities reports whether capabilities have been loaded.
func (c *Client) HasCapabilities() bool {
	return c.caps.Load() != nil
}

// RequestCapabilities fetches and decodes t=caps without storing the result.
func (c *Client) RequestCapabilities(ctx context.Context) (*Capabilities, error) {
	body, err := c.get(ctx, "caps", "&t="+FunctionCaps)
	if err != nil {
		return nil, err
	}

	caps, err := ParseCapabilities(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Int("searchTypes", len(caps.Searching)).
		Int("categories", len(caps.Categories)).
		Msg("Fetched torznab capabilities")

	return caps, nil
}

// StoreCapabilities fetches capabilities and replaces the stored value.
// Concurrent readers see either the old or the new value.
func (c *Client) StoreCapabilities(ctx context.Context) (*Capabilities, error) {
	caps, err := c.RequestCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	c.caps.Store(caps)
	return caps, nil
}

// Search runs fn with the generic parameters. The request is only sent when
// the stored capabilities advertise the search type and every parameter used.
// Items missing a title or link are reported in FeedResult.Skipped.
func (c *Client) Search(ctx context.Context, fn SearchFunction, generic GenericSearchParameters) (*FeedResult, error) {
	if fn == nil {
		return nil, errors.New("torznab: nil search function")
	}

	caps := c.caps.Load()
	if caps == nil {
		return nil, ErrNoCapabilities
	}
	if err := CheckCapabilities(caps, fn, generic); err != nil {
		return nil, err
	}

	query, err := EncodeSearch(fn, generic)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fn.Function(), query)
	if err != nil {
		return nil, err
	}

	feed, err := DecodeFeed(body)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			transportErr.URL = c.redactedBase()
		}
		return nil, err
	}

	if len(feed.Skipped) > 0 {
		c.log.Debug().Int("skipped", len(feed.Skipped)).Msg("Dropped incomplete feed items")
	}

	return feed, nil
}

// requestURL joins the base url, the api key and an encoded fragment.
func (c *Client) requestURL(fragment string) string {
	sep := "?"
	if strings.Contains(c.cfg.BaseURL, "?") {
		sep = "&"
	}
	return c.cfg.BaseURL + sep + "apikey=" + escapeQuery(c.cfg.APIKey) + fragment
}
