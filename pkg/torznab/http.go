// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/autobrr/go-qbittorrent/errors"
	"github.com/avast/retry-go"

	"github.com/autobrr/crossseed/pkg/httphelpers"
	"github.com/autobrr/crossseed/pkg/redact"
)

// get issues a GET for the given fragment and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, op, fragment string) ([]byte, error) {
	reqURL := c.requestURL(fragment)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: c.redactedBase(), Err: errors.Wrap(redact.URLError(err), "could not build request")}
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: c.redactedBase(), Err: err}
	}
	defer httphelpers.DrainAndClose(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{Op: op, URL: c.redactedBase(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, URL: c.redactedBase(), Err: errors.Wrap(redact.URLError(err), "failed to read response")}
	}

	return body, nil
}

// retryDo retries connection failures only. Any HTTP response, whatever the
// status, ends the loop.
func (c *Client) retryDo(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response

	err := retry.Do(func() error {
		var err error
		resp, err = c.http.Do(req)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return retry.Unrecoverable(redact.URLError(err))
		}
		return redact.URLError(err)
	},
		retry.Context(ctx),
		retry.Attempts(c.cfg.RetryAttempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug().Err(err).Uint("attempt", n+1).Msg("Retrying torznab request")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error making request: %v", redact.URLString(req.URL.String()))
	}

	return resp, nil
}

func (c *Client) redactedBase() string {
	return redact.URLString(c.cfg.BaseURL)
}
