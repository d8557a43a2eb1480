// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package redact hides indexer credentials in URLs, errors and log lines.
package redact

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

const placeholder = "REDACTED"

// sensitiveParams are matched case-insensitively.
var sensitiveParams = []string{"apikey", "api_key", "passkey", "token", "password"}

var sensitiveParamRegex = regexp.MustCompile(`(?i)(apikey|api_key|passkey|token|password)=([^&\s"']*)`)

var userinfoPasswordRegex = regexp.MustCompile(`(://[^/:@\s]+):([^@\s]+)@`)

// URLString replaces credential query values and userinfo passwords with REDACTED.
// Unparseable input falls back to String. The raw string is returned when
// nothing needed redacting, so query encoding is left untouched.
func URLString(raw string) string {
	if raw == "" {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return String(raw)
	}

	modified := false

	if parsed.User != nil {
		if _, ok := parsed.User.Password(); ok {
			parsed.User = url.UserPassword(parsed.User.Username(), placeholder)
			modified = true
		}
	}

	query := parsed.Query()
	for key := range query {
		if isSensitive(key) {
			query[key] = []string{placeholder}
			modified = true
		}
	}

	if !modified {
		return raw
	}

	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// URLError returns a copy of a wrapped *url.Error with its URL redacted.
// Other errors are returned unchanged.
func URLError(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{
			Op:  urlErr.Op,
			URL: URLString(urlErr.URL),
			Err: urlErr.Err,
		}
	}

	return err
}

// String redacts key=value credentials and userinfo passwords anywhere in s.
func String(s string) string {
	if s == "" {
		return s
	}
	s = sensitiveParamRegex.ReplaceAllString(s, "${1}="+placeholder)
	return userinfoPasswordRegex.ReplaceAllString(s, "${1}:"+placeholder+"@")
}

func isSensitive(key string) bool {
	for _, param := range sensitiveParams {
		if strings.EqualFold(key, param) {
			return true
		}
	}
	return false
}
