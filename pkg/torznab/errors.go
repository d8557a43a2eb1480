// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupportedFunction is returned when a search function has no encoding (music, book).
	ErrUnsupportedFunction = errors.New("search function not supported")
	// ErrNoCapabilities is returned by Client.Search before capabilities are loaded.
	ErrNoCapabilities = errors.New("capabilities not loaded")
)

// TransportError covers connection failures, timeouts, non-2xx statuses and
// Torznab error documents. StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Code       string // torznab error code, if the indexer returned one
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("torznab %s %s: indexer error %s: %v", e.Op, e.URL, e.Code, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("torznab %s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("torznab %s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether the indexer answered with HTTP 429.
func (e *TransportError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// DecodeError is returned for malformed capability or feed documents and for
// unrecognised capability or parameter tokens.
type DecodeError struct {
	Document string // "caps" or "feed"
	Token    string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("decode %s: unrecognised token %q", e.Document, e.Token)
	}
	return fmt.Sprintf("decode %s: %v", e.Document, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ResultErrorKind names the required feed item field that was missing.
type ResultErrorKind int

const (
	MissingTitle ResultErrorKind = iota + 1
	MissingLink
)

func (k ResultErrorKind) String() string {
	switch k {
	case MissingTitle:
		return "missing title"
	case MissingLink:
		return "missing link"
	default:
		return "unknown"
	}
}

// ResultError records a feed item that was excluded from the results.
type ResultError struct {
	Kind  ResultErrorKind
	Index int // position of the item in the feed
	GUID  string
}

func (e *ResultError) Error() string {
	if e.GUID != "" {
		return fmt.Sprintf("feed item %d (%s): %s", e.Index, e.GUID, e.Kind)
	}
	return fmt.Sprintf("feed item %d: %s", e.Index, e.Kind)
}

// CapabilityMismatchError is returned before any request is sent when the
// indexer does not advertise the requested search type or parameter.
type CapabilityMismatchError struct {
	Capability SearchCapability
	Param      SupportedParam // empty when the search type itself is unsupported
}

func (e *CapabilityMismatchError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s does not accept parameter %q", e.Capability, e.Param)
	}
	return fmt.Sprintf("%s is not supported by the indexer", e.Capability)
}
