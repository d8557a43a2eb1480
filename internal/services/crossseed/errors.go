// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"
	"errors"
	"fmt"

	"github.com/autobrr/crossseed/pkg/torznab"
)

// Failure kinds used in reports and metrics labels.
const (
	KindSuccess            = "success"
	KindUnavailable        = "unavailable"
	KindCapabilityMismatch = "capability_mismatch"
	KindTransport          = "transport"
	KindDecode             = "decode"
	KindCanceled           = "canceled"
	KindUnsupported        = "unsupported"
	KindNoCapabilities     = "no_capabilities"
	KindEmptyName          = "empty_name"
	KindOther              = "error"
)

// ErrEmptyName is recorded for torrents without a display name; nothing is sent.
var ErrEmptyName = errors.New("torrent has no name to search for")

// UnavailableError marks a pair whose indexer could not be initialized.
type UnavailableError struct {
	Indexer string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("indexer %s unavailable: %v", e.Indexer, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// FailureKind classifies err for reporting. A nil error is KindSuccess.
func FailureKind(err error) string {
	if err == nil {
		return KindSuccess
	}

	var (
		unavailable *UnavailableError
		mismatch    *torznab.CapabilityMismatchError
		transport   *torznab.TransportError
		decode      *torznab.DecodeError
	)

	switch {
	case errors.As(err, &unavailable):
		return KindUnavailable
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &mismatch):
		return KindCapabilityMismatch
	case errors.As(err, &transport):
		// per request timeouts land here too
		return KindTransport
	case errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &decode):
		return KindDecode
	case errors.Is(err, torznab.ErrUnsupportedFunction):
		return KindUnsupported
	case errors.Is(err, torznab.ErrNoCapabilities):
		return KindNoCapabilities
	case errors.Is(err, ErrEmptyName):
		return KindEmptyName
	default:
		return KindOther
	}
}
