// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httphelpers

import (
	"io"
)

// maxDrainBytes caps how much of an unread body is consumed before closing.
// Larger leftovers cost more than a new connection.
const maxDrainBytes = 64 << 10

// DrainAndClose discards up to maxDrainBytes of body and closes it so the
// connection can go back to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, body, maxDrainBytes)
	_ = body.Close()
}
