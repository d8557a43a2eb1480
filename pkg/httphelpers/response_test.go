// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httphelpers

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainAndClose(t *testing.T) {
	big := bytes.Repeat([]byte("x"), maxDrainBytes*2)
	reader := bytes.NewReader(big)
	body := &trackingBody{Reader: reader}

	DrainAndClose(body)

	assert.True(t, body.closed)
	assert.Equal(t, maxDrainBytes, reader.Len(), "drain stops at the cap")

	DrainAndClose(nil)
}
