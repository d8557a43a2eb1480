// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autobrr/crossseed/pkg/torznab"
)

func TestFindCandidates(t *testing.T) {
	results := []torznab.TorrentResult{
		{Name: "Example.S01E01.1080p.WEB.h264-GRP", Link: "l0"},
		{Name: "Example S01E01 1080p WEB h264 GRP", Link: "l1"},
		{Name: "Example.S01E02.1080p.WEB.h264-GRP", Link: "l2"},
		{Name: "Example.S01E01.1080p.WEB.h264-GRP.PROPER", Link: "l3"},
		{Name: "", Link: "l4"},
	}

	got := findCandidates("Example.S01E01.1080p.WEB.h264-GRP", results)

	assert.Equal(t, []int{0, 1, 3}, got)
}

func TestFindCandidates_EmptyName(t *testing.T) {
	assert.Nil(t, findCandidates("  ", []torznab.TorrentResult{{Name: "x", Link: "y"}}))
}

func TestIsCandidate(t *testing.T) {
	assert.True(t, isCandidate("example s01e01", "example s01e01"))
	assert.True(t, isCandidate("example s01e01 repack", "example s01e01"))
	assert.False(t, isCandidate("example s01e01", "example s01e01 1080p web h264 grp"))
	assert.False(t, isCandidate("example s01e01", ""))
}
