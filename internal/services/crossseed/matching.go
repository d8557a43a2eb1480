// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/autobrr/crossseed/pkg/torznab"
)

// maxMatchDistance bounds how many extra characters a result title may carry
// over the local name and still count as a candidate.
const maxMatchDistance = 8

// findCandidates returns the indexes of results whose title looks like the
// same release as name. Titles are compared after cleanTitle.
func findCandidates(name string, results []torznab.TorrentResult) []int {
	local := cleanTitle(name)
	if local == "" {
		return nil
	}

	var matches []int
	for i, result := range results {
		if isCandidate(local, cleanTitle(result.Name)) {
			matches = append(matches, i)
		}
	}
	return matches
}

func isCandidate(local, remote string) bool {
	if remote == "" {
		return false
	}
	if local == remote {
		return true
	}

	// Either side may carry extra tags, so try both directions.
	if rank := fuzzy.RankMatchNormalizedFold(local, remote); rank >= 0 && rank <= maxMatchDistance {
		return true
	}
	if rank := fuzzy.RankMatchNormalizedFold(remote, local); rank >= 0 && rank <= maxMatchDistance {
		return true
	}
	return false
}
