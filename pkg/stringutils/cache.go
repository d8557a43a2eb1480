// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stringutils

import (
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
)

const defaultTitleTTL = 10 * time.Minute

// TitleCache memoizes NormalizeTitle. Result titles repeat across indexers
// and daemon passes, so entries are kept for a while.
type TitleCache struct {
	cache *ttlcache.Cache[string, string]
}

func NewTitleCache(ttl time.Duration) *TitleCache {
	if ttl <= 0 {
		ttl = defaultTitleTTL
	}
	return &TitleCache{
		cache: ttlcache.New(ttlcache.Options[string, string]{}.SetDefaultTTL(ttl)),
	}
}

// Normalize returns NormalizeTitle(s), cached. A nil cache normalizes directly.
func (c *TitleCache) Normalize(s string) string {
	if c == nil {
		return NormalizeTitle(s)
	}
	if cached, ok := c.cache.Get(s); ok {
		return cached
	}
	normalized := NormalizeTitle(s)
	c.cache.Set(s, normalized, ttlcache.DefaultTTL)
	return normalized
}
