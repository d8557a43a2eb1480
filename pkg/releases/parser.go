// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"strings"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/moistari/rls"
)

const defaultParserTTL = 30 * time.Minute

// Kind is the coarse media class of a release name.
type Kind int

const (
	KindOther Kind = iota
	KindEpisode
	KindSeason
	KindMovie
)

func (k Kind) String() string {
	switch k {
	case KindEpisode:
		return "episode"
	case KindSeason:
		return "season"
	case KindMovie:
		return "movie"
	default:
		return "other"
	}
}

// Info is the subset of rls metadata used to plan indexer queries.
type Info struct {
	Kind    Kind
	Title   string
	Year    int
	Season  int
	Episode int
}

// Parser caches parsed release names. Daemon runs see the same names on every
// pass, so entries live for the cache TTL.
type Parser struct {
	cache *ttlcache.Cache[string, Info]
}

// NewParser returns a parser with the provided TTL for cached entries.
func NewParser(ttl time.Duration) *Parser {
	cache := ttlcache.New(ttlcache.Options[string, Info]{}.
		SetDefaultTTL(ttl))
	return &Parser{cache: cache}
}

// NewDefaultParser returns a parser using the default TTL.
func NewDefaultParser() *Parser {
	return NewParser(defaultParserTTL)
}

// Parse returns the release info for name.
func (p *Parser) Parse(name string) Info {
	key := strings.TrimSpace(name)
	if key == "" {
		return Info{}
	}
	if p == nil {
		return classify(rls.ParseString(key))
	}

	if cached, ok := p.cache.Get(key); ok {
		return cached
	}

	info := classify(rls.ParseString(key))
	p.cache.Set(key, info, ttlcache.DefaultTTL)
	return info
}

func classify(r rls.Release) Info {
	info := Info{
		Title: strings.TrimSpace(r.Title),
		Year:  r.Year,
	}

	switch {
	case r.Type == rls.Episode && r.Series > 0 && r.Episode > 0:
		info.Kind = KindEpisode
		info.Season = r.Series
		info.Episode = r.Episode
	case r.Type == rls.Series && r.Series > 0:
		info.Kind = KindSeason
		info.Season = r.Series
	case r.Type == rls.Movie:
		info.Kind = KindMovie
	}

	if info.Title == "" {
		info.Kind = KindOther
	}

	return info
}
