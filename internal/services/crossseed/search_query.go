// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"math"
	"regexp"
	"strings"

	"github.com/autobrr/crossseed/pkg/releases"
	"github.com/autobrr/crossseed/pkg/stringutils"
	"github.com/autobrr/crossseed/pkg/torznab"
)

// SearchQuery is the planned request for one torrent against one indexer.
type SearchQuery struct {
	Function torznab.SearchFunction
	Generic  torznab.GenericSearchParameters
}

var (
	bracketSegment = regexp.MustCompile(`\[[^\]]+\]`)
	emptyParens    = regexp.MustCompile(`\(\s*\)`)

	titles = stringutils.NewTitleCache(0)
)

// QueryPlanner picks the search function for a torrent name. Without smart
// queries every torrent is a free text search for its display name.
type QueryPlanner struct {
	parser *releases.Parser
	smart  bool
}

func NewQueryPlanner(parser *releases.Parser, smart bool) *QueryPlanner {
	if smart && parser == nil {
		parser = releases.NewDefaultParser()
	}
	return &QueryPlanner{parser: parser, smart: smart}
}

// Plan builds the query for name using only what caps advertise.
func (p *QueryPlanner) Plan(name string, caps *torznab.Capabilities) SearchQuery {
	name = strings.TrimSpace(name)
	if name == "" {
		return SearchQuery{Function: torznab.Search{}}
	}

	if p != nil && p.smart {
		if query, ok := p.plan(name, caps); ok {
			return query
		}
	}

	return SearchQuery{
		Function: torznab.Search{},
		Generic:  torznab.NewGenericSearchBuilder().Query(name).Build(),
	}
}

func (p *QueryPlanner) plan(name string, caps *torznab.Capabilities) (SearchQuery, bool) {
	info := p.parser.Parse(name)

	if info.Kind == releases.KindOther {
		return SearchQuery{}, false
	}

	generic := torznab.NewGenericSearchBuilder().Query(info.Title).Build()

	switch info.Kind {
	case releases.KindEpisode, releases.KindSeason:
		season, ok := toUint16(info.Season)
		if !ok {
			return SearchQuery{}, false
		}
		required := []torznab.SupportedParam{torznab.ParamQuery, torznab.ParamSeason}

		builder := torznab.NewTVSearchBuilder().Season(season)
		if info.Kind == releases.KindEpisode {
			episode, ok := toUint16(info.Episode)
			if !ok {
				return SearchQuery{}, false
			}
			builder.Episode(episode)
			required = append(required, torznab.ParamEpisode)
		}

		if !supportsAll(caps, torznab.CapabilityTVSearch, required) {
			return SearchQuery{}, false
		}
		return SearchQuery{
			Function: torznab.TVSearch{Params: builder.Build()},
			Generic:  generic,
		}, true

	case releases.KindMovie:
		if !supportsAll(caps, torznab.CapabilityMovieSearch, []torznab.SupportedParam{torznab.ParamQuery}) {
			return SearchQuery{}, false
		}
		return SearchQuery{
			Function: torznab.MovieSearch{},
			Generic:  generic,
		}, true
	}

	return SearchQuery{}, false
}

func supportsAll(caps *torznab.Capabilities, capability torznab.SearchCapability, params []torznab.SupportedParam) bool {
	if !caps.DoesSupportSearch(capability) {
		return false
	}
	for _, param := range params {
		if !caps.DoesSearchSupportParam(capability, param) {
			return false
		}
	}
	return true
}

func toUint16(v int) (uint16, bool) {
	if v <= 0 || v > math.MaxUint16 {
		return 0, false
	}
	return uint16(v), true
}

// cleanTitle turns a release name into space separated lowercase words with
// bracketed groups and diacritics removed.
func cleanTitle(name string) string {
	working := bracketSegment.ReplaceAllString(name, " ")
	working = emptyParens.ReplaceAllString(working, " ")
	return titles.Normalize(working)
}
