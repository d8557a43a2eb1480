// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/crossseed/pkg/releases"
	"github.com/autobrr/crossseed/pkg/torznab"
)

func capsFrom(t *testing.T, doc string) *torznab.Capabilities {
	t.Helper()
	caps, err := torznab.ParseCapabilities(strings.NewReader(doc))
	require.NoError(t, err)
	return caps
}

const fullCaps = `<caps><searching>
	<search available="yes" supportedParams="q"/>
	<tv-search available="yes" supportedParams="q,season,ep"/>
	<movie-search available="yes" supportedParams="q,imdbid"/>
</searching></caps>`

func TestQueryPlanner_FreeTextByDefault(t *testing.T) {
	planner := NewQueryPlanner(nil, false)

	query := planner.Plan(" Example.Show.S01E05.1080p.WEB.h264-GRP ", capsFrom(t, fullCaps))

	assert.Equal(t, torznab.Search{}, query.Function)
	fragment, err := torznab.EncodeSearch(query.Function, query.Generic)
	require.NoError(t, err)
	assert.Equal(t, "&t=search&q=Example.Show.S01E05.1080p.WEB.h264-GRP", fragment)
}

func TestQueryPlanner_SmartEpisode(t *testing.T) {
	planner := NewQueryPlanner(releases.NewDefaultParser(), true)
	caps := capsFrom(t, fullCaps)

	query := planner.Plan("Example.Show.S01E05.1080p.WEB.h264-GRP", caps)

	require.IsType(t, torznab.TVSearch{}, query.Function)
	require.NoError(t, torznab.CheckCapabilities(caps, query.Function, query.Generic))

	fragment, err := torznab.EncodeSearch(query.Function, query.Generic)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fragment, "&t=tvsearch&season=1&ep=5&q="), fragment)
}

func TestQueryPlanner_SmartFallsBackWithoutEpisodeParam(t *testing.T) {
	planner := NewQueryPlanner(nil, true)
	caps := capsFrom(t, `<caps><searching>
		<search available="yes" supportedParams="q"/>
		<tv-search available="yes" supportedParams="q,season"/>
	</searching></caps>`)

	query := planner.Plan("Example.Show.S01E05.1080p.WEB.h264-GRP", caps)

	assert.Equal(t, torznab.Search{}, query.Function)
	require.NotNil(t, query.Generic.Query)
	assert.Equal(t, "Example.Show.S01E05.1080p.WEB.h264-GRP", *query.Generic.Query)
}

func TestQueryPlanner_SmartMovie(t *testing.T) {
	planner := NewQueryPlanner(nil, true)
	caps := capsFrom(t, fullCaps)

	query := planner.Plan("Example.Movie.2020.1080p.BluRay.x264-GRP", caps)

	require.IsType(t, torznab.MovieSearch{}, query.Function)
	require.NotNil(t, query.Generic.Query)
	assert.NotContains(t, *query.Generic.Query, "1080p")
	assert.NoError(t, torznab.CheckCapabilities(caps, query.Function, query.Generic))
}

func TestQueryPlanner_SmartUnknownName(t *testing.T) {
	planner := NewQueryPlanner(nil, true)

	query := planner.Plan("random words", capsFrom(t, fullCaps))

	assert.Equal(t, torznab.Search{}, query.Function)
}

func TestQueryPlanner_EmptyNameOmitsQuery(t *testing.T) {
	for _, smart := range []bool{false, true} {
		query := NewQueryPlanner(nil, smart).Plan("  \t ", capsFrom(t, fullCaps))

		assert.Equal(t, torznab.Search{}, query.Function)
		assert.Nil(t, query.Generic.Query)
		fragment, err := torznab.EncodeSearch(query.Function, query.Generic)
		require.NoError(t, err)
		assert.Equal(t, "&t=search", fragment)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Example.Show.S01E05.1080p-GRP", "example show s01e05 1080p grp"},
		{"[Group] Some_Anime - 12 ()", "some anime 12"},
		{"Shōgun.S01E01", "shogun s01e01"},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanTitle(tt.in))
		})
	}
}

func TestToUint16(t *testing.T) {
	v, ok := toUint16(12)
	assert.True(t, ok)
	assert.Equal(t, uint16(12), v)

	_, ok = toUint16(0)
	assert.False(t, ok)
	_, ok = toUint16(70000)
	assert.False(t, ok)
}
