// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"testing"
	"time"

	"github.com/moistari/rls"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		release rls.Release
		want    Info
	}{
		{
			name:    "episode",
			release: rls.Release{Type: rls.Episode, Title: "Test Show", Series: 1, Episode: 2},
			want:    Info{Kind: KindEpisode, Title: "Test Show", Season: 1, Episode: 2},
		},
		{
			name:    "season pack",
			release: rls.Release{Type: rls.Series, Title: "Test Show", Series: 3},
			want:    Info{Kind: KindSeason, Title: "Test Show", Season: 3},
		},
		{
			name:    "movie",
			release: rls.Release{Type: rls.Movie, Title: "Test Movie", Year: 2024},
			want:    Info{Kind: KindMovie, Title: "Test Movie", Year: 2024},
		},
		{
			name:    "episode without numbers",
			release: rls.Release{Type: rls.Episode, Title: "Test Show"},
			want:    Info{Kind: KindOther, Title: "Test Show"},
		},
		{
			name:    "no title",
			release: rls.Release{Type: rls.Movie, Year: 2024},
			want:    Info{Kind: KindOther, Year: 2024},
		},
		{
			name:    "unknown",
			release: rls.Release{Type: rls.Unknown, Title: "Some Album"},
			want:    Info{Kind: KindOther, Title: "Some Album"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.release))
		})
	}
}

func TestParserParse(t *testing.T) {
	p := NewParser(time.Minute)

	info := p.Parse("Example.Show.S01E05.1080p.WEB.h264-GRP")
	assert.Equal(t, KindEpisode, info.Kind)
	assert.Equal(t, 1, info.Season)
	assert.Equal(t, 5, info.Episode)

	assert.Equal(t, info, p.Parse("  Example.Show.S01E05.1080p.WEB.h264-GRP  "), "cached by trimmed name")
	assert.Equal(t, Info{}, p.Parse("   "))

	var nilParser *Parser
	assert.Equal(t, KindEpisode, nilParser.Parse("Example.Show.S01E05.1080p.WEB.h264-GRP").Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "episode", KindEpisode.String())
	assert.Equal(t, "season", KindSeason.String())
	assert.Equal(t, "movie", KindMovie.String())
	assert.Equal(t, "other", KindOther.String())
}
