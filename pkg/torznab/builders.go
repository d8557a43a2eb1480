// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

// GenericSearchBuilder accumulates GenericSearchParameters. Nothing is
// validated until the parameters are used in a search.
type GenericSearchBuilder struct {
	p GenericSearchParameters
}

func NewGenericSearchBuilder() *GenericSearchBuilder {
	return &GenericSearchBuilder{}
}

func (b *GenericSearchBuilder) Query(q string) *GenericSearchBuilder {
	b.p.Query = &q
	return b
}

func (b *GenericSearchBuilder) Category(ids ...int) *GenericSearchBuilder {
	b.p.Categories = append(b.p.Categories, ids...)
	return b
}

func (b *GenericSearchBuilder) Attribute(names ...string) *GenericSearchBuilder {
	b.p.Attributes = append(b.p.Attributes, names...)
	return b
}

func (b *GenericSearchBuilder) Extended(v bool) *GenericSearchBuilder {
	b.p.Extended = &v
	return b
}

func (b *GenericSearchBuilder) Offset(n int) *GenericSearchBuilder {
	b.p.Offset = &n
	return b
}

func (b *GenericSearchBuilder) Limit(n int) *GenericSearchBuilder {
	b.p.Limit = &n
	return b
}

// Build returns a copy, so the builder can keep being used.
func (b *GenericSearchBuilder) Build() GenericSearchParameters {
	p := b.p
	p.Categories = append([]int(nil), b.p.Categories...)
	p.Attributes = append([]string(nil), b.p.Attributes...)
	return p
}

// TVSearchBuilder accumulates TVSearchParameters.
type TVSearchBuilder struct {
	p TVSearchParameters
}

func NewTVSearchBuilder() *TVSearchBuilder {
	return &TVSearchBuilder{}
}

func (b *TVSearchBuilder) RID(id int) *TVSearchBuilder {
	b.p.RID = &id
	return b
}

func (b *TVSearchBuilder) TVDBID(id int) *TVSearchBuilder {
	b.p.TVDBID = &id
	return b
}

func (b *TVSearchBuilder) TVMazeID(id int) *TVSearchBuilder {
	b.p.TVMazeID = &id
	return b
}

func (b *TVSearchBuilder) Season(n uint16) *TVSearchBuilder {
	b.p.Season = &n
	return b
}

func (b *TVSearchBuilder) Episode(n uint16) *TVSearchBuilder {
	b.p.Episode = &n
	return b
}

func (b *TVSearchBuilder) Build() TVSearchParameters {
	return b.p
}

// MovieSearchBuilder accumulates MovieSearchParameters.
type MovieSearchBuilder struct {
	p MovieSearchParameters
}

func NewMovieSearchBuilder() *MovieSearchBuilder {
	return &MovieSearchBuilder{}
}

func (b *MovieSearchBuilder) IMDBID(id int) *MovieSearchBuilder {
	b.p.IMDBID = &id
	return b
}

func (b *MovieSearchBuilder) Build() MovieSearchParameters {
	return b.p
}
