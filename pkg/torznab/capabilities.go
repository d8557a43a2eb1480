// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"encoding/xml"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SearchCapability is a search type advertised in the <searching> section of a caps document.
type SearchCapability string

const (
	CapabilitySearch      SearchCapability = "search"
	CapabilityTVSearch    SearchCapability = "tv-search"
	CapabilityMovieSearch SearchCapability = "movie-search"
	CapabilityMusicSearch SearchCapability = "music-search"
	CapabilityAudioSearch SearchCapability = "audio-search"
	CapabilityBookSearch  SearchCapability = "book-search"
)

// ParseSearchCapability maps a caps element name to a SearchCapability.
func ParseSearchCapability(s string) (SearchCapability, error) {
	switch c := SearchCapability(strings.ToLower(strings.TrimSpace(s))); c {
	case CapabilitySearch, CapabilityTVSearch, CapabilityMovieSearch,
		CapabilityMusicSearch, CapabilityAudioSearch, CapabilityBookSearch:
		return c, nil
	default:
		return "", &DecodeError{Document: "caps", Token: s}
	}
}

// SupportedParam is a query parameter token listed in supportedParams.
type SupportedParam string

const (
	ParamQuery   SupportedParam = "q"
	ParamSeason  SupportedParam = "season"
	ParamEpisode SupportedParam = "ep"
	ParamIMDB    SupportedParam = "imdbid"
	ParamTMDB    SupportedParam = "tmdbid"
	ParamTVDB    SupportedParam = "tvdbid"

	ParamRID    SupportedParam = "rid"
	ParamTVMaze SupportedParam = "tvmazeid"
	ParamTrakt  SupportedParam = "traktid"
	ParamDouban SupportedParam = "doubanid"
	ParamYear   SupportedParam = "year"
	ParamGenre  SupportedParam = "genre"
	ParamArtist SupportedParam = "artist"
	ParamAlbum  SupportedParam = "album"
	ParamLabel  SupportedParam = "label"
	ParamTrack  SupportedParam = "track"
	ParamAuthor SupportedParam = "author"
	ParamTitle  SupportedParam = "title"
)

var knownParams = map[SupportedParam]struct{}{
	ParamQuery: {}, ParamSeason: {}, ParamEpisode: {}, ParamIMDB: {}, ParamTMDB: {}, ParamTVDB: {},
	ParamRID: {}, ParamTVMaze: {}, ParamTrakt: {}, ParamDouban: {}, ParamYear: {}, ParamGenre: {},
	ParamArtist: {}, ParamAlbum: {}, ParamLabel: {}, ParamTrack: {}, ParamAuthor: {}, ParamTitle: {},
}

// ParseSupportedParam maps a supportedParams token to a SupportedParam.
// Unknown tokens are reported as a *DecodeError.
func ParseSupportedParam(s string) (SupportedParam, error) {
	p := SupportedParam(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownParams[p]; !ok {
		return "", &DecodeError{Document: "caps", Token: s}
	}
	return p, nil
}

// Category is a node of the indexer's category tree.
type Category struct {
	ID            int
	Name          string
	Subcategories []Category
}

// Capabilities describes what one indexer supports. A value is never mutated
// after ParseCapabilities returns it.
type Capabilities struct {
	Categories []Category
	// Searching holds only the search types marked available.
	Searching map[SearchCapability]map[SupportedParam]struct{}
}

// DoesSupportSearch reports whether the indexer advertises capability as available.
func (c *Capabilities) DoesSupportSearch(capability SearchCapability) bool {
	if c == nil {
		return false
	}
	_, ok := c.Searching[capability]
	return ok
}

// DoesSearchSupportParam reports whether capability is available and accepts param.
func (c *Capabilities) DoesSearchSupportParam(capability SearchCapability, param SupportedParam) bool {
	if c == nil {
		return false
	}
	params, ok := c.Searching[capability]
	if !ok {
		return false
	}
	_, ok = params[param]
	return ok
}

// SupportedParams returns the sorted parameter list for capability.
func (c *Capabilities) SupportedParams(capability SearchCapability) []SupportedParam {
	if c == nil {
		return nil
	}
	params := make([]SupportedParam, 0, len(c.Searching[capability]))
	for p := range c.Searching[capability] {
		params = append(params, p)
	}
	slices.Sort(params)
	return params
}

// IsEmpty reports whether no search type is available.
func (c *Capabilities) IsEmpty() bool {
	return c == nil || len(c.Searching) == 0
}

type capsResponse struct {
	XMLName    xml.Name       `xml:"caps"`
	Searching  searchingNodes `xml:"searching"`
	Categories []categoryNode `xml:"categories>category"`
}

type searchingNodes struct {
	Nodes []searchNode `xml:",any"`
}

type searchNode struct {
	XMLName         xml.Name
	Available       string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr"`
}

type categoryNode struct {
	ID      string         `xml:"id,attr"`
	Name    string         `xml:"name,attr"`
	Subcats []categoryNode `xml:"subcat"`
}

// ParseCapabilities decodes a t=caps response body.
func ParseCapabilities(r io.Reader) (*Capabilities, error) {
	var resp capsResponse
	if err := xml.NewDecoder(r).Decode(&resp); err != nil {
		return nil, &DecodeError{Document: "caps", Err: errors.Wrap(err, "decode caps response")}
	}

	caps := &Capabilities{
		Searching: make(map[SearchCapability]map[SupportedParam]struct{}),
	}

	for _, node := range resp.Searching.Nodes {
		if !isAvailable(node.Available) {
			continue
		}

		capability, err := ParseSearchCapability(node.XMLName.Local)
		if err != nil {
			return nil, err
		}

		params, err := parseSupportedParams(node.SupportedParams)
		if err != nil {
			return nil, err
		}
		caps.Searching[capability] = params
	}

	categories, err := parseCategories(resp.Categories)
	if err != nil {
		return nil, err
	}
	caps.Categories = categories

	return caps, nil
}

func parseSupportedParams(value string) (map[SupportedParam]struct{}, error) {
	params := make(map[SupportedParam]struct{})
	for token := range strings.SplitSeq(value, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		param, err := ParseSupportedParam(token)
		if err != nil {
			return nil, err
		}
		params[param] = struct{}{}
	}
	return params, nil
}

func parseCategories(nodes []categoryNode) ([]Category, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	categories := make([]Category, 0, len(nodes))
	for _, node := range nodes {
		id, err := strconv.Atoi(strings.TrimSpace(node.ID))
		if err != nil {
			return nil, &DecodeError{Document: "caps", Err: errors.Wrapf(err, "category %q id", node.Name)}
		}

		subs, err := parseCategories(node.Subcats)
		if err != nil {
			return nil, err
		}

		categories = append(categories, Category{
			ID:            id,
			Name:          strings.TrimSpace(node.Name),
			Subcategories: subs,
		})
	}
	return categories, nil
}

func isAvailable(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "yes")
}
