// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"net/url"
	"strconv"
	"strings"
)

// GenericSearchParameters holds the fields shared by every search function.
// Nil or empty fields are left out of the encoded query.
type GenericSearchParameters struct {
	Query      *string
	Categories []int
	Attributes []string
	// Extended requests all extended attributes and overrides Attributes on the indexer side.
	Extended *bool
	Offset   *int
	Limit    *int
}

// Encode returns the query fragment in the order q, cat, attrs, extended, offset, limit.
// Every field is prefixed with '&'.
func (p GenericSearchParameters) Encode() string {
	var sb strings.Builder

	if p.Query != nil {
		sb.WriteString("&q=")
		sb.WriteString(escapeQuery(*p.Query))
	}
	if len(p.Categories) > 0 {
		cats := make([]string, len(p.Categories))
		for i, c := range p.Categories {
			cats[i] = strconv.Itoa(c)
		}
		sb.WriteString("&cat=")
		sb.WriteString(strings.Join(cats, ","))
	}
	if len(p.Attributes) > 0 {
		sb.WriteString("&attrs=")
		sb.WriteString(strings.Join(p.Attributes, ","))
	}
	if p.Extended != nil {
		if *p.Extended {
			sb.WriteString("&extended=1")
		} else {
			sb.WriteString("&extended=0")
		}
	}
	writeInt(&sb, "offset", p.Offset)
	writeInt(&sb, "limit", p.Limit)

	return sb.String()
}

// TVSearchParameters are the tvsearch specific fields.
type TVSearchParameters struct {
	RID      *int
	TVDBID   *int
	TVMazeID *int
	Season   *uint16
	Episode  *uint16
}

// Encode returns the query fragment in the order rid, tvdbid, tvmazeid, season, ep.
func (p TVSearchParameters) Encode() string {
	var sb strings.Builder
	writeInt(&sb, "rid", p.RID)
	writeInt(&sb, "tvdbid", p.TVDBID)
	writeInt(&sb, "tvmazeid", p.TVMazeID)
	writeUint16(&sb, "season", p.Season)
	writeUint16(&sb, "ep", p.Episode)
	return sb.String()
}

func (p TVSearchParameters) usedParams() []SupportedParam {
	var params []SupportedParam
	if p.RID != nil {
		params = append(params, ParamRID)
	}
	if p.TVDBID != nil {
		params = append(params, ParamTVDB)
	}
	if p.TVMazeID != nil {
		params = append(params, ParamTVMaze)
	}
	if p.Season != nil {
		params = append(params, ParamSeason)
	}
	if p.Episode != nil {
		params = append(params, ParamEpisode)
	}
	return params
}

// MovieSearchParameters are the movie search specific fields.
type MovieSearchParameters struct {
	IMDBID *int
}

// Encode returns "&imdbid=<id>" or an empty string.
func (p MovieSearchParameters) Encode() string {
	var sb strings.Builder
	writeInt(&sb, "imdbid", p.IMDBID)
	return sb.String()
}

func (p MovieSearchParameters) usedParams() []SupportedParam {
	if p.IMDBID != nil {
		return []SupportedParam{ParamIMDB}
	}
	return nil
}

// escapeQuery percent-encodes a query component, spaces included as %20.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func writeInt(sb *strings.Builder, key string, v *int) {
	if v == nil {
		return
	}
	sb.WriteByte('&')
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(strconv.Itoa(*v))
}

func writeUint16(sb *strings.Builder, key string, v *uint16) {
	if v == nil {
		return
	}
	sb.WriteByte('&')
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(strconv.FormatUint(uint64(*v), 10))
}
