// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Common torznab attribute names.
const (
	AttrSize     = "size"
	AttrSeeders  = "seeders"
	AttrPeers    = "peers"
	AttrInfoHash = "infohash"
	AttrCategory = "category"
)

// TorrentResult is one search hit. Name and Link are always set; the other
// fields are filled when the indexer provides them.
type TorrentResult struct {
	Name        string
	Link        string
	GUID        string
	Size        int64
	PublishDate time.Time
	Seeders     int
	InfoHash    string
	Attributes  map[string][]string
}

// Attr returns the first value of a torznab attribute.
func (r TorrentResult) Attr(name string) string {
	if values := r.Attributes[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// torznabErrorDoc is the <error code=".." description=".."/> document some
// indexers return with a 200 status.
type torznabErrorDoc struct {
	Code        string `xml:"code,attr"`
	Description string `xml:"description,attr"`
	Message     string `xml:",chardata"`
}

func (e torznabErrorDoc) text() string {
	if msg := strings.TrimSpace(e.Description); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Message)
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title     string `xml:"title"`
	GUID      string `xml:"guid"`
	Link      string `xml:"link"`
	PubDate   string `xml:"pubDate"`
	Size      string `xml:"size"`
	Enclosure struct {
		URL    string `xml:"url,attr"`
		Length string `xml:"length,attr"`
	} `xml:"enclosure"`
	Attr []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	} `xml:"attr"`
}

// FeedResult is the decoded search response.
type FeedResult struct {
	Results []TorrentResult
	// Skipped lists items left out because a required field was missing.
	Skipped []*ResultError
}

// DecodeFeed decodes an RSS search response. A Torznab error document is
// returned as a *TransportError; malformed XML as a *DecodeError.
func DecodeFeed(body []byte) (*FeedResult, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, &DecodeError{Document: "feed", Err: errors.New("empty document")}
		}
		if err != nil {
			return nil, &DecodeError{Document: "feed", Err: errors.Wrap(err, "decode feed response")}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "error":
			var doc torznabErrorDoc
			if err := dec.DecodeElement(&doc, &start); err != nil {
				return nil, &DecodeError{Document: "feed", Err: errors.Wrap(err, "decode torznab error response")}
			}
			return nil, &TransportError{Op: "search", Code: doc.Code, Err: errors.New(doc.text())}
		case "rss":
			var rss struct {
				Channel rssChannel `xml:"channel"`
			}
			if err := dec.DecodeElement(&rss, &start); err != nil {
				return nil, &DecodeError{Document: "feed", Err: errors.Wrap(err, "decode feed response")}
			}
			return convertItems(rss.Channel.Items), nil
		default:
			return nil, &DecodeError{Document: "feed", Err: errors.Errorf("unexpected root element <%s>", start.Name.Local)}
		}
	}
}

func convertItems(items []rssItem) *FeedResult {
	out := &FeedResult{Results: make([]TorrentResult, 0, len(items))}

	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		guid := strings.TrimSpace(item.GUID)

		if title == "" {
			out.Skipped = append(out.Skipped, &ResultError{Kind: MissingTitle, Index: i, GUID: guid})
			continue
		}
		if link == "" {
			out.Skipped = append(out.Skipped, &ResultError{Kind: MissingLink, Index: i, GUID: guid})
			continue
		}

		result := TorrentResult{
			Name:       title,
			Link:       link,
			GUID:       guid,
			Attributes: make(map[string][]string, len(item.Attr)),
		}
		for _, attr := range item.Attr {
			result.Attributes[attr.Name] = append(result.Attributes[attr.Name], attr.Value)
		}

		result.Size = firstInt64(item.Size, result.Attr(AttrSize), item.Enclosure.Length)
		result.Seeders, _ = strconv.Atoi(result.Attr(AttrSeeders))
		result.InfoHash = strings.ToLower(result.Attr(AttrInfoHash))
		result.PublishDate = parsePubDate(item.PubDate)

		out.Results = append(out.Results, result)
	}

	return out
}

func firstInt64(values ...string) int64 {
	for _, v := range values {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func parsePubDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
