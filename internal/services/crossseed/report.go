// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/autobrr/crossseed/internal/torrents"
	"github.com/autobrr/crossseed/pkg/torznab"
)

// Outcome is the result of searching one indexer for one torrent.
type Outcome struct {
	TorrentIndex int
	Indexer      string
	Torrent      torrents.Torrent
	Function     string

	Results    []torznab.TorrentResult
	ItemErrors []*torznab.ResultError
	// Candidates indexes into Results.
	Candidates []int

	Err     error
	Elapsed time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Report aggregates a pass. Outcomes are ordered by torrent, then by indexer
// in configuration order.
type Report struct {
	Started  time.Time
	Duration time.Duration

	Outcomes []Outcome
	// Skipped lists disabled indexers.
	Skipped []string
	// Unavailable maps indexers whose client could not be built to the cause.
	Unavailable map[string]error
}

type Summary struct {
	Pairs               int
	Succeeded           int
	Failed              int
	SkippedIndexers     int
	UnavailableIndexers int
	Results             int
	Candidates          int
	ItemErrors          int
	FailuresByKind      map[string]int
}

func (r *Report) Summary() Summary {
	s := Summary{
		Pairs:               len(r.Outcomes),
		SkippedIndexers:     len(r.Skipped),
		UnavailableIndexers: len(r.Unavailable),
		FailuresByKind:      make(map[string]int),
	}

	for _, o := range r.Outcomes {
		if o.Err != nil {
			s.Failed++
			s.FailuresByKind[FailureKind(o.Err)]++
			continue
		}
		s.Succeeded++
		s.Results += len(o.Results)
		s.Candidates += len(o.Candidates)
		s.ItemErrors += len(o.ItemErrors)
	}

	return s
}

// IsSkipped reports whether name was excluded as disabled.
func (r *Report) IsSkipped(name string) bool {
	for _, skipped := range r.Skipped {
		if skipped == name {
			return true
		}
	}
	return false
}

// ForIndexer returns the outcomes of one indexer in torrent order.
func (r *Report) ForIndexer(name string) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Indexer == name {
			out = append(out, o)
		}
	}
	return out
}

// WriteText renders the report as an aligned table followed by totals.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "TORRENT\tINDEXER\tSTATUS\tRESULTS\tCANDIDATES")
	for _, o := range r.Outcomes {
		status := KindSuccess
		if o.Err != nil {
			status = FailureKind(o.Err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", o.Torrent.Name, o.Indexer, status, len(o.Results), len(o.Candidates))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range r.Outcomes {
		for _, idx := range o.Candidates {
			result := o.Results[idx]
			fmt.Fprintf(w, "candidate: %s <- %s [%s] %s\n", o.Torrent.Name, result.Name, o.Indexer, result.Link)
		}
	}

	for _, o := range r.Outcomes {
		var unavailable *UnavailableError
		if o.Err != nil && !errors.As(o.Err, &unavailable) {
			fmt.Fprintf(w, "error: %s [%s]: %v\n", o.Torrent.Name, o.Indexer, o.Err)
		}
	}

	names := make([]string, 0, len(r.Unavailable))
	for name := range r.Unavailable {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "unavailable: %s: %v\n", name, r.Unavailable[name])
	}
	for _, name := range r.Skipped {
		fmt.Fprintf(w, "skipped: %s (disabled)\n", name)
	}

	s := r.Summary()
	_, err := fmt.Fprintf(w, "searched %d pairs in %s: %d succeeded, %d failed, %d results, %d candidates\n",
		s.Pairs, r.Duration.Round(time.Millisecond), s.Succeeded, s.Failed, s.Results, s.Candidates)
	return err
}
