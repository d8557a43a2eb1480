// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/autobrr/crossseed/internal/torrents"
	"github.com/autobrr/crossseed/pkg/releases"
	"github.com/autobrr/crossseed/pkg/torznab"
)

const (
	DefaultWorkers               = 8
	DefaultPerIndexerConcurrency = 2
)

// Observer receives search events, typically the metrics manager.
type Observer interface {
	CapabilitiesFetched(indexer string, err error)
	SearchCompleted(indexer, result string, elapsed time.Duration, results, skipped int)
	RunCompleted(torrents int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) CapabilitiesFetched(string, error)                       {}
func (nopObserver) SearchCompleted(string, string, time.Duration, int, int) {}
func (nopObserver) RunCompleted(int, time.Duration)                         {}

// ClientFactory builds an indexer client. The default loads capabilities eagerly.
type ClientFactory func(ctx context.Context, cfg torznab.Config) (*torznab.Client, error)

type Options struct {
	// Workers caps concurrent pairs across all indexers.
	Workers int
	// PerIndexerConcurrency caps in-flight searches per indexer.
	PerIndexerConcurrency int

	RequestTimeout time.Duration
	RetryAttempts  uint
	UserAgent      string
	HTTPClient     *http.Client

	SmartQueries bool
	Parser       *releases.Parser

	NewClient ClientFactory
	Observer  Observer
}

// Service fans searches for local torrents out to the configured indexers.
type Service struct {
	opts     Options
	indexers []*Indexer
	limiters map[*Indexer]*semaphore.Weighted
	planner  *QueryPlanner
	observer Observer
	log      zerolog.Logger
}

func NewService(indexers []*Indexer, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.PerIndexerConcurrency <= 0 {
		opts.PerIndexerConcurrency = DefaultPerIndexerConcurrency
	}
	if opts.NewClient == nil {
		opts.NewClient = torznab.NewClient
	}

	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	limiters := make(map[*Indexer]*semaphore.Weighted, len(indexers))
	for _, ix := range indexers {
		limiters[ix] = semaphore.NewWeighted(int64(opts.PerIndexerConcurrency))
	}

	return &Service{
		opts:     opts,
		indexers: indexers,
		limiters: limiters,
		planner:  NewQueryPlanner(opts.Parser, opts.SmartQueries),
		observer: observer,
		log:      log.With().Str("component", "crossseed").Logger(),
	}
}

// Indexers returns the configured indexers in order, including disabled ones.
func (s *Service) Indexers() []*Indexer {
	return s.indexers
}

// SearchNames runs a pass over bare display names.
func (s *Service) SearchNames(ctx context.Context, names []string) *Report {
	list := make([]torrents.Torrent, len(names))
	for i, name := range names {
		list[i] = torrents.Torrent{Name: name}
	}
	return s.Run(ctx, list)
}

// Run searches every enabled indexer for every torrent. Each pair succeeds or
// fails on its own; the report holds one outcome per pair ordered by torrent
// and then indexer. Disabled indexers are listed as skipped.
func (s *Service) Run(ctx context.Context, list []torrents.Torrent) *Report {
	started := time.Now()
	report := &Report{
		Started:     started,
		Unavailable: make(map[string]error),
	}

	active := make([]*Indexer, 0, len(s.indexers))
	for _, ix := range s.indexers {
		if !ix.Enabled {
			report.Skipped = append(report.Skipped, ix.Name)
			continue
		}
		ix.resetFailed()
		active = append(active, ix)
	}

	s.log.Info().
		Int("torrents", len(list)).
		Int("indexers", len(active)).
		Int("skipped", len(report.Skipped)).
		Msg("Starting cross-seed search")

	outcomes := make([]Outcome, len(list)*len(active))
	for ti, torrent := range list {
		for ii, ix := range active {
			outcomes[ti*len(active)+ii] = Outcome{TorrentIndex: ti, Indexer: ix.Name, Torrent: torrent}
		}
	}

	workers := semaphore.NewWeighted(int64(s.opts.Workers))

	var g errgroup.Group
	for ii, ix := range active {
		column := make([]*Outcome, len(list))
		for ti := range list {
			column[ti] = &outcomes[ti*len(active)+ii]
		}
		g.Go(func() error {
			s.dispatch(ctx, ix, column, workers)
			return nil
		})
	}
	_ = g.Wait()

	for _, ix := range active {
		if err := ix.InitError(); err != nil {
			report.Unavailable[ix.Name] = err
		}
	}

	report.Outcomes = outcomes
	report.Duration = time.Since(started)
	s.observer.RunCompleted(len(list), report.Duration)

	summary := report.Summary()
	s.log.Info().
		Int("pairs", summary.Pairs).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("results", summary.Results).
		Int("candidates", summary.Candidates).
		Dur("elapsed", report.Duration).
		Msg("Cross-seed search finished")

	return report
}

// dispatch feeds one indexer's pairs into the shared worker pool. A pair
// takes its indexer permit before it competes for a worker, so a slow
// indexer never holds more than PerIndexerConcurrency workers.
func (s *Service) dispatch(ctx context.Context, ix *Indexer, column []*Outcome, workers *semaphore.Weighted) {
	if len(column) == 0 {
		return
	}
	if err := ctx.Err(); err != nil {
		setErr(column, err)
		return
	}

	client, err := ix.Client(ctx, s.buildClient(ix))
	if err != nil {
		if ctx.Err() == nil {
			err = &UnavailableError{Indexer: ix.Name, Err: err}
		}
		setErr(column, err)
		return
	}

	limiter := s.limiters[ix]

	var g errgroup.Group
	for i, out := range column {
		if strings.TrimSpace(out.Torrent.Name) == "" {
			out.Err = ErrEmptyName
			continue
		}
		if err := limiter.Acquire(ctx, 1); err != nil {
			setErr(column[i:], err)
			break
		}
		if err := workers.Acquire(ctx, 1); err != nil {
			limiter.Release(1)
			setErr(column[i:], err)
			break
		}

		g.Go(func() error {
			defer limiter.Release(1)
			defer workers.Release(1)
			s.searchPair(ctx, ix, client, out)
			return nil
		})
	}
	_ = g.Wait()
}

func setErr(outs []*Outcome, err error) {
	for _, out := range outs {
		out.Err = err
	}
}

func (s *Service) searchPair(ctx context.Context, ix *Indexer, client *torznab.Client, out *Outcome) {
	logger := s.log.With().Str("indexer", ix.Name).Str("torrent", out.Torrent.Name).Logger()

	query := s.planner.Plan(out.Torrent.Name, client.Capabilities())
	out.Function = query.Function.Function()

	start := time.Now()
	feed, err := client.Search(ctx, query.Function, query.Generic)
	out.Elapsed = time.Since(start)

	if err != nil {
		kind := FailureKind(err)
		out.Err = err
		s.observer.SearchCompleted(ix.Name, kind, out.Elapsed, 0, 0)
		logger.Warn().Err(err).Str("kind", kind).Msg("Search failed")
		return
	}

	out.Results = feed.Results
	out.ItemErrors = feed.Skipped
	out.Candidates = findCandidates(out.Torrent.Name, feed.Results)

	s.observer.SearchCompleted(ix.Name, KindSuccess, out.Elapsed, len(feed.Results), len(feed.Skipped))
	logger.Debug().
		Str("function", out.Function).
		Int("results", len(feed.Results)).
		Int("candidates", len(out.Candidates)).
		Dur("elapsed", out.Elapsed).
		Msg("Search completed")
}

func (s *Service) buildClient(ix *Indexer) func(context.Context) (*torznab.Client, error) {
	return func(ctx context.Context) (*torznab.Client, error) {
		client, err := s.opts.NewClient(ctx, torznab.Config{
			Name:          ix.Name,
			BaseURL:       ix.URL,
			APIKey:        ix.APIKey,
			HTTPClient:    s.opts.HTTPClient,
			Timeout:       s.opts.RequestTimeout,
			RetryAttempts: s.opts.RetryAttempts,
			UserAgent:     s.opts.UserAgent,
		})
		if ctx.Err() == nil {
			s.observer.CapabilitiesFetched(ix.Name, err)
		}
		if err != nil {
			s.log.Error().Err(err).Str("indexer", ix.Name).Msg("Indexer unavailable for this run")
		}
		return client, err
	}
}
