// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/crossseed/internal/torrents"
	"github.com/autobrr/crossseed/pkg/torznab"
)

const searchOnlyCaps = `<caps><searching>
	<search available="yes" supportedParams="q"/>
	<tv-search available="no" supportedParams="q,season,ep"/>
</searching></caps>`

// gauge tracks in-flight handlers and the highest value seen.
type gauge struct {
	cur  atomic.Int32
	peak atomic.Int32
}

func (g *gauge) enter() {
	n := g.cur.Add(1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (g *gauge) leave() {
	g.cur.Add(-1)
}

type fakeIndexer struct {
	caps         atomic.Int32
	searches     atomic.Int32
	searchStatus int
	delay        time.Duration

	inflight   gauge
	shared     *gauge
	lastSearch atomic.Int64 // unix nanos of the last finished search

	mu      sync.Mutex
	queries []string
}

func newFakeIndexer(t *testing.T) (*fakeIndexer, *httptest.Server) {
	return newFakeIndexerWith(t, http.StatusOK, 0)
}

func newFakeIndexerWith(t *testing.T, searchStatus int, delay time.Duration) (*fakeIndexer, *httptest.Server) {
	return newGaugedIndexer(t, searchStatus, delay, nil)
}

// newGaugedIndexer also counts searches against shared, which may be nil.
func newGaugedIndexer(t *testing.T, searchStatus int, delay time.Duration, shared *gauge) (*fakeIndexer, *httptest.Server) {
	t.Helper()

	f := &fakeIndexer{searchStatus: searchStatus, delay: delay, shared: shared}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("t") == torznab.FunctionCaps {
			if f.delay > 0 {
				time.Sleep(f.delay)
			}
			f.caps.Add(1)
			_, _ = w.Write([]byte(searchOnlyCaps))
			return
		}

		f.inflight.enter()
		defer f.inflight.leave()
		if f.shared != nil {
			f.shared.enter()
			defer f.shared.leave()
		}
		defer func() { f.lastSearch.Store(time.Now().UnixNano()) }()

		if f.delay > 0 {
			time.Sleep(f.delay)
		}

		f.searches.Add(1)
		query := r.URL.Query().Get("q")
		f.mu.Lock()
		f.queries = append(f.queries, query)
		f.mu.Unlock()

		if f.searchStatus != http.StatusOK {
			w.WriteHeader(f.searchStatus)
			return
		}
		fmt.Fprintf(w, `<rss version="2.0"><channel>
			<item><title>%s</title><link>%s/dl/1</link></item>
			<item><title>Unrelated.Release.2019</title><link>%s/dl/2</link></item>
		</channel></rss>`, query, "http://"+r.Host, "http://"+r.Host)
	}))
	t.Cleanup(srv.Close)

	return f, srv
}

func (f *fakeIndexer) total() int32 {
	return f.caps.Load() + f.searches.Load()
}

type recordingObserver struct {
	mu       sync.Mutex
	caps     map[string]int
	searches map[string]int
	runs     int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{caps: map[string]int{}, searches: map[string]int{}}
}

func (o *recordingObserver) CapabilitiesFetched(indexer string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.caps[indexer]++
}

func (o *recordingObserver) SearchCompleted(indexer, result string, _ time.Duration, _, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searches[indexer+"/"+result]++
}

func (o *recordingObserver) RunCompleted(int, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
}

func TestServiceRun_FanOutIsolatesFailures(t *testing.T) {
	a, srvA := newFakeIndexerWith(t, http.StatusOK, 5*time.Millisecond)
	b, srvB := newFakeIndexerWith(t, http.StatusInternalServerError, 5*time.Millisecond)

	observer := newRecordingObserver()
	svc := NewService([]*Indexer{
		NewIndexer("a", srvA.URL, "key-a", true),
		NewIndexer("b", srvB.URL, "key-b", true),
	}, Options{Workers: 6, PerIndexerConcurrency: 3, Observer: observer})

	report := svc.SearchNames(context.Background(), []string{"One.S01E01", "Two.S01E02", "Three.S01E03"})

	assert.Equal(t, int32(1), a.caps.Load(), "one caps request for a")
	assert.Equal(t, int32(1), b.caps.Load(), "one caps request for b")
	assert.Equal(t, int32(6), a.searches.Load()+b.searches.Load())
	assert.Equal(t, int32(3), a.searches.Load())
	assert.Equal(t, int32(3), b.searches.Load())

	require.Len(t, report.Outcomes, 6)
	for i, o := range report.Outcomes {
		assert.Equal(t, i/2, o.TorrentIndex)
		switch o.Indexer {
		case "a":
			require.NoError(t, o.Err)
			assert.Len(t, o.Results, 2)
			assert.Equal(t, []int{0}, o.Candidates)
		case "b":
			var transportErr *torznab.TransportError
			require.ErrorAs(t, o.Err, &transportErr)
			assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
		}
	}

	summary := report.Summary()
	assert.Equal(t, 6, summary.Pairs)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 6, summary.Results)
	assert.Equal(t, 3, summary.Candidates)
	assert.Equal(t, 3, summary.FailuresByKind[KindTransport])
	assert.Empty(t, report.Unavailable)

	assert.Equal(t, 1, observer.caps["a"])
	assert.Equal(t, 1, observer.caps["b"])
	assert.Equal(t, 3, observer.searches["a/success"])
	assert.Equal(t, 3, observer.searches["b/transport"])
	assert.Equal(t, 1, observer.runs)
}

func TestServiceRun_UnavailableIndexer(t *testing.T) {
	a, srvA := newFakeIndexer(t)
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	svc := NewService([]*Indexer{
		NewIndexer("a", srvA.URL, "key", true),
		NewIndexer("down", down.URL, "key", true),
	}, Options{})

	report := svc.SearchNames(context.Background(), []string{"One.S01E01", "Two.S01E02", "Three.S01E03"})

	assert.Equal(t, int32(3), a.searches.Load())
	require.Contains(t, report.Unavailable, "down")

	for _, o := range report.ForIndexer("down") {
		var unavailable *UnavailableError
		require.ErrorAs(t, o.Err, &unavailable)
		assert.Equal(t, KindUnavailable, FailureKind(o.Err))
	}
	for _, o := range report.ForIndexer("a") {
		assert.NoError(t, o.Err)
		assert.Len(t, o.Results, 2)
	}
	assert.Equal(t, 6, report.Summary().Results)
}

func TestServiceRun_DisabledIndexerIsSkipped(t *testing.T) {
	a, srvA := newFakeIndexer(t)
	b, srvB := newFakeIndexer(t)

	svc := NewService([]*Indexer{
		NewIndexer("a", srvA.URL, "key", true),
		NewIndexer("b", srvB.URL, "key", false),
	}, Options{})

	report := svc.Run(context.Background(), []torrents.Torrent{{Name: "Example.S01E01", Path: "/data/Example.S01E01.torrent"}})

	assert.Equal(t, int32(1), a.searches.Load())
	assert.Equal(t, int32(0), b.total(), "disabled indexer must not be contacted")

	assert.True(t, report.IsSkipped("b"))
	assert.NotContains(t, report.Unavailable, "b")
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "a", report.Outcomes[0].Indexer)
	assert.NoError(t, report.Outcomes[0].Err)
	assert.Equal(t, torznab.FunctionSearch, report.Outcomes[0].Function)

	a.mu.Lock()
	assert.Equal(t, []string{"Example.S01E01"}, a.queries)
	a.mu.Unlock()

	summary := report.Summary()
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 1, summary.SkippedIndexers)
}

func TestServiceRun_ReusesClientsAcrossRuns(t *testing.T) {
	a, srvA := newFakeIndexer(t)
	svc := NewService([]*Indexer{NewIndexer("a", srvA.URL, "key", true)}, Options{})

	svc.SearchNames(context.Background(), []string{"One"})
	svc.SearchNames(context.Background(), []string{"Two"})

	assert.Equal(t, int32(1), a.caps.Load())
	assert.Equal(t, int32(2), a.searches.Load())
}

func TestServiceRun_RetriesUnavailableIndexerNextRun(t *testing.T) {
	var builds atomic.Int32
	a, srvA := newFakeIndexer(t)

	svc := NewService([]*Indexer{NewIndexer("a", srvA.URL, "key", true)}, Options{
		NewClient: func(ctx context.Context, cfg torznab.Config) (*torznab.Client, error) {
			if builds.Add(1) == 1 {
				return nil, errors.New("caps offline")
			}
			return torznab.NewClient(ctx, cfg)
		},
	})

	first := svc.SearchNames(context.Background(), []string{"One", "Two"})
	assert.Contains(t, first.Unavailable, "a")
	assert.Equal(t, int32(1), builds.Load(), "failure is cached within a run")

	second := svc.SearchNames(context.Background(), []string{"One"})
	assert.Empty(t, second.Unavailable)
	assert.NoError(t, second.Outcomes[0].Err)
	assert.Equal(t, int32(2), builds.Load())
	assert.Equal(t, int32(1), a.searches.Load())
}

func TestServiceRun_CapabilityMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<caps><searching><search available="no"/></searching></caps>`))
	}))
	t.Cleanup(srv.Close)

	svc := NewService([]*Indexer{NewIndexer("a", srv.URL, "key", true)}, Options{})
	report := svc.SearchNames(context.Background(), []string{"One"})

	require.Len(t, report.Outcomes, 1)
	var mismatch *torznab.CapabilityMismatchError
	require.ErrorAs(t, report.Outcomes[0].Err, &mismatch)
	assert.Equal(t, KindCapabilityMismatch, FailureKind(report.Outcomes[0].Err))
}

func TestServiceRun_Cancelled(t *testing.T) {
	a, srvA := newFakeIndexer(t)
	svc := NewService([]*Indexer{NewIndexer("a", srvA.URL, "key", true)}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := svc.SearchNames(ctx, []string{"One", "Two"})

	assert.Equal(t, int32(0), a.total())
	require.Len(t, report.Outcomes, 2)
	for _, o := range report.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Equal(t, KindCanceled, FailureKind(o.Err))
	}
	assert.False(t, svc.Indexers()[0].Initialized(), "cancelled run leaves the cell empty")
}

func TestServiceRun_NoTorrents(t *testing.T) {
	a, srvA := newFakeIndexer(t)
	svc := NewService([]*Indexer{NewIndexer("a", srvA.URL, "key", true)}, Options{})

	report := svc.Run(context.Background(), nil)

	assert.Empty(t, report.Outcomes)
	assert.Equal(t, int32(0), a.total())
}

func TestServiceRun_BoundsConcurrency(t *testing.T) {
	var total gauge
	fakes := make([]*fakeIndexer, 3)
	indexers := make([]*Indexer, 3)
	for i := range fakes {
		f, srv := newGaugedIndexer(t, http.StatusOK, 20*time.Millisecond, &total)
		fakes[i] = f
		indexers[i] = NewIndexer(fmt.Sprintf("ix%d", i), srv.URL, "key", true)
	}

	svc := NewService(indexers, Options{Workers: 4, PerIndexerConcurrency: 2})

	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("Release.%02d", i)
	}
	report := svc.SearchNames(context.Background(), names)

	assert.Equal(t, 0, report.Summary().Failed)
	for i, f := range fakes {
		assert.Equal(t, int32(10), f.searches.Load())
		assert.LessOrEqual(t, f.inflight.peak.Load(), int32(2), "indexer %d exceeded its limit", i)
		assert.Zero(t, f.inflight.cur.Load())
	}
	assert.LessOrEqual(t, total.peak.Load(), int32(4), "worker pool exceeded")
	assert.GreaterOrEqual(t, total.peak.Load(), int32(2), "searches should overlap")
}

func TestServiceRun_SlowIndexerDoesNotStallFastOne(t *testing.T) {
	fast, srvFast := newFakeIndexerWith(t, http.StatusOK, 0)
	slow, srvSlow := newFakeIndexerWith(t, http.StatusOK, 100*time.Millisecond)

	svc := NewService([]*Indexer{
		NewIndexer("fast", srvFast.URL, "key", true),
		NewIndexer("slow", srvSlow.URL, "key", true),
	}, Options{Workers: 2, PerIndexerConcurrency: 1})

	names := make([]string, 10)
	for i := range names {
		names[i] = fmt.Sprintf("Release.%02d", i)
	}

	started := time.Now()
	report := svc.SearchNames(context.Background(), names)
	elapsed := time.Since(started)

	assert.Equal(t, 0, report.Summary().Failed)
	assert.Equal(t, int32(10), fast.searches.Load())
	assert.Equal(t, int32(10), slow.searches.Load())

	fastDone := time.Unix(0, fast.lastSearch.Load()).Sub(started)
	assert.GreaterOrEqual(t, elapsed, time.Second, "slow indexer runs its searches one at a time")
	assert.Less(t, fastDone, elapsed/3, "fast indexer finished at %s of %s", fastDone, elapsed)
}

func TestServiceRun_EmptyNameIsNotSearched(t *testing.T) {
	a, srvA := newFakeIndexer(t)
	svc := NewService([]*Indexer{NewIndexer("a", srvA.URL, "key", true)}, Options{})

	report := svc.SearchNames(context.Background(), []string{"One", "   "})

	assert.Equal(t, int32(1), a.searches.Load())
	require.Len(t, report.Outcomes, 2)
	assert.NoError(t, report.Outcomes[0].Err)
	assert.ErrorIs(t, report.Outcomes[1].Err, ErrEmptyName)
	assert.Equal(t, KindEmptyName, FailureKind(report.Outcomes[1].Err))
}
