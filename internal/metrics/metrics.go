// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

const namespace = "crossseed"

// MetricsManager owns the registry and the search instrumentation.
type MetricsManager struct {
	registry *prometheus.Registry

	capsRequests   *prometheus.CounterVec
	searches       *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	results        *prometheus.CounterVec
	skippedItems   *prometheus.CounterVec
	runs           prometheus.Counter
	runDuration    prometheus.Histogram
	lastRun        prometheus.Gauge
	torrents       prometheus.Gauge
}

func NewMetricsManager() *MetricsManager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsManager{
		registry: registry,
		capsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_requests_total",
			Help:      "Capability discovery requests by indexer and result.",
		}, []string{"indexer", "result"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search attempts by indexer and result.",
		}, []string{"indexer", "result"}),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency by indexer.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"indexer"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Results returned by indexer.",
		}, []string{"indexer"}),
		skippedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_feed_items_total",
			Help:      "Feed items dropped for a missing title or link.",
		}, []string{"indexer"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed search passes.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a search pass.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed pass.",
		}),
		torrents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "torrents",
			Help:      "Local torrents searched in the last pass.",
		}),
	}

	registry.MustRegister(
		m.capsRequests,
		m.searches,
		m.searchDuration,
		m.results,
		m.skippedItems,
		m.runs,
		m.runDuration,
		m.lastRun,
		m.torrents,
	)

	log.Debug().Msg("Metrics manager initialized with collectors")

	return m
}

func (m *MetricsManager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// CapabilitiesFetched records one capability discovery request.
func (m *MetricsManager) CapabilitiesFetched(indexer string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.capsRequests.WithLabelValues(indexer, result).Inc()
}

// SearchCompleted records one search attempt. result is "success" or a failure kind.
func (m *MetricsManager) SearchCompleted(indexer, result string, elapsed time.Duration, results, skipped int) {
	m.searches.WithLabelValues(indexer, result).Inc()
	m.searchDuration.WithLabelValues(indexer).Observe(elapsed.Seconds())
	if results > 0 {
		m.results.WithLabelValues(indexer).Add(float64(results))
	}
	if skipped > 0 {
		m.skippedItems.WithLabelValues(indexer).Add(float64(skipped))
	}
}

// RunCompleted records a finished pass.
func (m *MetricsManager) RunCompleted(torrents int, elapsed time.Duration) {
	m.runs.Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.lastRun.SetToCurrentTime()
	m.torrents.Set(float64(torrents))
}
