// Movie Night - Random Movie Picker for Plex
// Copyright 2026 Movie Night contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/movienight-dev/movienight

// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// the selection engine, the filter cache, and upstream media-server calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Selection engine metrics
	PicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picks_total",
			Help: "Total number of movie pick requests",
		},
		[]string{"scope", "outcome"}, // scope: "library", "playlist"; outcome: "ok", "empty", "error"
	)

	PickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pick_duration_seconds",
			Help:    "Duration of movie selection in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	// Filter cache metrics
	FilterCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_cache_hits_total",
			Help: "Total number of filter option cache hits",
		},
	)

	FilterCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_cache_misses_total",
			Help: "Total number of filter option cache misses",
		},
	)

	FilterCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filter_cache_entries",
			Help: "Current number of cached filter option sets",
		},
	)

	// Upstream media-server metrics
	PlexRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plex_requests_total",
			Help: "Total number of requests to the media server and plex.tv",
		},
		[]string{"operation", "outcome"}, // outcome: "ok", "error"
	)

	PlexRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plex_request_duration_seconds",
			Help:    "Duration of media-server requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Session metrics
	SessionsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_issued_total",
			Help: "Total number of session cookies issued or refreshed",
		},
	)

	SessionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_rejected_total",
			Help: "Total number of session cookies that failed signature validation",
		},
	)
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordPick records one selection run.
func RecordPick(scope string, results int, duration time.Duration, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "empty"
	}
	PicksTotal.WithLabelValues(scope, outcome).Inc()
	PickDuration.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordPlexRequest records one upstream call.
func RecordPlexRequest(operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	PlexRequestsTotal.WithLabelValues(operation, outcome).Inc()
	PlexRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFilterCacheLookup records a filter-option cache hit or miss.
func RecordFilterCacheLookup(hit bool) {
	if hit {
		FilterCacheHits.Inc()
	} else {
		FilterCacheMisses.Inc()
	}
}
