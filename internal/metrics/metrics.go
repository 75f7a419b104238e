// Package metrics exposes Prometheus collectors for the sync service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Project outcomes recorded by ObserveProject.
const (
	OutcomeSynced  = "synced"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	projectsTotal              *prometheus.CounterVec
	fetchRequestsTotal         *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	branchesScanned            prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		projectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_projects_total",
				Help: "Total number of projects processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_fetch_requests_total",
				Help: "Total number of source host requests, labeled by kind and result.",
			},
			[]string{"kind", "result"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "showcase_fetch_duration_seconds",
				Help:    "Histogram of source host request latencies, labeled by kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"kind"},
		)

		branchesScanned = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "showcase_branches_scanned",
				Help:    "Branches visited per project before both files were found or the list ran out.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveProject increments the project counter for the given outcome.
func ObserveProject(outcome string) {
	Init()
	projectsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one request to the source host. kind is "branches"
// or "file"; result is "ok", "absent" or "error".
func ObserveFetch(kind, result string, duration time.Duration) {
	Init()
	fetchRequestsTotal.WithLabelValues(kind, result).Inc()
	fetchDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveBranchesScanned records how far a branch scan went.
func ObserveBranchesScanned(n int) {
	Init()
	branchesScanned.Observe(float64(n))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
