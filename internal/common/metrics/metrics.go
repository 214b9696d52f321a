// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"route", "method"},
	)

	AnalysisCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_calls_total",
			Help: "Total number of remote analysis function calls",
		},
		[]string{"function", "status"},
	)

	AnalysisCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "analysis_call_duration_seconds",
			Help: "Duration of remote analysis function calls in seconds",
		},
		[]string{"function"},
	)

	StageAdvancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stage_advances_total",
			Help: "Total number of stage transitions run",
		},
		[]string{"from_stage", "status"},
	)

	ProjectWatchersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "project_watchers_active",
			Help: "Number of live project list streams",
		},
	)
)
