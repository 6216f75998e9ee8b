// Package metrics defines the Prometheus metrics of the client state layer.
// Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "matchmate_client"

// HTTPRequestsTotal counts backend requests by status code and method.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Backend requests issued by the client, by status code and method.",
	},
	[]string{"code", "method"},
)

// HTTPRequestDuration measures backend round trips.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Backend round-trip latency.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"code", "method"},
)

// SearchEnvelopeShapeTotal counts which parser variant matched a search
// response. Label:
//   - shape: strict, legacy, best_effort, promoted, empty
var SearchEnvelopeShapeTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_envelope_shape_total",
		Help:      "Search responses by the envelope shape that yielded results.",
	},
	[]string{"shape"},
)

// ProfileSavesTotal counts profile saves. Labels:
//   - mode: create or update
//   - result: ok, noop, error
var ProfileSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_saves_total",
		Help:      "Profile save attempts by mode and result.",
	},
	[]string{"mode", "result"},
)

// FavoriteRemovalFailuresTotal counts optimistic removals whose backend
// call failed and were queued for reconciliation.
var FavoriteRemovalFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorite_removal_failures_total",
		Help:      "Optimistic favourite removals that the backend did not confirm.",
	},
)
