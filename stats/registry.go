// Package stats exposes voxrelay's runtime counters over Prometheus,
// grounded on the package-level NewXVec/MustRegister style kata-containers'
// shim_metrics.go uses rather than a registry object threaded through
// every call site: these are process-wide counters, and every other
// package that needs to touch one imports this package directly and calls
// a named function.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxrelay"

var (
	sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of client/upstream forwarding pairs currently open.",
	})

	framesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Frame records decoded off either connection, by kind.",
	}, []string{"kind"})

	objectsDispatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "objects_dispatched_total",
		Help:      "Objects run through the filter pipeline, by direction and class.",
	}, []string{"direction", "class"})

	filterErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "filter_errors_total",
		Help:      "Filter or speech-rule invocations that panicked and were recovered.",
	})

	pendingResponses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_responses",
		Help:      "Sessions currently holding a suspended multi-turn continuation.",
	})
)

func init() {
	prometheus.MustRegister(
		sessionsActive,
		framesTotal,
		objectsDispatchedTotal,
		filterErrorsTotal,
		pendingResponses,
	)
}

// SessionOpened/SessionClosed track sessionsActive around a Pair's
// lifetime; proxy.Pair.Run brackets itself with these.
func SessionOpened() { sessionsActive.Inc() }
func SessionClosed() { sessionsActive.Dec() }

// FrameDecoded records one decoded frame.Record by its Kind's wire name.
func FrameDecoded(kind string) { framesTotal.WithLabelValues(kind).Inc() }

// ObjectDispatched records one object that reached the filter pipeline.
func ObjectDispatched(direction, class string) {
	objectsDispatchedTotal.WithLabelValues(direction, class).Inc()
}

// FilterError records a recovered panic from a filter or speech rule.
func FilterError() { filterErrorsTotal.Inc() }

// PendingResponseOpened/PendingResponseClosed track a ResponseList (or
// other Continuation) being installed and cleared.
func PendingResponseOpened() { pendingResponses.Inc() }
func PendingResponseClosed() { pendingResponses.Dec() }

// Handler returns the standard Prometheus scrape handler, served over
// net/http rather than fasthttp: nothing about metrics scraping benefits
// from fasthttp's lower-allocation path the way the status page's request
// volume might.
func Handler() http.Handler { return promhttp.Handler() }
