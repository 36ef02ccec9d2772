// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus mirrors of the journal counters. The journal is the durable
// record; these exist for live dashboards.
var (
	phaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "profiler",
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Wall time per pipeline phase.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"category"},
	)

	phaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profiler",
			Subsystem: "pipeline",
			Name:      "phase_total",
			Help:      "Completed phase spans by outcome.",
		},
		[]string{"category", "status"},
	)

	costTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profiler",
			Subsystem: "pipeline",
			Name:      "cost_usd_total",
			Help:      "Accumulated provider cost in USD.",
		},
		[]string{"category"},
	)

	tokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profiler",
			Subsystem: "pipeline",
			Name:      "tokens_total",
			Help:      "LLM tokens by direction.",
		},
		[]string{"direction"},
	)

	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profiler",
			Subsystem: "pipeline",
			Name:      "cache_hits_total",
			Help:      "Cache provenance of phase results.",
		},
		[]string{"category", "kind"},
	)
)
