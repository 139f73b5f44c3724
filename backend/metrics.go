// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. Each server gets its
// own registry so tests can run several servers in one process.
type Metrics struct {
	Registry *prometheus.Registry

	ActionsApplied *prometheus.CounterVec
	ActionsFailed  *prometheus.CounterVec
	SaveFailures   prometheus.Counter
	ThreeOuts      prometheus.Counter
	ActionLatency  prometheus.Histogram
	WSClients      prometheus.Gauge
}

// NewMetrics creates and registers the scorebook collectors. activeHubs is
// sampled on every scrape.
func NewMetrics(activeHubs func() int) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ActionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorebook",
			Name:      "actions_applied_total",
			Help:      "Scoring actions applied to games, by action type.",
		}, []string{"type"}),
		ActionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scorebook",
			Name:      "actions_rejected_total",
			Help:      "Scoring actions rejected by the ledger, by action type.",
		}, []string{"type"}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scorebook",
			Name:      "save_failures_total",
			Help:      "Game saves that failed after a mutation. The in-memory game is kept.",
		}),
		ThreeOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scorebook",
			Name:      "three_outs_notices_total",
			Help:      "Three-outs notices pushed to clients.",
		}),
		ActionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scorebook",
			Name:      "action_batch_seconds",
			Help:      "Time spent applying and persisting one action batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scorebook",
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients.",
		}),
	}
	reg.MustRegister(
		m.ActionsApplied,
		m.ActionsFailed,
		m.SaveFailures,
		m.ThreeOuts,
		m.ActionLatency,
		m.WSClients,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "scorebook",
			Name:      "active_hubs",
			Help:      "Games with a live hub goroutine.",
		}, func() float64 { return float64(activeHubs()) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeBatch(start time.Time) {
	m.ActionLatency.Observe(time.Since(start).Seconds())
}
