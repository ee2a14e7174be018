// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides Prometheus instrumentation for a searchdb.Index.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns a private Prometheus registry and the collectors searchdbctl
// exposes. A disabled Manager is a safe, fully functional no-op so callers
// never need to branch on whether metrics are turned on.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	queries      *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec
	resultSize   *prometheus.HistogramVec
	docsIndexed  prometheus.Gauge
}

// Config controls which collectors are registered.
type Config struct {
	Enabled         bool
	LatencyBuckets  []float64
	ResultSizeRange []float64
}

// DefaultConfig returns sensible bucket boundaries for a single-process,
// in-memory index where queries are expected to complete in well under a
// second.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		LatencyBuckets:  []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		ResultSizeRange: prometheus.LinearBuckets(0, 5, 10),
	}
}

// NewManager constructs a Manager. When cfg.Enabled is false, the returned
// Manager discards every observation and Handler serves 404.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{registry: registry, enabled: true}

	m.queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchdb",
		Name:      "queries_total",
		Help:      "Queries served, by modality (bm25, knn, union).",
	}, []string{"modality"})

	m.queryLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "searchdb",
		Name:      "query_duration_seconds",
		Help:      "Query latency, by modality.",
		Buckets:   cfg.LatencyBuckets,
	}, []string{"modality"})

	m.resultSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "searchdb",
		Name:      "query_result_size",
		Help:      "Number of results returned, by modality.",
		Buckets:   cfg.ResultSizeRange,
	}, []string{"modality"})

	m.docsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "searchdb",
		Name:      "documents_indexed",
		Help:      "Number of documents currently present in the lexical sub-index.",
	})

	registry.MustRegister(m.queries, m.queryLatency, m.resultSize, m.docsIndexed)
	return m
}

// Enabled reports whether this Manager is actively collecting.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// ObserveQuery records one query of the given modality ("bm25", "knn", or
// "union"), its wall-clock duration, and the number of results it returned.
func (m *Manager) ObserveQuery(modality string, d time.Duration, resultCount int) {
	if !m.enabled {
		return
	}
	m.queries.WithLabelValues(modality).Inc()
	m.queryLatency.WithLabelValues(modality).Observe(d.Seconds())
	m.resultSize.WithLabelValues(modality).Observe(float64(resultCount))
}

// SetDocumentsIndexed records the current size of the lexical sub-index.
func (m *Manager) SetDocumentsIndexed(n int) {
	if !m.enabled {
		return
	}
	m.docsIndexed.Set(float64(n))
}

// Handler returns the HTTP handler serving this Manager's registry in the
// Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing Handler at /metrics on addr, shutting
// down cleanly when ctx is cancelled.
func (m *Manager) Serve(ctx context.Context, addr string) error {
	if !m.enabled {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}
