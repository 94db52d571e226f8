// Copyright 2026 David Meisner. All Rights Reserved.
//
// Created: July 2026
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry is cachebash-go's optional Prometheus export, an
// addition over the source (which only ever prints to stdout). It is
// safe to leave disabled: every exported function no-ops until Enable is
// called, the same opt-in shape as the teacher's telemetry/churn package.
package telemetry

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmeisner/cachebash-go/internal/loadgen/stats"
)

// Config controls whether and where metrics are exported.
type Config struct {
	// Addr is the listen address for the /metrics endpoint, e.g. ":9090".
	// Empty disables the endpoint (and Enable becomes a no-op).
	Addr string
}

var (
	enabled atomic.Bool

	statCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cachebash_stat_count",
		Help: "Number of samples recorded for a statistic since the last print interval",
	}, []string{"stat"})
	statAverage = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cachebash_stat_average",
		Help: "Running average of a statistic's samples",
	}, []string{"stat"})
	statMin = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cachebash_stat_min",
		Help: "Minimum observed sample for a statistic",
	}, []string{"stat"})
	statMax = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cachebash_stat_max",
		Help: "Maximum observed sample for a statistic",
	}, []string{"stat"})
	statP50 = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cachebash_stat_p50",
		Help: "50th percentile of a statistic's samples",
	}, []string{"stat"})
	statP99 = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cachebash_stat_p99",
		Help: "99th percentile of a statistic's samples",
	}, []string{"stat"})
	statOverflow = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cachebash_stat_overflow_total",
		Help: "Samples clamped into the top histogram bin because they exceeded the 1000s ceiling",
	}, []string{"stat"})
)

func init() {
	prometheus.MustRegister(statCount, statAverage, statMin, statMax, statP50, statP99, statOverflow)
}

// Enable turns on metrics export. Safe to call multiple times. If
// cfg.Addr is empty, export stays disabled — Observe becomes a no-op.
func Enable(cfg Config) {
	if cfg.Addr == "" {
		enabled.Store(false)
		return
	}
	enabled.Store(true)
	startServer(cfg.Addr)
}

// Enabled reports whether telemetry export is active.
func Enabled() bool { return enabled.Load() }

// Observe pushes every registered statistic in c into the Prometheus
// gauges. The Reporter calls this once per print interval, right
// alongside Collection.Print, so the two views of the data never drift.
func Observe(c *stats.Collection) {
	if !enabled.Load() {
		return
	}
	for _, name := range c.Names() {
		s := c.Get(name)
		statCount.WithLabelValues(name).Set(float64(s.Count()))
		statAverage.WithLabelValues(name).Set(s.Average())
		statMin.WithLabelValues(name).Set(float64(s.Min()))
		statMax.WithLabelValues(name).Set(float64(s.Max()))
		statP50.WithLabelValues(name).Set(float64(s.Quantile(0.5)))
		statP99.WithLabelValues(name).Set(float64(s.Quantile(0.99)))
		if overflow := s.Overflow; overflow > 0 {
			counter := statOverflow.WithLabelValues(name)
			counter.Add(float64(overflow))
		}
	}
}

// startServer serves /metrics on addr in the background. It is not
// gracefully stopped — the process exiting is what tears it down,
// matching the lifetime of the worker goroutines it sits alongside.
func startServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
