// Copyright 2026 The Salome Launcher Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launcher

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetricsCollector implements MetricsCollector with a private
// Prometheus registry.
type PrometheusMetricsCollector struct {
	state        prometheus.Gauge
	transitions  *prometheus.CounterVec
	starts       *prometheus.CounterVec
	spawnLatency *prometheus.HistogramVec
	exits        *prometheus.CounterVec
	errors       *prometheus.CounterVec
	termDuration *prometheus.HistogramVec
	cleanup      *prometheus.CounterVec
	pollErrors   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewPrometheusMetricsCollector creates a collector.  An empty
// namespace means "salome_launcher".
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "salome_launcher"
	}
	pmc := &PrometheusMetricsCollector{registry: prometheus.NewRegistry()}

	pmc.state = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_state",
		Help:      "Current supervisor state (0 idle .. 5 stopped)",
	})
	pmc.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_state_transitions_total",
		Help:      "Total number of supervisor state transitions",
	}, []string{"from_state", "to_state"})
	pmc.starts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "service_starts_total",
		Help:      "Total number of services started",
	}, []string{"service"})
	pmc.spawnLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "service_spawn_duration_seconds",
		Help:      "Time taken to spawn a service",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"service"})
	pmc.exits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "service_exits_total",
		Help:      "Total number of service exits by status",
	}, []string{"service", "status"})
	pmc.errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "service_errors_total",
		Help:      "Total number of service errors",
	}, []string{"service", "error_type"})
	pmc.termDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "service_termination_duration_seconds",
		Help:      "Time taken to stop a service",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service"})
	pmc.cleanup = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_warnings_total",
		Help:      "Total number of failed teardown steps",
	}, []string{"kind"})
	pmc.pollErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_errors_total",
		Help:      "Total number of failed or interrupted waits",
	}, []string{"interrupted"})

	pmc.registry.MustRegister(
		pmc.state,
		pmc.transitions,
		pmc.starts,
		pmc.spawnLatency,
		pmc.exits,
		pmc.errors,
		pmc.termDuration,
		pmc.cleanup,
		pmc.pollErrors,
	)
	return pmc
}

// Registry returns the registry holding the collector's metrics.
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (pmc *PrometheusMetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pmc.registry, promhttp.HandlerOpts{})
}

func (pmc *PrometheusMetricsCollector) StateTransition(from, to State) {
	pmc.state.Set(float64(to))
	pmc.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (pmc *PrometheusMetricsCollector) ServiceStarted(service string, d time.Duration) {
	pmc.starts.WithLabelValues(service).Inc()
	pmc.spawnLatency.WithLabelValues(service).Observe(d.Seconds())
}

func (pmc *PrometheusMetricsCollector) ServiceExited(service string, status Status) {
	pmc.exits.WithLabelValues(service, status.String()).Inc()
}

func (pmc *PrometheusMetricsCollector) ServiceError(service, kind string) {
	pmc.errors.WithLabelValues(service, kind).Inc()
}

func (pmc *PrometheusMetricsCollector) TerminationDuration(service string, d time.Duration) {
	pmc.termDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (pmc *PrometheusMetricsCollector) CleanupWarning(kind string) {
	pmc.cleanup.WithLabelValues(kind).Inc()
}

func (pmc *PrometheusMetricsCollector) PollError(interrupted bool) {
	label := "false"
	if interrupted {
		label = "true"
	}
	pmc.pollErrors.WithLabelValues(label).Inc()
}
