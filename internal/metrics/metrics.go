// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bmcstress"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultStop    = "stop"
	ResultPass    = "continue"
)

// Recorder collects the metrics of one bmcstress invocation on a dedicated registry.
// A nil Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	readyAttempts *prometheus.HistogramVec
	stopDecisions *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed reset cycles by action and result.",
		}, []string{"action", "result"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a reset cycle including the readiness wait.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"action"}),
		readyAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "readiness_attempts",
			Help:      "Readiness checks needed until the BMC reported ready.",
			Buckets:   prometheus.LinearBuckets(1, 5, 12),
		}, []string{"action"}),
		stopDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stop_check_decisions_total",
			Help:      "Stop-check decisions by firing signal.",
		}, []string{"signal", "result"}),
	}
	r.registry.MustRegister(r.cycles, r.cycleDuration, r.readyAttempts, r.stopDecisions)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveCycle(action string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	r.cycles.WithLabelValues(action, result).Inc()
	r.cycleDuration.WithLabelValues(action).Observe(duration.Seconds())
}

func (r *Recorder) ObserveReadiness(action string, attempts int) {
	if r == nil || attempts <= 0 {
		return
	}
	r.readyAttempts.WithLabelValues(action).Observe(float64(attempts))
}

// ObserveStopDecision counts a decision; signal is empty when nothing fired.
func (r *Recorder) ObserveStopDecision(signal string, stop bool) {
	if r == nil {
		return
	}
	result := ResultPass
	if stop {
		result = ResultStop
	}
	if signal == "" {
		signal = "none"
	}
	r.stopDecisions.WithLabelValues(signal, result).Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
