// Package sink exports run summaries to external monitoring systems.
package sink

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalnine/trackbench/internal/stats"
)

const namespace = "trackbench"

// Registry builds a private registry holding one sample per group. Groups
// without data only export the run counters.
func Registry(runID string, summaries []stats.Summary) (*prometheus.Registry, error) {
	labels := []string{"label"}
	constLabels := prometheus.Labels{"run_id": runID}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, labels)
	}

	mean := gauge("ms_per_event_mean", "Mean event processing time in milliseconds.")
	variance := gauge("ms_per_event_variance", "Population variance of event processing time.")
	stddev := gauge("ms_per_event_stddev", "Standard deviation of event processing time.")
	runs := gauge("runs_total", "Benchmark invocations in the group.")
	withValue := gauge("runs_with_value", "Invocations that produced a metric value.")

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{mean, variance, stddev, runs, withValue} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	for _, s := range summaries {
		runs.WithLabelValues(s.Label).Set(float64(s.Runs))
		withValue.WithLabelValues(s.Label).Set(float64(s.Count))
		if !s.HasData() {
			continue
		}
		mean.WithLabelValues(s.Label).Set(s.Mean)
		variance.WithLabelValues(s.Label).Set(s.Variance)
		stddev.WithLabelValues(s.Label).Set(s.StdDev)
	}
	return reg, nil
}

// WritePrometheusTextfile writes the summaries in the text exposition format
// for the node exporter textfile collector.
func WritePrometheusTextfile(path, runID string, summaries []stats.Summary) error {
	reg, err := Registry(runID, summaries)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing textfile %s: %w", path, err)
	}
	return nil
}
