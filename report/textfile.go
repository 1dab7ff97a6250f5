package report

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile exports the summaries in the Prometheus text format, for
// pickup by the node exporter textfile collector.
func WriteTextfile(path, runID string, summaries []Summary) error {
	registry := prometheus.NewRegistry()

	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalbench_run_info",
			Help: "Identifier of the benchmark run that produced the samples.",
		},
		[]string{"run_id"},
	)

	duration := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalbench_op_duration_nanoseconds",
			Help: "Duration of one benchmark operation by statistic.",
		},
		[]string{"scenario", "method", "size", "stat"},
	)

	allocated := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalbench_op_allocated_bytes",
			Help: "Bytes allocated by one benchmark operation.",
		},
		[]string{"scenario", "method", "size"},
	)

	ratio := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalbench_op_ratio",
			Help: "Mean duration relative to the baseline of the same scenario and size.",
		},
		[]string{"scenario", "method", "size"},
	)

	registry.MustRegister(info, duration, allocated, ratio)

	info.WithLabelValues(runID).Set(1)

	for _, s := range summaries {
		size := strconv.Itoa(s.Size)

		for stat, v := range map[string]float64{
			"mean":   s.Mean,
			"stddev": s.StdDev,
			"min":    s.Min,
			"median": s.Median,
			"max":    s.Max,
		} {
			duration.WithLabelValues(s.Scenario, s.Method, size, stat).Set(v)
		}

		allocated.WithLabelValues(s.Scenario, s.Method, size).
			Set(float64(s.AllocatedBytes))
		ratio.WithLabelValues(s.Scenario, s.Method, size).Set(s.Ratio)
	}

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write textfile %s: %w", path, err)
	}

	return nil
}
