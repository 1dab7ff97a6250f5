// Package report summarizes benchmark measurements and formats them into
// comparison tables and export files.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"

	"github.com/weiihann/evalbench/harness"
)

var errNoMeasurements = errors.New("no measurements")

// Summary is the statistical digest of one harness.Result. Durations are
// nanoseconds per operation.
type Summary struct {
	Scenario       string  `json:"scenario"`
	Method         string  `json:"method"`
	Category       string  `json:"category"`
	Baseline       bool    `json:"baseline"`
	Parameter      string  `json:"parameter"`
	Size           int     `json:"size"`
	N              int     `json:"n"`
	Mean           float64 `json:"mean_ns"`
	StdDev         float64 `json:"stddev_ns"`
	StdErr         float64 `json:"stderr_ns"`
	Min            float64 `json:"min_ns"`
	Q1             float64 `json:"q1_ns"`
	Median         float64 `json:"median_ns"`
	Q3             float64 `json:"q3_ns"`
	Max            float64 `json:"max_ns"`
	Ratio          float64 `json:"ratio"`
	AllocatedBytes uint64  `json:"allocated_bytes"`
	Allocations    uint64  `json:"allocations"`
}

// Summarize computes one Summary per result. Ratio is relative to the
// baseline method of the same scenario and size, or to the fastest method
// when the baseline was not selected.
func Summarize(results []harness.Result) ([]Summary, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results to report")
	}

	summaries := make([]Summary, 0, len(results))

	for _, r := range results {
		s, err := summarize(r)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", r.Method, r.Parameter, err)
		}

		summaries = append(summaries, s)
	}

	applyRatios(summaries)

	return summaries, nil
}

func summarize(r harness.Result) (Summary, error) {
	n := len(r.Measurements)
	if n == 0 {
		return Summary{}, errNoMeasurements
	}

	durations := make(stats.Float64Data, n)

	var bytes, allocs float64
	for i, m := range r.Measurements {
		durations[i] = m.NsPerOp
		bytes += float64(m.BytesPerOp)
		allocs += float64(m.AllocsPerOp)
	}

	s := Summary{
		Scenario:       r.Scenario,
		Method:         r.Method,
		Category:       r.Category,
		Baseline:       r.Baseline,
		Parameter:      r.Parameter,
		Size:           r.Size,
		N:              n,
		AllocatedBytes: uint64(math.Round(bytes / float64(n))),
		Allocations:    uint64(math.Round(allocs / float64(n))),
	}

	var err error

	if s.Mean, err = stats.Mean(durations); err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}

	if s.Median, err = stats.Median(durations); err != nil {
		return Summary{}, fmt.Errorf("median: %w", err)
	}

	if s.Min, err = stats.Min(durations); err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}

	if s.Max, err = stats.Max(durations); err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}

	// A single sample has no spread and no quartile halves.
	if n < 2 {
		s.Q1, s.Q3 = s.Median, s.Median

		return s, nil
	}

	q, err := stats.Quartile(durations)
	if err != nil {
		return Summary{}, fmt.Errorf("quartile: %w", err)
	}

	s.Q1, s.Q3 = q.Q1, q.Q3

	if s.StdDev, err = stats.StandardDeviationSample(durations); err != nil {
		return Summary{}, fmt.Errorf("stddev: %w", err)
	}

	s.StdErr = s.StdDev / math.Sqrt(float64(n))

	return s, nil
}

type groupKey struct {
	scenario string
	size     int
}

func applyRatios(summaries []Summary) {
	reference := make(map[groupKey]float64)

	for _, s := range summaries {
		if s.Baseline {
			reference[groupKey{s.Scenario, s.Size}] = s.Mean
		}
	}

	for _, s := range summaries {
		key := groupKey{s.Scenario, s.Size}
		if _, ok := reference[key]; ok {
			continue
		}

		reference[key] = findFastest(summaries, key)
	}

	for i := range summaries {
		ref := reference[groupKey{summaries[i].Scenario, summaries[i].Size}]

		summaries[i].Ratio = 1.0
		if ref > 0 && summaries[i].Mean > 0 {
			summaries[i].Ratio = summaries[i].Mean / ref
		}
	}
}

func findFastest(summaries []Summary, key groupKey) float64 {
	fastest := math.MaxFloat64
	for _, s := range summaries {
		if s.Scenario != key.scenario || s.Size != key.size {
			continue
		}

		if s.Mean > 0 && s.Mean < fastest {
			fastest = s.Mean
		}
	}

	if fastest == math.MaxFloat64 {
		return 0
	}

	return fastest
}

// Generate writes a markdown comparison table for the given summaries.
func Generate(w io.Writer, summaries []Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no results to report")
	}

	fmt.Fprintf(w, "## %s\n\n", summaries[0].Scenario)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Method", "Parameter", "Mean", "StdDev", "Median",
		"Allocated", "Ratio",
	})
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, s := range summaries {
		method := s.Method
		if s.Baseline {
			method += " (baseline)"
		}

		table.Append([]string{
			method,
			s.Parameter,
			formatNs(s.Mean),
			formatNs(s.StdDev),
			formatNs(s.Median),
			formatBytes(s.AllocatedBytes),
			fmt.Sprintf("%.2fx", s.Ratio),
		})
	}

	table.Render()

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func formatNs(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.1f ns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.2f us", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.2f ms", ns/1e6)
	default:
		return fmt.Sprintf("%.2f s", ns/1e9)
	}
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
