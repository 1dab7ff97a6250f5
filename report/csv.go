package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/weiihann/evalbench/harness"
)

var summaryHeader = []string{
	"Method", "Category", "Baseline", "Parameter",
	"Mean [ns]", "StdErr [ns]", "StdDev [ns]",
	"Min [ns]", "Q1 [ns]", "Median [ns]", "Q3 [ns]", "Max [ns]",
	"Ratio", "Allocated [B]", "Allocations",
}

var measurementHeader = []string{
	"Method", "Parameter", "Iteration",
	"Duration [ns]", "Allocated [B]", "Allocations",
}

// WriteSummaryCSV writes one row per summary. Units live in the header,
// values are plain numbers with a period decimal separator.
func WriteSummaryCSV(w io.Writer, summaries []Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryHeader); err != nil {
		return err
	}

	for _, s := range summaries {
		row := []string{
			s.Method,
			s.Category,
			strconv.FormatBool(s.Baseline),
			s.Parameter,
			formatFloat(s.Mean),
			formatFloat(s.StdErr),
			formatFloat(s.StdDev),
			formatFloat(s.Min),
			formatFloat(s.Q1),
			formatFloat(s.Median),
			formatFloat(s.Q3),
			formatFloat(s.Max),
			strconv.FormatFloat(s.Ratio, 'f', 2, 64),
			strconv.FormatUint(s.AllocatedBytes, 10),
			strconv.FormatUint(s.Allocations, 10),
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteMeasurementsCSV writes one row per measured iteration.
func WriteMeasurementsCSV(w io.Writer, results []harness.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(measurementHeader); err != nil {
		return err
	}

	for _, r := range results {
		for _, m := range r.Measurements {
			row := []string{
				r.Method,
				r.Parameter,
				strconv.Itoa(m.Iteration),
				formatFloat(m.NsPerOp),
				strconv.FormatUint(m.BytesPerOp, 10),
				strconv.FormatUint(m.AllocsPerOp, 10),
			}

			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteFiles writes <scenario>-report.csv and <scenario>-measurements.csv
// into dir and returns their paths.
func WriteFiles(
	dir, scenario string,
	results []harness.Result,
	summaries []Summary,
) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	reportPath := filepath.Join(dir, scenario+"-report.csv")
	if err := writeFile(reportPath, func(w io.Writer) error {
		return WriteSummaryCSV(w, summaries)
	}); err != nil {
		return nil, err
	}

	measurementsPath := filepath.Join(dir, scenario+"-measurements.csv")
	if err := writeFile(measurementsPath, func(w io.Writer) error {
		return WriteMeasurementsCSV(w, results)
	}); err != nil {
		return nil, err
	}

	return []string{reportPath, measurementsPath}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
