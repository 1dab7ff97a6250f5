package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/weiihann/evalbench/scenario"
	"github.com/weiihann/evalbench/workload"
)

// Config holds the statistical run parameters applied to every scenario.
type Config struct {
	Iterations       int
	WarmupIterations int
	Invocations      int
	Sizes            []int
}

// DefaultConfig returns 50 measured iterations of one invocation each,
// one warmup iteration and the default parameter sizes.
func DefaultConfig() Config {
	return Config{
		Iterations:       50,
		WarmupIterations: 1,
		Invocations:      1,
		Sizes:            append([]int(nil), workload.DefaultSizes...),
	}
}

// Validate reports whether the configuration can be run.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}

	if c.Invocations < 1 {
		return fmt.Errorf("invocations must be at least 1, got %d", c.Invocations)
	}

	if c.WarmupIterations < 0 {
		return fmt.Errorf("warmup iterations must not be negative, got %d",
			c.WarmupIterations)
	}

	if len(c.Sizes) == 0 {
		return fmt.Errorf("at least one parameter size is required")
	}

	for _, size := range c.Sizes {
		if size < 0 {
			return fmt.Errorf("invalid parameter size %d", size)
		}
	}

	return nil
}

// Runner executes scenarios sequentially in the current goroutine.
type Runner struct {
	Config Config
	RunID  string
	Logger *slog.Logger
}

// NewRunner creates a Runner. runID is stamped on every Result.
func NewRunner(cfg Config, runID string, logger *slog.Logger) *Runner {
	return &Runner{
		Config: cfg,
		RunID:  runID,
		Logger: logger,
	}
}

// Run benchmarks every method of sc for every configured size. The first
// failing method aborts the run.
func (r *Runner) Run(
	ctx context.Context,
	sc scenario.Scenario,
) ([]Result, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}

	if len(sc.Methods) == 0 {
		return nil, fmt.Errorf("scenario %s has no methods selected", sc.Name)
	}

	logger := r.Logger.With(slog.String("scenario", sc.Name))

	logger.InfoContext(ctx, "pilot run",
		slog.Int("methods", len(sc.Methods)),
		slog.Any("sizes", r.Config.Sizes),
	)

	if err := sc.Warmup(ctx, r.Config.Sizes); err != nil {
		return nil, fmt.Errorf("pilot %s: %w", sc.Name, err)
	}

	results := make([]Result, 0, len(sc.Methods)*len(r.Config.Sizes))

	for _, size := range r.Config.Sizes {
		p, err := sc.Parameter(size)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", size, err)
		}

		for _, m := range sc.Methods {
			result, err := r.runMethod(ctx, logger, sc, m, p)
			if err != nil {
				return nil, fmt.Errorf("%s %s %s: %w", sc.Name, m.Name, p, err)
			}

			results = append(results, *result)
		}
	}

	return results, nil
}

func (r *Runner) runMethod(
	ctx context.Context,
	logger *slog.Logger,
	sc scenario.Scenario,
	m scenario.Method,
	p *workload.Parameter,
) (*Result, error) {
	logger = logger.With(
		slog.String("method", m.Name),
		slog.String("parameter", p.String()),
	)

	for i := 0; i < r.Config.WarmupIterations; i++ {
		if _, err := measure(ctx, m.Run, p, r.Config.Invocations); err != nil {
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}

	start := time.Now()

	measurements := make([]Measurement, 0, r.Config.Iterations)
	for i := 0; i < r.Config.Iterations; i++ {
		mt, err := measure(ctx, m.Run, p, r.Config.Invocations)
		if err != nil {
			return nil, err
		}

		mt.Iteration = i
		measurements = append(measurements, mt)
	}

	logger.Info("method finished",
		slog.Duration("wall_time", time.Since(start)),
		slog.Int("iterations", len(measurements)),
	)

	return &Result{
		RunID:        r.RunID,
		Scenario:     sc.Name,
		Method:       m.Name,
		Description:  m.Description,
		Category:     m.Category,
		Baseline:     m.Baseline,
		Parameter:    p.String(),
		Size:         p.Count(),
		Measurements: measurements,
	}, nil
}

// measure runs fn invocations times after a forced collection and returns
// the per-invocation averages.
func measure(
	ctx context.Context,
	fn scenario.RunFunc,
	p *workload.Parameter,
	invocations int,
) (Measurement, error) {
	var before, after runtime.MemStats

	runtime.GC()
	runtime.ReadMemStats(&before)

	start := time.Now()

	for i := 0; i < invocations; i++ {
		if err := ctx.Err(); err != nil {
			return Measurement{}, err
		}

		if err := fn(ctx, p); err != nil {
			return Measurement{}, err
		}
	}

	elapsed := time.Since(start)

	runtime.ReadMemStats(&after)

	n := uint64(invocations)

	return Measurement{
		NsPerOp:     float64(elapsed.Nanoseconds()) / float64(invocations),
		BytesPerOp:  (after.TotalAlloc - before.TotalAlloc) / n,
		AllocsPerOp: (after.Mallocs - before.Mallocs) / n,
	}, nil
}

// ParseResults decodes results previously written as JSON.
func ParseResults(r io.Reader) ([]Result, error) {
	var results []Result
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	for i := range results {
		if results[i].Parameter == "" {
			results[i].Parameter = fmt.Sprintf("%06d", results[i].Size)
		}
	}

	return results, nil
}
