// Package main provides the CLI entry point for evalbench, a benchmark of
// embeddable expression evaluators and script engines for Go.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/weiihann/evalbench/config"
	"github.com/weiihann/evalbench/harness"
	"github.com/weiihann/evalbench/menu"
	"github.com/weiihann/evalbench/report"
	"github.com/weiihann/evalbench/scenario"
	"github.com/weiihann/evalbench/stabilize"
	"github.com/weiihann/evalbench/workload"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	// A second interrupt terminates the process.
	context.AfterFunc(ctx, stop)

	root := newRootCmd(logger, level)
	err := root.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Error("evalbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// hostStabilizers returns the stabilizers acquired around every run.
var hostStabilizers = func(logger *slog.Logger) []stabilize.Stabilizer {
	return stabilize.Defaults(stabilize.NewSystem(logger))
}

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	logger *slog.Logger
	level  *slog.LevelVar
	cfg    config.Config
	runID  string
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	a := &app{logger: logger, level: level}

	root := &cobra.Command{
		Use:   "evalbench",
		Short: "Benchmark embeddable expression evaluators",
		Long: `Evalbench measures how fast embeddable expression evaluators and script
engines evaluate many small arithmetic expressions, against a native Go
baseline. Without a subcommand it starts an interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel := menu.New(cmd.InOrStdin(), cmd.OutOrStdout(), scenario.All(),
				func(
					ctx context.Context,
					sc scenario.Scenario,
					methods []scenario.Method,
				) error {
					return a.runScenario(ctx, cmd.OutOrStdout(), sc, methods, false)
				})

			return sel.Loop(cmd.Context())
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newRunCmd(a),
		newListCmd(),
		newWorkloadCmd(),
		newConfigCmd(a),
		newReportCmd(a),
	)

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags(), config.Path(cmd.Flags()))
	if err != nil {
		return err
	}

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}

	a.level.Set(lvl)
	a.cfg = cfg
	a.runID = uuid.NewString()
	a.logger = a.logger.With(slog.String("run_id", a.runID))

	return nil
}

func newRunCmd(a *app) *cobra.Command {
	var (
		scenarioName string
		methodNames  []string
		outputJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark scenario without the menu",
		Long: `Run the methods of one scenario for every configured parameter size,
write the CSV exports and print a comparison table.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, ok := scenario.Lookup(scenarioName)
			if !ok {
				return fmt.Errorf("unknown scenario %q", scenarioName)
			}

			methods, err := resolveMethods(sc, methodNames)
			if err != nil {
				return err
			}

			return a.runScenario(cmd.Context(), cmd.OutOrStdout(), sc, methods, outputJSON)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&scenarioName, "scenario", "",
		"Scenario name or alias: constant, variable, array, condensed")
	flags.StringSliceVar(&methodNames, "methods", nil,
		"Methods to run (default: all)")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of table")

	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func resolveMethods(sc scenario.Scenario, names []string) ([]scenario.Method, error) {
	if len(names) == 0 {
		return sc.Methods, nil
	}

	methods := make([]scenario.Method, 0, len(names))

	for _, name := range names {
		m, ok := sc.Method(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown method %q in %s", name, sc.Name)
		}

		methods = append(methods, m)
	}

	return methods, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenarios and their methods",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			for i, sc := range scenario.All() {
				fmt.Fprintf(w, "[%d]\t%s (%s)\n", i, sc.Name, sc.Alias)

				for j, m := range sc.Methods {
					fmt.Fprintf(w, "\t[%d]\t%s\t%s\n", j, m.Name, m.Category)
				}
			}

			return nil
		},
	}
}

func newWorkloadCmd() *cobra.Command {
	var (
		kind  string
		count int
	)

	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Print a generated parameter as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := workload.New(workload.Kind(kind), count)
			if err != nil {
				return err
			}

			return p.Encode(cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&kind, "kind", string(workload.KindVariable),
		"Parameter kind: constant, variable, array")
	flags.IntVar(&count, "count", workload.DefaultSizes[0],
		"Number of elements")

	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.Write(cmd.OutOrStdout())
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var (
		input    string
		writeCSV bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render results saved with run --json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open results: %w", err)
			}
			defer f.Close()

			results, err := harness.ParseResults(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", input, err)
			}

			return a.writeReports(cmd.Context(), cmd.OutOrStdout(), results, writeCSV, false)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "",
		"Path to a JSON results file")
	flags.BoolVar(&writeCSV, "csv", false,
		"Also write the CSV exports to the output directory")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// runScenario benchmarks the given methods of sc and writes every report.
func (a *app) runScenario(
	ctx context.Context,
	stdout io.Writer,
	sc scenario.Scenario,
	methods []scenario.Method,
	outputJSON bool,
) (err error) {
	logger := a.logger.With(slog.String("scenario", sc.Name))

	logger.InfoContext(ctx, "starting benchmark",
		slog.Int("methods", len(methods)),
		slog.Int("iterations", a.cfg.Iterations),
		slog.Any("sizes", a.cfg.Sizes),
		slog.Bool("stabilize", a.cfg.Stabilize),
	)

	// Step 1: Quiet the host. Failing to change or restore a host setting
	// ends the interactive menu.
	if a.cfg.Stabilize {
		guard, acquireErr := stabilize.Acquire(ctx, logger, hostStabilizers(logger)...)
		if acquireErr != nil {
			return menu.Abort(fmt.Errorf("stabilize: %w", acquireErr))
		}

		defer func() {
			if releaseErr := guard.Release(context.WithoutCancel(ctx)); releaseErr != nil {
				err = errors.Join(err, menu.Abort(fmt.Errorf("restore: %w", releaseErr)))
			}
		}()
	}

	// Step 2: Run the scenario.
	runner := harness.NewRunner(a.cfg.Harness(), a.runID, logger)

	results, err := runner.Run(ctx, sc.WithMethods(methods))
	if err != nil {
		return err
	}

	// Step 3: Write reports.
	return a.writeReports(ctx, stdout, results, true, outputJSON)
}

func (a *app) writeReports(
	ctx context.Context,
	stdout io.Writer,
	results []harness.Result,
	writeCSV bool,
	outputJSON bool,
) error {
	summaries, err := report.Summarize(results)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	if writeCSV {
		paths, err := report.WriteFiles(a.cfg.OutDir, results[0].Scenario, results, summaries)
		if err != nil {
			return fmt.Errorf("export CSV: %w", err)
		}

		a.logger.InfoContext(ctx, "exports written", slog.Any("paths", paths))
	}

	if a.cfg.Textfile != "" {
		if err := report.WriteTextfile(a.cfg.Textfile, a.runID, summaries); err != nil {
			return err
		}

		a.logger.InfoContext(ctx, "textfile written",
			slog.String("path", a.cfg.Textfile),
		)
	}

	if outputJSON {
		if err := report.GenerateJSON(stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}

		return nil
	}

	if err := report.Generate(stdout, summaries); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	return nil
}
