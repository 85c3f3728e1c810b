package main

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/irvm/pkg/cli"
	"mercator-hq/irvm/pkg/policy/engine"
	"mercator-hq/irvm/pkg/telemetry/tracing"
)

var benchFlags struct {
	policy      string
	name        string
	plan        string
	input       string
	data        string
	iterations  int
	concurrency int
	warmup      int
	metrics     bool
	format      string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure evaluation latency and throughput",
	Long: `Evaluate one plan repeatedly and report latency percentiles and throughput.

The policy is loaded once; evaluations run on --concurrency goroutines that
share it, the way a host embedding the engine would. The first evaluation
error stops the run.

Examples:
  # 100k evaluations on all CPUs
  irvm bench -p policy.json --plan example/allow -i input.json -n 100000

  # Single-threaded, followed by the Prometheus metrics of the run
  irvm bench -p policy.json -i '{"x": 2}' --concurrency 1 --metrics`,
	RunE: withApp("bench", runBench),
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVarP(&benchFlags.policy, "policy", "p", "", "policy file or directory (default: policy.path from config)")
	benchCmd.Flags().StringVar(&benchFlags.name, "name", "", "policy name when --policy is a directory")
	benchCmd.Flags().StringVar(&benchFlags.plan, "plan", "", "plan name (default: first plan)")
	benchCmd.Flags().StringVarP(&benchFlags.input, "input", "i", "", "input document")
	benchCmd.Flags().StringVarP(&benchFlags.data, "data", "d", "", "data document")
	benchCmd.Flags().IntVarP(&benchFlags.iterations, "iterations", "n", 10000, "number of evaluations")
	benchCmd.Flags().IntVar(&benchFlags.concurrency, "concurrency", runtime.GOMAXPROCS(0), "concurrent evaluations")
	benchCmd.Flags().IntVar(&benchFlags.warmup, "warmup", 100, "evaluations before measuring")
	benchCmd.Flags().BoolVar(&benchFlags.metrics, "metrics", false, "print Prometheus metrics after the run")
	benchCmd.Flags().StringVarP(&benchFlags.format, "format", "o", "text", "output format: text, json")
}

// benchStats summarises a benchmark run.
type benchStats struct {
	Plan         string        `json:"plan"`
	Iterations   int           `json:"iterations"`
	Concurrency  int           `json:"concurrency"`
	Results      int           `json:"results"`
	Instructions int64         `json:"instructions"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	Throughput   float64       `json:"evals_per_second"`
	Mean         time.Duration `json:"mean_ns"`
	P50          time.Duration `json:"p50_ns"`
	P90          time.Duration `json:"p90_ns"`
	P99          time.Duration `json:"p99_ns"`
	Max          time.Duration `json:"max_ns"`
}

// String renders the statistics as an aligned block.
func (s *benchStats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan:          %s\n", s.Plan)
	fmt.Fprintf(&sb, "Iterations:    %d (concurrency %d)\n", s.Iterations, s.Concurrency)
	fmt.Fprintf(&sb, "Result set:    %d entries, %d statements per evaluation\n", s.Results, s.Instructions)
	fmt.Fprintf(&sb, "Elapsed:       %s\n", s.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(&sb, "Throughput:    %.0f eval/s\n", s.Throughput)
	fmt.Fprintf(&sb, "Latency mean:  %s\n", s.Mean)
	fmt.Fprintf(&sb, "Latency p50:   %s\n", s.P50)
	fmt.Fprintf(&sb, "Latency p90:   %s\n", s.P90)
	fmt.Fprintf(&sb, "Latency p99:   %s\n", s.P99)
	fmt.Fprintf(&sb, "Latency max:   %s", s.Max)
	return sb.String()
}

func runBench(cmd *cobra.Command, args []string, a *app) error {
	format, err := cli.ParseOutputFormat(benchFlags.format)
	if err != nil {
		return err
	}
	if benchFlags.iterations <= 0 {
		return cli.NewConfigError("iterations", "must be positive")
	}
	concurrency := benchFlags.concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	input, err := loadDocument(benchFlags.input, cmd.InOrStdin())
	if err != nil {
		return cli.NewConfigError("input", err.Error())
	}
	data, err := loadDocument(benchFlags.data, cmd.InOrStdin())
	if err != nil {
		return cli.NewConfigError("data", err.Error())
	}

	ctx, stop := a.context(cmd)
	defer stop()

	ctx, span := a.tracer.Start(ctx, "irvm.cli.bench")
	defer span.End()

	vm, err := a.openEngine(benchFlags.policy, benchFlags.name)
	if err != nil {
		return err
	}

	req := engine.EvalRequest{Plan: benchFlags.plan, Input: input, Data: data}

	// The first evaluation doubles as a check that the plan runs at all.
	first, err := vm.Eval(ctx, req)
	if err != nil {
		return err
	}
	for i := 1; i < benchFlags.warmup; i++ {
		if _, err := vm.Eval(ctx, req); err != nil {
			return err
		}
	}

	n := benchFlags.iterations
	latencies := make([]time.Duration, n)
	progress := cli.NewProgressReporter(cmd.ErrOrStderr())
	progress.Start(int64(n))

	var next, done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				i := next.Add(1) - 1
				if i >= int64(n) {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				evalStart := time.Now()
				if _, err := vm.Eval(gctx, req); err != nil {
					return fmt.Errorf("iteration %d: %w", i, err)
				}
				latencies[i] = time.Since(evalStart)
				progress.Update(done.Add(1))
			}
		})
	}
	err = g.Wait()
	elapsed := time.Since(start)
	tracing.SetStatus(span, err)
	if err != nil {
		progress.Error(err)
		return err
	}
	progress.Finish()

	stats := summarize(latencies, elapsed)
	stats.Plan = first.Plan
	stats.Concurrency = concurrency
	stats.Results = first.ResultSet.Len()
	stats.Instructions = first.Instructions

	out := cmd.OutOrStdout()
	if err := cli.NewFormatter(format).FormatTo(out, stats); err != nil {
		return err
	}

	if benchFlags.metrics {
		fmt.Fprintln(out)
		if err := a.metrics.WriteText(out); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// summarize computes latency percentiles. latencies is sorted in place.
func summarize(latencies []time.Duration, elapsed time.Duration) *benchStats {
	stats := &benchStats{Iterations: len(latencies), Elapsed: elapsed}
	if len(latencies) == 0 {
		return stats
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	stats.Mean = total / time.Duration(len(latencies))
	stats.P50 = percentile(latencies, 0.50)
	stats.P90 = percentile(latencies, 0.90)
	stats.P99 = percentile(latencies, 0.99)
	stats.Max = latencies[len(latencies)-1]
	if elapsed > 0 {
		stats.Throughput = float64(len(latencies)) / elapsed.Seconds()
	}
	return stats
}

// percentile returns the nearest-rank percentile of sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
