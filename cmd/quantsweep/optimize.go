package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/export"
	"github.com/quantsweep/quantsweep/internal/grid"
	"github.com/quantsweep/quantsweep/internal/job"
	"github.com/quantsweep/quantsweep/internal/logger"
	"github.com/quantsweep/quantsweep/internal/perf"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy/emacross"
)

var (
	optCSV      string
	optDSN      string
	optSymbol   string
	optInterval string
	optFrom     string
	optTo       string

	optFastRange string
	optSlowRange string
	optStopRange string
	optTakeRange string
	optExec      string
	optCapital   float64
	optBackend   string
	optWorkers   int
	optTop       int
	optOut       string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Sweep a parameter grid and rank the combinations",
	Long: `Run the EMA crossover strategy across every combination of the given
parameter ranges and print the best performers. Ranges use start:end:step,
for example --fast 5:50:5.`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optCSV, "csv", "", "candle CSV file")
	optimizeCmd.Flags().StringVar(&optDSN, "dsn", "", "Postgres DSN for the candle store")
	optimizeCmd.Flags().StringVar(&optSymbol, "symbol", "", "symbol to load from the candle store")
	optimizeCmd.Flags().StringVar(&optInterval, "interval", "1d", "candle interval in the store")
	optimizeCmd.Flags().StringVar(&optFrom, "from", "", "start date YYYY-MM-DD")
	optimizeCmd.Flags().StringVar(&optTo, "to", "", "end date YYYY-MM-DD")

	optimizeCmd.Flags().StringVar(&optFastRange, "fast", "5:50:5", "fast period range start:end:step")
	optimizeCmd.Flags().StringVar(&optSlowRange, "slow", "20:200:20", "slow period range start:end:step")
	optimizeCmd.Flags().StringVar(&optStopRange, "stop-loss", "", "stop-loss fraction range start:end:step")
	optimizeCmd.Flags().StringVar(&optTakeRange, "take-profit", "", "take-profit fraction range start:end:step")
	optimizeCmd.Flags().StringVar(&optExec, "exec", "close", "execution price: close or open")
	optimizeCmd.Flags().Float64Var(&optCapital, "capital", 10000, "initial capital")
	optimizeCmd.Flags().StringVar(&optBackend, "backend", "pool", "simulation backend: pool or grid")
	optimizeCmd.Flags().IntVar(&optWorkers, "workers", 0, "worker count, 0 means all CPUs")
	optimizeCmd.Flags().IntVar(&optTop, "top", 10, "number of combinations to print")
	optimizeCmd.Flags().StringVar(&optOut, "out", "", "write the full ranked results to a CSV file")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	candles, err := loadCandles(optCSV, optDSN, optSymbol, optInterval, optFrom, optTo)
	if err != nil {
		return err
	}

	ranges, err := buildRanges()
	if err != nil {
		return err
	}

	execPrice, err := core.ParseExecPrice(optExec)
	if err != nil {
		return err
	}

	strat := emacross.New(log)
	combos := grid.Expand(ranges)
	params := make([]sim.Params, 0, len(combos))
	for _, values := range combos {
		p, err := strat.Build(values)
		if err != nil {
			log.Warn("skipping combination", zap.Error(err))
			continue
		}
		p.ExecPrice = execPrice
		params = append(params, p)
	}
	if len(params) == 0 {
		return core.WrapError(core.ErrInvalidParams, fmt.Errorf("no valid combinations in the given ranges"))
	}

	backend := sim.NewBackend(optBackend, optWorkers, 0)
	defer backend.Close()

	fmt.Printf("Sweeping %d combinations over %d candles (%s backend)...\n",
		len(params), len(candles), backend.Name())

	engine := sim.NewEngine(backend, log)
	res, err := engine.Run(context.Background(), candles, params, sim.Options{
		InitialCapital: optCapital,
	})
	if err != nil {
		return err
	}

	results := make([]job.Result, len(res.Combinations))
	for i, c := range res.Combinations {
		results[i] = job.Result{Params: c.Params, Metrics: perf.Summarize(c, optCapital)}
	}
	ranked := export.Rank(results)

	printRanked(ranked, optTop)

	if optOut != "" {
		if err := export.WriteFile(optOut, ranked); err != nil {
			return fmt.Errorf("writing %s: %w", optOut, err)
		}
		fmt.Printf("\nFull results written to %s\n", optOut)
	}
	return nil
}

// buildRanges turns the range flags into the sweep grid. Empty risk
// ranges are omitted so their levels stay disabled.
func buildRanges() ([]grid.Range, error) {
	ranges := make([]grid.Range, 0, 4)

	fast, err := parseRange("fast_period", optFastRange, true)
	if err != nil {
		return nil, err
	}
	slow, err := parseRange("slow_period", optSlowRange, true)
	if err != nil {
		return nil, err
	}
	ranges = append(ranges, fast, slow)

	if optStopRange != "" {
		r, err := parseRange("stop_loss_pct", optStopRange, false)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	if optTakeRange != "" {
		r, err := parseRange("take_profit_pct", optTakeRange, false)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// parseRange parses "start:end:step"; the step may be omitted for a
// single-value range ("10" or "10:10").
func parseRange(name, spec string, integer bool) (grid.Range, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 3 {
		return grid.Range{}, fmt.Errorf("range %s: expected start:end:step, got %q", name, spec)
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return grid.Range{}, fmt.Errorf("range %s: %w", name, err)
		}
		vals[i] = v
	}

	r := grid.Range{Name: name, Start: vals[0], End: vals[0], Integer: integer}
	if len(vals) > 1 {
		r.End = vals[1]
	}
	if len(vals) > 2 {
		r.Step = vals[2]
	}
	return r, nil
}

func printRanked(ranked []job.Result, top int) {
	if top > len(ranked) {
		top = len(ranked)
	}

	fmt.Println()
	fmt.Printf("%-5s %-6s %-6s %-10s %-10s %-12s %-8s %-8s %-10s\n",
		"rank", "fast", "slow", "stop", "take", "net_pnl", "trades", "win%", "max_dd%")
	for i := 0; i < top; i++ {
		r := ranked[i]
		fmt.Printf("%-5d %-6d %-6d %-10.4f %-10.4f %-12.2f %-8d %-8.1f %-10.2f\n",
			i+1,
			r.Params.FastPeriod, r.Params.SlowPeriod,
			r.Params.StopLossPct, r.Params.TakeProfitPct,
			r.Metrics.NetPnL, r.Metrics.TotalTrades,
			r.Metrics.WinRate, r.Metrics.MaxDrawdownPct,
		)
	}
}
