package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantsweep/quantsweep/internal/candle"
	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/logger"
	"github.com/quantsweep/quantsweep/internal/perf"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy/emacross"
)

var (
	backtestCSV     string
	backtestFast    int
	backtestSlow    int
	backtestStop    float64
	backtestTake    float64
	backtestExec    string
	backtestCapital float64

	backtestDSN      string
	backtestSymbol   string
	backtestInterval string
	backtestFrom     string
	backtestTo       string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a single backtest and print performance statistics",
	Long: `Run the EMA crossover strategy once against historical candles,
loaded either from a CSV file or from the Postgres candle store.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestCSV, "csv", "", "candle CSV file")
	backtestCmd.Flags().IntVar(&backtestFast, "fast", 10, "fast EMA period")
	backtestCmd.Flags().IntVar(&backtestSlow, "slow", 20, "slow EMA period")
	backtestCmd.Flags().Float64Var(&backtestStop, "stop-loss", 0, "stop-loss fraction, 0 disables")
	backtestCmd.Flags().Float64Var(&backtestTake, "take-profit", 0, "take-profit fraction, 0 disables")
	backtestCmd.Flags().StringVar(&backtestExec, "exec", "close", "execution price: close or open")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 10000, "initial capital")

	backtestCmd.Flags().StringVar(&backtestDSN, "dsn", "", "Postgres DSN for the candle store")
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "symbol to load from the candle store")
	backtestCmd.Flags().StringVar(&backtestInterval, "interval", "1d", "candle interval in the store")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date YYYY-MM-DD")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	candles, err := loadCandles(backtestCSV, backtestDSN, backtestSymbol, backtestInterval, backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	params := sim.Params{
		FastPeriod:    backtestFast,
		SlowPeriod:    backtestSlow,
		StopLossPct:   backtestStop,
		TakeProfitPct: backtestTake,
	}
	if params.ExecPrice, err = core.ParseExecPrice(backtestExec); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	backend := sim.NewPool(0)
	defer backend.Close()

	engine := sim.NewEngine(backend, log)
	res, err := engine.Run(context.Background(), candles, []sim.Params{params}, sim.Options{
		InitialCapital: backtestCapital,
		Detail:         true,
	})
	if err != nil {
		return err
	}

	m := perf.Summarize(res.Combinations[0], backtestCapital)

	fmt.Println("=== Backtest ===")
	fmt.Printf("Strategy:  %s\n", emacross.Name)
	fmt.Printf("Candles:   %d (%s to %s)\n", len(candles),
		candles[0].Time.Format("2006-01-02"), candles[len(candles)-1].Time.Format("2006-01-02"))
	fmt.Printf("Params:    fast=%d slow=%d stop=%.4f take=%.4f exec=%s\n",
		params.FastPeriod, params.SlowPeriod, params.StopLossPct, params.TakeProfitPct, params.ExecPrice)
	fmt.Println()
	fmt.Printf("Net PnL:        %.2f (%.2f%%)\n", m.NetPnL, m.NetPnLPct)
	fmt.Printf("Trades:         %d (%d wins / %d losses)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Printf("Win rate:       %.1f%%\n", m.WinRate)
	fmt.Printf("Max drawdown:   %.2f%%\n", m.MaxDrawdownPct)
	if res.Detail != nil && res.Detail.TradesTruncated {
		fmt.Println("(trade log truncated)")
	}
	return nil
}

// loadCandles reads candles from the CSV file or the Postgres store,
// whichever is configured, and validates the series ordering.
func loadCandles(csvPath, dsn, symbol, interval, fromStr, toStr string) ([]core.Candle, error) {
	var candles []core.Candle
	var err error

	switch {
	case csvPath != "":
		candles, err = candle.ReadFile(csvPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", csvPath, err)
		}
	case dsn != "":
		if symbol == "" {
			return nil, fmt.Errorf("--symbol is required with --dsn")
		}
		from, to, err := parseDateRange(fromStr, toStr)
		if err != nil {
			return nil, err
		}
		repo, err := candle.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to candle store: %w", err)
		}
		defer repo.Close()

		candles, err = repo.LoadRange(context.Background(), symbol, interval, from, to)
		if err != nil {
			return nil, fmt.Errorf("loading candles: %w", err)
		}
	default:
		return nil, fmt.Errorf("either --csv or --dsn is required")
	}

	if len(candles) == 0 {
		return nil, core.ErrNoData
	}
	if err = candle.Validate(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Now().UTC()
	var err error

	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date (expected YYYY-MM-DD): %w", err)
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date (expected YYYY-MM-DD): %w", err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return from, to, nil
}
