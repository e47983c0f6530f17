// Package export renders optimization results as CSV reports.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/quantsweep/quantsweep/internal/job"
)

// Rank returns a copy of results ordered by net PnL, best first. Ties
// break toward fewer trades, then the lower fast period for a stable
// ordering.
func Rank(results []job.Result) []job.Result {
	ranked := make([]job.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Metrics.NetPnL != b.Metrics.NetPnL {
			return a.Metrics.NetPnL > b.Metrics.NetPnL
		}
		if a.Metrics.TotalTrades != b.Metrics.TotalTrades {
			return a.Metrics.TotalTrades < b.Metrics.TotalTrades
		}
		return a.Params.FastPeriod < b.Params.FastPeriod
	})
	return ranked
}

// WriteResults writes ranked results to w as CSV, one row per
// combination with a leading rank column.
func WriteResults(w io.Writer, results []job.Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"rank", "fast_period", "slow_period", "stop_loss_pct", "take_profit_pct",
		"net_pnl", "net_pnl_pct", "total_trades", "winning_trades", "losing_trades",
		"win_rate", "max_drawdown_pct",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, r := range Rank(results) {
		rec := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Params.FastPeriod),
			strconv.Itoa(r.Params.SlowPeriod),
			formatF(r.Params.StopLossPct),
			formatF(r.Params.TakeProfitPct),
			formatF(r.Metrics.NetPnL),
			formatF(r.Metrics.NetPnLPct),
			strconv.Itoa(r.Metrics.TotalTrades),
			strconv.Itoa(r.Metrics.WinningTrades),
			strconv.Itoa(r.Metrics.LosingTrades),
			formatF(r.Metrics.WinRate),
			formatF(r.Metrics.MaxDrawdownPct),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes ranked results to a CSV file on disk.
func WriteFile(path string, results []job.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteResults(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
