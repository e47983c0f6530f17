// Package perf turns raw per-combination simulation output into
// reportable performance metrics. Purely derived, side-effect free.
package perf

import "github.com/quantsweep/quantsweep/internal/sim"

// Metrics is the reportable metric set for one combination.
type Metrics struct {
	NetPnL         float64 `json:"net_pnl"`
	NetPnLPct      float64 `json:"net_pnl_pct"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	LossRate       float64 `json:"loss_rate"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}

// Summarize derives metrics from a combination result. Zero denominators
// (no capital, no trades) yield zero rates rather than NaN.
func Summarize(r sim.CombinationResult, initialCapital float64) Metrics {
	m := Metrics{
		NetPnL:         r.FinalPnL,
		TotalTrades:    r.TotalTrades,
		WinningTrades:  r.WinningTrades,
		LosingTrades:   r.LosingTrades,
		MaxDrawdownPct: r.MaxDrawdown * 100,
	}

	if initialCapital != 0 {
		m.NetPnLPct = r.FinalPnL / initialCapital * 100
	}
	if r.TotalTrades > 0 {
		m.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
		m.LossRate = float64(r.LosingTrades) / float64(r.TotalTrades) * 100
	}
	return m
}
