package sim

import (
	"fmt"

	"github.com/quantsweep/quantsweep/internal/core"
)

// Params is one concrete parameter combination fed to the engine.
// Stop-loss and take-profit are fractions, not percent-scaled; a zero
// value disables the level. Fast does not have to be below slow.
type Params struct {
	FastPeriod    int            `json:"fast_period"`
	SlowPeriod    int            `json:"slow_period"`
	StopLossPct   float64        `json:"stop_loss_pct"`
	TakeProfitPct float64        `json:"take_profit_pct"`
	ExecPrice     core.ExecPrice `json:"exec_price"`
}

// Validate rejects parameter sets the simulation cannot run.
func (p Params) Validate() error {
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 {
		return core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("periods must be positive, got fast=%d slow=%d", p.FastPeriod, p.SlowPeriod))
	}
	if p.StopLossPct < 0 {
		return core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("stop_loss_pct cannot be negative, got %v", p.StopLossPct))
	}
	if p.TakeProfitPct < 0 {
		return core.WrapError(core.ErrInvalidParams,
			fmt.Errorf("take_profit_pct cannot be negative, got %v", p.TakeProfitPct))
	}
	return nil
}

// CombinationResult summarizes one combination's simulation. It is
// immutable once the engine finishes that combination.
type CombinationResult struct {
	Params        Params  `json:"params"`
	FinalPnL      float64 `json:"final_pnl"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	MaxDrawdown   float64 `json:"max_drawdown"` // fraction of peak equity
}
