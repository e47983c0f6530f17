package sim

import (
	"time"

	"github.com/quantsweep/quantsweep/internal/core"
)

// step advances one lane by one bar. Both dispatch backends execute
// exactly this function, so entry and exit decisions cannot diverge
// between them.
//
// Per-bar order, once a position exists: risk exit on the bar's extremes
// first (stop before take, first hit wins, never both), then the
// crossover signal only if no risk exit fired, then the equity and
// drawdown update on the close.
func (a *arena) step(lane int, c core.Candle) {
	t := &a.ema[lane]
	t.Update(c.Close)

	exited := false
	if a.side[lane] != core.Flat {
		if px, hit := a.riskExit(lane, c); hit {
			a.closePosition(lane, c.Time, px)
			exited = true
		}
	}

	if !exited {
		bull := t.PrevFast <= t.PrevSlow && t.CurrFast > t.CurrSlow
		bear := t.PrevFast >= t.PrevSlow && t.CurrFast < t.CurrSlow

		switch {
		case bull && a.side[lane] != core.Long:
			px := a.execPrice(lane, c)
			if a.side[lane] == core.Short {
				a.closePosition(lane, c.Time, px)
			}
			a.openPosition(lane, core.Long, c.Time, px)
		case bear && a.side[lane] != core.Short:
			px := a.execPrice(lane, c)
			if a.side[lane] == core.Long {
				a.closePosition(lane, c.Time, px)
			}
			a.openPosition(lane, core.Short, c.Time, px)
		}
	}

	a.markEquity(lane, c.Close)

	if a.rec != nil && lane == a.recLane {
		a.rec.snapshot(c.Time, t.CurrFast, t.CurrSlow, a.equity[lane])
	}
}

// closeOut marks any still-open position to the final close. The exit is
// recorded as a regular closed trade and counted in the win/loss tallies,
// identically in both backends.
func (a *arena) closeOut(lane int, last core.Candle) {
	if a.side[lane] == core.Flat {
		return
	}
	a.closePosition(lane, last.Time, last.Close)
	a.markEquity(lane, last.Close)
}

// riskExit checks the stop-loss and take-profit levels against the bar's
// high/low. The stop is checked first on both sides.
func (a *arena) riskExit(lane int, c core.Candle) (float64, bool) {
	stop, take := a.stop[lane], a.take[lane]
	switch a.side[lane] {
	case core.Long:
		if stop > 0 && c.Low <= stop {
			return stop, true
		}
		if take > 0 && c.High >= take {
			return take, true
		}
	case core.Short:
		if stop > 0 && c.High >= stop {
			return stop, true
		}
		if take > 0 && c.Low <= take {
			return take, true
		}
	}
	return 0, false
}

func (a *arena) execPrice(lane int, c core.Candle) float64 {
	if a.params[lane].ExecPrice == core.ExecOpen {
		return c.Open
	}
	return c.Close
}

// openPosition enters a position of one unit and fixes the stop-loss and
// take-profit levels relative to the fill. Opening counts toward
// total_trades; closing never does.
func (a *arena) openPosition(lane int, side core.Side, ts time.Time, px float64) {
	p := a.params[lane]
	a.side[lane] = side
	a.entry[lane] = px
	a.stop[lane], a.take[lane] = 0, 0

	if side == core.Long {
		if p.StopLossPct > 0 {
			a.stop[lane] = px * (1 - p.StopLossPct)
		}
		if p.TakeProfitPct > 0 {
			a.take[lane] = px * (1 + p.TakeProfitPct)
		}
	} else {
		if p.StopLossPct > 0 {
			a.stop[lane] = px * (1 + p.StopLossPct)
		}
		if p.TakeProfitPct > 0 {
			a.take[lane] = px * (1 - p.TakeProfitPct)
		}
	}

	a.trades[lane]++
	if a.rec != nil && lane == a.recLane {
		a.rec.open(side, ts, px)
	}
}

func (a *arena) closePosition(lane int, ts time.Time, px float64) {
	pnl := realized(a.side[lane], a.entry[lane], px)
	a.cash[lane] += pnl
	if pnl > 0 {
		a.wins[lane]++
	} else {
		a.losses[lane]++
	}
	if a.rec != nil && lane == a.recLane {
		a.rec.close(ts, px, pnl)
	}

	a.side[lane] = core.Flat
	a.entry[lane] = 0
	a.stop[lane], a.take[lane] = 0, 0
}

// markEquity revalues the lane on the close and folds the result into the
// running peak and max drawdown. Runs every bar whether or not a
// transition fired.
func (a *arena) markEquity(lane int, close float64) {
	eq := a.cash[lane] + realized(a.side[lane], a.entry[lane], close)
	a.equity[lane] = eq
	if eq > a.peak[lane] {
		a.peak[lane] = eq
	}
	if a.peak[lane] > 0 {
		if dd := (a.peak[lane] - eq) / a.peak[lane]; dd > a.maxDD[lane] {
			a.maxDD[lane] = dd
		}
	}
}

// realized is the one-unit PnL of closing side at px from entry.
// For a flat lane it is zero.
func realized(side core.Side, entry, px float64) float64 {
	switch side {
	case core.Long:
		return px - entry
	case core.Short:
		return entry - px
	default:
		return 0
	}
}
