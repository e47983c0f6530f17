package sim

import (
	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/indicator"
)

// arena holds the per-combination simulation state as flat slices indexed
// by lane. During a bar each lane is touched by exactly one goroutine and
// lanes never share mutable state, so no locking is needed inside the
// simulation core.
type arena struct {
	params []Params
	ema    []indicator.Tracker

	side  []core.Side
	entry []float64
	stop  []float64 // 0 = no stop-loss level
	take  []float64 // 0 = no take-profit level

	cash   []float64
	equity []float64
	peak   []float64
	maxDD  []float64

	trades []int32
	wins   []int32
	losses []int32

	// detail recording, at most one lane
	rec     *recorder
	recLane int
}

func newArena(params []Params, initialCapital float64) *arena {
	n := len(params)
	a := &arena{
		params: params,
		ema:    make([]indicator.Tracker, n),

		side:  make([]core.Side, n),
		entry: make([]float64, n),
		stop:  make([]float64, n),
		take:  make([]float64, n),

		cash:   make([]float64, n),
		equity: make([]float64, n),
		peak:   make([]float64, n),
		maxDD:  make([]float64, n),

		trades: make([]int32, n),
		wins:   make([]int32, n),
		losses: make([]int32, n),

		recLane: -1,
	}

	for i, p := range params {
		a.ema[i] = indicator.NewTracker(p.FastPeriod, p.SlowPeriod)
		a.cash[i] = initialCapital
		a.equity[i] = initialCapital
		a.peak[i] = initialCapital
	}
	return a
}

// results snapshots every lane into immutable per-combination summaries.
func (a *arena) results(initialCapital float64) []CombinationResult {
	out := make([]CombinationResult, len(a.params))
	for i := range a.params {
		out[i] = CombinationResult{
			Params:        a.params[i],
			FinalPnL:      a.cash[i] - initialCapital,
			TotalTrades:   int(a.trades[i]),
			WinningTrades: int(a.wins[i]),
			LosingTrades:  int(a.losses[i]),
			MaxDrawdown:   a.maxDD[i],
		}
	}
	return out
}
