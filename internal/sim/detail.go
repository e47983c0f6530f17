package sim

import (
	"time"

	"github.com/quantsweep/quantsweep/internal/core"
)

// DefaultMaxDetailTrades bounds the per-run trade log. Hitting the cap
// silently stops recording further trades; summary metrics are unaffected.
const DefaultMaxDetailTrades = 2000

// Detail is the full trace of a single combination's run, used for
// charting: the trade list plus per-bar equity and EMA series.
type Detail struct {
	Trades  []core.Trade `json:"trades"`
	Times   []time.Time  `json:"times"`
	Equity  []float64    `json:"equity"`
	FastEMA []float64    `json:"fast_ema"`
	SlowEMA []float64    `json:"slow_ema"`

	// TradesTruncated is set when the trade log hit its capacity.
	TradesTruncated bool `json:"trades_truncated,omitempty"`
}

// recorder captures the detail trace for exactly one lane. Only that
// lane's goroutine touches it, so it needs no synchronization.
type recorder struct {
	maxTrades int
	openIdx   int // index of the open trade in d.Trades, -1 when none
	d         Detail
}

func newRecorder(maxTrades, bars int) *recorder {
	if maxTrades <= 0 {
		maxTrades = DefaultMaxDetailTrades
	}
	return &recorder{
		maxTrades: maxTrades,
		openIdx:   -1,
		d: Detail{
			Times:   make([]time.Time, 0, bars),
			Equity:  make([]float64, 0, bars),
			FastEMA: make([]float64, 0, bars),
			SlowEMA: make([]float64, 0, bars),
		},
	}
}

func (r *recorder) open(side core.Side, ts time.Time, px float64) {
	if len(r.d.Trades) >= r.maxTrades {
		r.d.TradesTruncated = true
		return
	}
	r.d.Trades = append(r.d.Trades, core.Trade{
		Side:       side,
		EntryTime:  ts,
		EntryPrice: px,
		Status:     core.TradeOpen,
	})
	r.openIdx = len(r.d.Trades) - 1
}

func (r *recorder) close(ts time.Time, px, pnl float64) {
	if r.openIdx < 0 {
		return // entry was never recorded (capacity reached)
	}
	t := &r.d.Trades[r.openIdx]
	exit := ts
	t.ExitTime = &exit
	t.ExitPrice = px
	t.PnL = pnl
	t.Status = core.TradeClosed
	r.openIdx = -1
}

func (r *recorder) snapshot(ts time.Time, fast, slow, equity float64) {
	r.d.Times = append(r.d.Times, ts)
	r.d.FastEMA = append(r.d.FastEMA, fast)
	r.d.SlowEMA = append(r.d.SlowEMA, slow)
	r.d.Equity = append(r.d.Equity, equity)
}
