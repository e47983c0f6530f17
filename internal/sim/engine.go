// Package sim is the batch backtest simulation engine: a per-candle
// position state machine driven independently across many parameter
// combinations in parallel.
package sim

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/quantsweep/quantsweep/internal/core"
)

// Options controls a single engine run.
type Options struct {
	InitialCapital float64

	// Detail requests the full trade/equity/EMA trace. It is honored only
	// when exactly one valid combination is simulated.
	Detail          bool
	MaxDetailTrades int

	// OnProgress, when set, receives processed and total candle counts at
	// a bounded cadence (roughly every percent) and at completion.
	OnProgress func(processed, total int)
}

// Result is the output of one batch run.
type Result struct {
	Combinations []CombinationResult
	Detail       *Detail
}

// Engine simulates every parameter combination against one candle series.
// The candle loop is strictly sequential because the EMA recurrence and
// position state carry forward bar to bar; the combination axis is the
// only parallelism, delegated to the configured backend.
type Engine struct {
	backend Backend
	logger  *zap.Logger
}

// NewEngine creates an engine on the given dispatch backend.
func NewEngine(backend Backend, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{backend: backend, logger: logger}
}

// Run produces one CombinationResult per valid parameter set. Invalid
// sets are skipped and logged without failing the batch; an empty candle
// series or a batch with no valid set at all is an error.
func (e *Engine) Run(ctx context.Context, candles []core.Candle, params []Params, opts Options) (*Result, error) {
	if len(candles) == 0 {
		return nil, core.ErrNoData
	}

	valid := make([]Params, 0, len(params))
	for i, p := range params {
		if err := p.Validate(); err != nil {
			e.logger.Warn("skipping invalid combination",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return nil, core.WrapError(core.ErrInvalidParams, errors.New("no valid combinations to simulate"))
	}

	a := newArena(valid, opts.InitialCapital)
	if opts.Detail && len(valid) == 1 {
		a.rec = newRecorder(opts.MaxDetailTrades, len(candles))
		a.recLane = 0
	}

	total := len(candles)
	every := total / 100
	if every == 0 {
		every = 1
	}

	for bar := 0; bar < total; bar++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		c := candles[bar]
		e.backend.Launch(len(valid), func(lane int) {
			a.step(lane, c)
		})

		if opts.OnProgress != nil && ((bar+1)%every == 0 || bar+1 == total) {
			opts.OnProgress(bar+1, total)
		}
	}

	// mark any still-open position to the final close
	last := candles[total-1]
	e.backend.Launch(len(valid), func(lane int) {
		a.closeOut(lane, last)
	})

	res := &Result{Combinations: a.results(opts.InitialCapital)}
	if a.rec != nil {
		res.Detail = &a.rec.d
	}

	e.logger.Debug("batch simulation finished",
		zap.String("backend", e.backend.Name()),
		zap.Int("candles", total),
		zap.Int("combinations", len(valid)),
	)
	return res, nil
}
