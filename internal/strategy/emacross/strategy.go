// Package emacross defines the EMA crossover strategy: long on the fast
// EMA crossing above the slow, short on the mirror cross, with optional
// stop-loss and take-profit levels fixed at entry.
package emacross

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy"
)

// Name is the registry key for this strategy.
const Name = "ema_crossover"

// Strategy implements strategy.Definition for the EMA crossover rule.
type Strategy struct {
	logger *zap.Logger
}

// New creates the strategy definition. A nil logger is replaced with a
// no-op one.
func New(logger *zap.Logger) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{logger: logger}
}

func (s *Strategy) Name() string {
	return Name
}

func (s *Strategy) Description() string {
	return "EMA crossover with optional stop-loss/take-profit"
}

func (s *Strategy) Params() []strategy.ParamSpec {
	return []strategy.ParamSpec{
		{Name: "fast_period", Kind: strategy.KindInt, Min: 1, Max: 500, Default: 10},
		{Name: "slow_period", Kind: strategy.KindInt, Min: 1, Max: 500, Default: 20},
		{Name: "stop_loss_pct", Kind: strategy.KindFloat, Min: 0, Max: 1, Default: 0},
		{Name: "take_profit_pct", Kind: strategy.KindFloat, Min: 0, Max: 1, Default: 0},
	}
}

// Build maps named values onto the engine's parameter block. Unset
// parameters take their declared defaults; unknown names are rejected.
// A fast period at or above the slow one is unusual but allowed.
func (s *Strategy) Build(values map[string]float64) (sim.Params, error) {
	specs := s.Params()
	known := make(map[string]strategy.ParamSpec, len(specs))
	resolved := make(map[string]float64, len(specs))
	for _, spec := range specs {
		known[spec.Name] = spec
		resolved[spec.Name] = spec.Default
	}

	for name, v := range values {
		spec, ok := known[name]
		if !ok {
			return sim.Params{}, fmt.Errorf("unknown parameter %q", name)
		}
		if v < spec.Min || v > spec.Max {
			return sim.Params{}, fmt.Errorf("parameter %q out of bounds: %v not in [%v, %v]",
				name, v, spec.Min, spec.Max)
		}
		resolved[name] = v
	}

	p := sim.Params{
		FastPeriod:    int(math.Round(resolved["fast_period"])),
		SlowPeriod:    int(math.Round(resolved["slow_period"])),
		StopLossPct:   resolved["stop_loss_pct"],
		TakeProfitPct: resolved["take_profit_pct"],
	}
	if err := p.Validate(); err != nil {
		return sim.Params{}, err
	}

	if p.FastPeriod >= p.SlowPeriod {
		s.logger.Warn("fast period not below slow period",
			zap.Int("fast_period", p.FastPeriod),
			zap.Int("slow_period", p.SlowPeriod),
		)
	}
	return p, nil
}
