package emacross

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Defaults(t *testing.T) {
	s := New(nil)
	p, err := s.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, p.FastPeriod)
	assert.Equal(t, 20, p.SlowPeriod)
	assert.Equal(t, 0.0, p.StopLossPct)
	assert.Equal(t, 0.0, p.TakeProfitPct)
}

func TestBuild_Values(t *testing.T) {
	s := New(nil)
	p, err := s.Build(map[string]float64{
		"fast_period":     5,
		"slow_period":     30,
		"stop_loss_pct":   0.02,
		"take_profit_pct": 0.05,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, p.FastPeriod)
	assert.Equal(t, 30, p.SlowPeriod)
	assert.Equal(t, 0.02, p.StopLossPct)
	assert.Equal(t, 0.05, p.TakeProfitPct)
}

func TestBuild_UnknownParameter(t *testing.T) {
	s := New(nil)
	_, err := s.Build(map[string]float64{"rsi_period": 14})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rsi_period")
}

func TestBuild_OutOfBounds(t *testing.T) {
	s := New(nil)
	_, err := s.Build(map[string]float64{"fast_period": 0})
	require.Error(t, err)

	_, err = s.Build(map[string]float64{"stop_loss_pct": 1.5})
	require.Error(t, err)
}

func TestBuild_FastAboveSlowAllowed(t *testing.T) {
	s := New(nil)
	p, err := s.Build(map[string]float64{"fast_period": 50, "slow_period": 10})
	require.NoError(t, err)
	assert.Equal(t, 50, p.FastPeriod)
	assert.Equal(t, 10, p.SlowPeriod)
}
