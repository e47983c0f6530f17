package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA_Seed(t *testing.T) {
	closes := []float64{100, 102, 104, 103}
	series := EMA(closes, 10)
	require.Len(t, series, len(closes))
	assert.Equal(t, 100.0, series[0])
}

func TestEMA_Recurrence(t *testing.T) {
	closes := []float64{10, 20, 30}
	series := EMA(closes, 3) // alpha = 0.5

	assert.InDelta(t, 10.0, series[0], 1e-12)
	assert.InDelta(t, 15.0, series[1], 1e-12) // 20*0.5 + 10*0.5
	assert.InDelta(t, 22.5, series[2], 1e-12) // 30*0.5 + 15*0.5
}

func TestEMA_Empty(t *testing.T) {
	assert.Nil(t, EMA(nil, 5))
}

func TestTracker_SeedsBothWithFirstClose(t *testing.T) {
	tr := NewTracker(10, 20)
	fast, slow := tr.Update(123.45)
	assert.Equal(t, 123.45, fast)
	assert.Equal(t, 123.45, slow)
	assert.Equal(t, tr.PrevFast, tr.CurrFast)
	assert.Equal(t, tr.PrevSlow, tr.CurrSlow)
}

func TestTracker_MatchesSeries(t *testing.T) {
	closes := []float64{50, 51, 49.5, 52, 55, 54, 53.25, 56}
	fastSeries := EMA(closes, 3)
	slowSeries := EMA(closes, 5)

	tr := NewTracker(3, 5)
	for i, c := range closes {
		fast, slow := tr.Update(c)
		assert.InDelta(t, fastSeries[i], fast, 1e-12, "fast at bar %d", i)
		assert.InDelta(t, slowSeries[i], slow, 1e-12, "slow at bar %d", i)
	}
}

func TestTracker_KeepsPreviousPair(t *testing.T) {
	tr := NewTracker(2, 4)
	tr.Update(100)
	tr.Update(110)

	prevFast, prevSlow := tr.CurrFast, tr.CurrSlow
	tr.Update(105)
	assert.Equal(t, prevFast, tr.PrevFast)
	assert.Equal(t, prevSlow, tr.PrevSlow)
}
