package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/grid"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy"
	"github.com/quantsweep/quantsweep/internal/strategy/emacross"
)

func newTestRunner(t *testing.T) (*Runner, *Store) {
	t.Helper()

	reg := strategy.NewRegistry()
	reg.Register(emacross.New(nil))

	backend := sim.NewPool(2)
	t.Cleanup(backend.Close)

	store := NewStore(10, time.Hour)
	runner := NewRunner(RunnerConfig{
		Store:    store,
		Registry: reg,
		Backend:  backend,
	})
	return runner, store
}

func rampCandles(n int) []core.Candle {
	candles := make([]core.Candle, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		px := 100 + float64(i)
		candles[i] = core.Candle{
			Time:  base.Add(time.Duration(i) * time.Minute),
			Open:  px,
			High:  px + 1,
			Low:   px - 1,
			Close: px,
		}
	}
	return candles
}

func waitTerminal(t *testing.T, store *Store, id string) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		got, err := store.Get(id)
		if err != nil {
			return false
		}
		job = got
		return job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestRunner_CompletesSweep(t *testing.T) {
	runner, store := newTestRunner(t)

	id := runner.Submit(Request{
		Candles: rampCandles(60),
		Ranges: []grid.Range{
			{Name: "fast_period", Start: 3, End: 5, Step: 2, Integer: true},
			{Name: "slow_period", Start: 10, End: 10, Step: 1, Integer: true},
		},
		InitialCapital: 10000,
	})

	job := waitTerminal(t, store, id)
	require.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 1.0, job.Progress)
	assert.Equal(t, 2, job.TotalCombinations)
	require.Len(t, job.Results, 2)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.EndedAt)

	results, err := store.Results(id)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.NotZero(t, r.Params.SlowPeriod)
	}
}

func TestRunner_EmptyCandlesFailsJob(t *testing.T) {
	runner, store := newTestRunner(t)

	id := runner.Submit(Request{
		Ranges: []grid.Range{
			{Name: "fast_period", Start: 5, End: 5, Integer: true},
		},
	})

	job := waitTerminal(t, store, id)
	assert.Equal(t, StatusFailed, job.Status)
	assert.NotEmpty(t, job.Message)
	assert.Equal(t, 0, job.TotalCombinations)
}

func TestRunner_UnorderedCandlesFailsJob(t *testing.T) {
	runner, store := newTestRunner(t)

	candles := rampCandles(10)
	candles[3].Time = candles[7].Time

	id := runner.Submit(Request{Candles: candles, InitialCapital: 1000})

	job := waitTerminal(t, store, id)
	assert.Equal(t, StatusFailed, job.Status)
	assert.NotEmpty(t, job.Message)
}

func TestRunner_UnknownStrategyFailsJob(t *testing.T) {
	runner, store := newTestRunner(t)

	id := runner.Submit(Request{
		Candles:  rampCandles(10),
		Strategy: "momentum",
	})

	job := waitTerminal(t, store, id)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.Message, "momentum")
}

func TestRunner_AllInvalidCombinationsFailsJob(t *testing.T) {
	runner, store := newTestRunner(t)

	id := runner.Submit(Request{
		Candles: rampCandles(10),
		Ranges: []grid.Range{
			{Name: "lookback", Start: 5, End: 5, Integer: true},
		},
	})

	job := waitTerminal(t, store, id)
	assert.Equal(t, StatusFailed, job.Status)
	assert.NotEmpty(t, job.Message)
}

func TestRunner_DefaultsWithEmptyRanges(t *testing.T) {
	runner, store := newTestRunner(t)

	// no ranges: a single combination built from strategy defaults
	id := runner.Submit(Request{
		Candles:        rampCandles(40),
		InitialCapital: 5000,
	})

	job := waitTerminal(t, store, id)
	require.Equal(t, StatusCompleted, job.Status)
	require.Len(t, job.Results, 1)
	assert.Equal(t, 10, job.Results[0].Params.FastPeriod)
	assert.Equal(t, 20, job.Results[0].Params.SlowPeriod)
}
