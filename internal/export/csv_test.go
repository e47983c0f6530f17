package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantsweep/quantsweep/internal/job"
	"github.com/quantsweep/quantsweep/internal/perf"
	"github.com/quantsweep/quantsweep/internal/sim"
)

func sampleResults() []job.Result {
	return []job.Result{
		{
			Params:  sim.Params{FastPeriod: 5, SlowPeriod: 20},
			Metrics: perf.Metrics{NetPnL: 10, TotalTrades: 4},
		},
		{
			Params:  sim.Params{FastPeriod: 10, SlowPeriod: 30},
			Metrics: perf.Metrics{NetPnL: 42.5, TotalTrades: 2, WinningTrades: 2, WinRate: 100},
		},
		{
			Params:  sim.Params{FastPeriod: 8, SlowPeriod: 21},
			Metrics: perf.Metrics{NetPnL: -3, TotalTrades: 6, LosingTrades: 6},
		},
	}
}

func TestRank_OrdersByNetPnLDesc(t *testing.T) {
	ranked := Rank(sampleResults())

	require.Len(t, ranked, 3)
	assert.Equal(t, 42.5, ranked[0].Metrics.NetPnL)
	assert.Equal(t, 10.0, ranked[1].Metrics.NetPnL)
	assert.Equal(t, -3.0, ranked[2].Metrics.NetPnL)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	results := sampleResults()
	Rank(results)
	assert.Equal(t, 10.0, results[0].Metrics.NetPnL)
}

func TestRank_TieBreaksOnFewerTrades(t *testing.T) {
	results := []job.Result{
		{Params: sim.Params{FastPeriod: 3}, Metrics: perf.Metrics{NetPnL: 5, TotalTrades: 9}},
		{Params: sim.Params{FastPeriod: 7}, Metrics: perf.Metrics{NetPnL: 5, TotalTrades: 2}},
	}

	ranked := Rank(results)
	assert.Equal(t, 7, ranked[0].Params.FastPeriod)
}

func TestWriteResults_RankedRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, sampleResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4) // header + 3 rows

	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, "net_pnl", records[0][5])

	// best combination first
	assert.Equal(t, []string{"1", "10", "30"}, records[1][:3])
	assert.Equal(t, "42.5", records[1][5])
	assert.Equal(t, "3", records[3][0])
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteFile(path, sampleResults()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)
}
