package candle

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantsweep/quantsweep/internal/core"
)

const sampleCSV = `time,open,high,low,close,volume
2024-01-01T00:00:00Z,100,105,99,102,1500
2024-01-02T00:00:00Z,102,108,101,106,1800
2024-01-03T00:00:00Z,106,110,104,108,900
`

func TestReadCSV(t *testing.T) {
	candles, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 105.0, candles[0].High)
	assert.Equal(t, 99.0, candles[0].Low)
	assert.Equal(t, 102.0, candles[0].Close)
	assert.Equal(t, 1500.0, candles[0].Volume)
	require.NoError(t, Validate(candles))
}

func TestReadCSV_UnixTimestamps(t *testing.T) {
	in := "1704067200,100,101,99,100.5\n1704153600,100.5,102,100,101\n"
	candles, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 2024, candles[0].Time.Year())
}

func TestReadCSV_BadRow(t *testing.T) {
	in := "time,open,high,low,close\n2024-01-01T00:00:00Z,abc,1,1,1\n"
	_, err := ReadCSV(strings.NewReader(in))
	require.ErrorIs(t, err, core.ErrBadSeries)
}

func TestReadCSV_TooFewColumns(t *testing.T) {
	in := "2024-01-01T00:00:00Z,100,105\n"
	_, err := ReadCSV(strings.NewReader(in))
	require.ErrorIs(t, err, core.ErrBadSeries)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, core.ErrNoData)
}

func TestValidate_OutOfOrder(t *testing.T) {
	candles := []core.Candle{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	require.ErrorIs(t, Validate(candles), core.ErrBadSeries)
}

func TestValidate_DuplicateTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []core.Candle{{Time: ts}, {Time: ts}}
	require.ErrorIs(t, Validate(candles), core.ErrBadSeries)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	candles, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, candles))

	back, err := ReadCSV(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, candles, back)
}

func TestCandleRow_Conversion(t *testing.T) {
	row := candleRow{
		Ts:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)),
		Open:   1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, OpenInterest: 3,
	}
	c := row.candle()
	assert.Equal(t, time.UTC, c.Time.Location())
	assert.Equal(t, 1.5, c.Close)
	assert.Equal(t, 3.0, c.OpenInterest)
}
