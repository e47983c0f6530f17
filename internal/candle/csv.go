// Package candle loads and validates OHLCV candle series from CSV files
// and from the Postgres history repository.
package candle

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/quantsweep/quantsweep/internal/core"
)

// ReadCSV parses candles from r. The expected header is
// time,open,high,low,close[,volume[,open_interest]]; the time column
// accepts RFC3339 or unix seconds.
func ReadCSV(r io.Reader) ([]core.Candle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, core.WrapError(core.ErrBadSeries, err)
	}
	if len(records) == 0 {
		return nil, core.ErrNoData
	}

	// skip a header row if the first field is not parseable as a time
	start := 0
	if _, err := parseTime(records[0][0]); err != nil {
		start = 1
	}

	candles := make([]core.Candle, 0, len(records)-start)
	for i, rec := range records[start:] {
		if len(rec) < 5 {
			return nil, core.WrapError(core.ErrBadSeries,
				fmt.Errorf("row %d: expected at least 5 columns, got %d", i+start+1, len(rec)))
		}
		c, err := parseRow(rec)
		if err != nil {
			return nil, core.WrapError(core.ErrBadSeries,
				fmt.Errorf("row %d: %w", i+start+1, err))
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// ReadFile loads candles from a CSV file on disk.
func ReadFile(path string) ([]core.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes candles with the canonical header.
func WriteCSV(w io.Writer, candles []core.Candle) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"time", "open", "high", "low", "close", "volume", "open_interest"}); err != nil {
		return err
	}
	for _, c := range candles {
		rec := []string{
			c.Time.UTC().Format(time.RFC3339),
			formatF(c.Open), formatF(c.High), formatF(c.Low), formatF(c.Close),
			formatF(c.Volume), formatF(c.OpenInterest),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Validate checks the series ordering invariant: strictly ascending,
// unique timestamps.
func Validate(candles []core.Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return core.WrapError(core.ErrBadSeries,
				fmt.Errorf("candle %d at %s does not advance past %s",
					i, candles[i].Time.Format(time.RFC3339), candles[i-1].Time.Format(time.RFC3339)))
		}
	}
	return nil
}

func parseRow(rec []string) (core.Candle, error) {
	ts, err := parseTime(rec[0])
	if err != nil {
		return core.Candle{}, err
	}

	var c core.Candle
	c.Time = ts
	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("column %d: %w", i+2, err)
		}
		*dst = v
	}
	if len(rec) > 5 && rec[5] != "" {
		if c.Volume, err = strconv.ParseFloat(rec[5], 64); err != nil {
			return core.Candle{}, fmt.Errorf("volume: %w", err)
		}
	}
	if len(rec) > 6 && rec[6] != "" {
		if c.OpenInterest, err = strconv.ParseFloat(rec[6], 64); err != nil {
			return core.Candle{}, fmt.Errorf("open_interest: %w", err)
		}
	}
	return c, nil
}

func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparsable time %q", s)
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
