package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSide_String(t *testing.T) {
	assert.Equal(t, "flat", Flat.String())
	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
}

func TestParseExecPrice(t *testing.T) {
	tests := []struct {
		in      string
		want    ExecPrice
		wantErr bool
	}{
		{"", ExecClose, false},
		{"close", ExecClose, false},
		{"open", ExecOpen, false},
		{"midpoint", ExecClose, true},
	}
	for _, tt := range tests {
		got, err := ParseExecPrice(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTrade_JSON(t *testing.T) {
	exit := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	tr := Trade{
		Side:       Long,
		EntryTime:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice: 100,
		ExitTime:   &exit,
		ExitPrice:  105,
		PnL:        5,
		Status:     TradeClosed,
	}

	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"side":"long"`)
	assert.Contains(t, string(data), `"status":"closed"`)

	assert.True(t, tr.IsWin())
	tr.PnL = -1
	assert.False(t, tr.IsWin())
}
