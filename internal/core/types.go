package core

import (
	"fmt"
	"time"
)

// Side is the direction of a position.
type Side int8

const (
	Flat Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// MarshalJSON encodes the side as its lowercase name.
func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ExecPrice selects which candle price fills a crossover entry or exit.
type ExecPrice int8

const (
	ExecClose ExecPrice = iota
	ExecOpen
)

func (e ExecPrice) String() string {
	if e == ExecOpen {
		return "open"
	}
	return "close"
}

// ParseExecPrice converts "open"/"close" into an ExecPrice.
// The empty string defaults to close fills.
func ParseExecPrice(s string) (ExecPrice, error) {
	switch s {
	case "", "close":
		return ExecClose, nil
	case "open":
		return ExecOpen, nil
	default:
		return ExecClose, fmt.Errorf("unknown execution price mode %q", s)
	}
}

// Candle is one OHLCV bar. A series is ordered ascending by Time with
// unique timestamps and is shared read-only by all simulation lanes.
type Candle struct {
	Time         time.Time `json:"time"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume,omitempty"`
	OpenInterest float64   `json:"open_interest,omitempty"`
}

// TradeStatus marks whether a trade still holds a position.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// Trade is one entry/exit pair recorded by the simulator's detail lane.
// ExitTime, ExitPrice and PnL are set when the trade closes.
type Trade struct {
	Side       Side        `json:"side"`
	EntryTime  time.Time   `json:"entry_time"`
	EntryPrice float64     `json:"entry_price"`
	ExitTime   *time.Time  `json:"exit_time,omitempty"`
	ExitPrice  float64     `json:"exit_price,omitempty"`
	PnL        float64     `json:"pnl"`
	Status     TradeStatus `json:"status"`
}

// IsWin reports whether a closed trade realized a profit.
func (t Trade) IsWin() bool {
	return t.Status == TradeClosed && t.PnL > 0
}
