package types

import (
	"math"
	"time"
)

// Column names of a candle row, in the order the exchange returns them.
const (
	ColumnBegin  = "begin"
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// StdColumns is the column set requested from every provider.
var StdColumns = []string{ColumnBegin, ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// ValueColumns are the numeric columns of a candle row.
var ValueColumns = []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// MarketData is a single OHLCV candle. Missing numeric values are NaN.
type MarketData struct {
	Id     string    `csv:"id"`
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
}

// Value returns the numeric value of the named column.
// Unknown columns yield NaN and false.
func (m MarketData) Value(column string) (float64, bool) {
	switch column {
	case ColumnOpen:
		return m.Open, true
	case ColumnHigh:
		return m.High, true
	case ColumnLow:
		return m.Low, true
	case ColumnClose:
		return m.Close, true
	case ColumnVolume:
		return m.Volume, true
	default:
		return math.NaN(), false
	}
}

// SetValue sets the numeric value of the named column and reports whether the column is known.
func (m *MarketData) SetValue(column string, value float64) bool {
	switch column {
	case ColumnOpen:
		m.Open = value
	case ColumnHigh:
		m.High = value
	case ColumnLow:
		m.Low = value
	case ColumnClose:
		m.Close = value
	case ColumnVolume:
		m.Volume = value
	default:
		return false
	}

	return true
}

// HasNulls reports whether any numeric column is missing.
func (m MarketData) HasNulls() bool {
	for _, column := range ValueColumns {
		v, _ := m.Value(column)
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}
