// Package datasource reads exported candle files back for display and analysis.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-moex/internal/types"
)

type DataSource interface {
	// Initialize points the data source at a parquet export.
	Initialize(path string) error
	// ReadAll yields every candle in time order, optionally bounded.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// GetRange returns the candles with start <= time <= end.
	GetRange(start time.Time, end time.Time) ([]types.MarketData, error)
	// ReadLastData returns the latest candle of a symbol.
	ReadLastData(symbol string) (types.MarketData, error)
	// Count returns the number of candles, optionally bounded.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// GetAllSymbols lists the distinct symbols in the file.
	GetAllSymbols() ([]string, error)
	// Close closes the data source and releases any resources
	Close() error
}
