package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderMoex    ProviderType = "moex"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type OnDownloadProgress = func(current float64, total float64, message string)

// Fetcher loads candles for a ticker in memory.
type Fetcher interface {
	// Fetch returns the candles between startDate and endDate (both calendar dates inclusive),
	// sorted by time. A failing request is an error, never an empty result.
	// example:
	// Fetch(ctx, "SBER", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Day)
	Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) ([]types.MarketData, error)
}

type Provider interface {
	Fetcher
	// ConfigWriter configures the writer for the provider
	// Writer is used to write the market data to the database.
	// It could be a file, a database, etc.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download fetches the data for the given ticker and date range and writes it with the configured writer.
	// The context can be used to cancel the download operation.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// Config carries the per-provider construction settings.
type Config struct {
	PolygonApiKey string
	ISSBaseURL    string
	MoexOptions   []MoexOption
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, config Config) (Provider, error) {
	switch providerType {
	case ProviderMoex:
		opts := config.MoexOptions
		if config.ISSBaseURL != "" {
			opts = append([]MoexOption{WithBaseURL(config.ISSBaseURL)}, opts...)
		}

		return NewMoexClient(opts...), nil
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}

// download fetches the range and streams it through w. The writer is always closed.
func download(ctx context.Context, f Fetcher, w writer.MarketDataWriter, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if w == nil {
		return "", fmt.Errorf("no writer configured. Call ConfigWriter first")
	}

	err = w.Initialize()
	if err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing writer: %w", cerr)
		}
	}()

	rows, err := f.Fetch(ctx, ticker, startDate, endDate, multiplier, timespan)
	if err != nil {
		return "", err
	}

	total := float64(len(rows))
	message := fmt.Sprintf("Downloading %s", ticker)
	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription(message),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}

		if onProgress != nil {
			onProgress(float64(i+1), total, message)
		}

		_ = bar.Add(1)
	}

	_ = bar.Finish()

	outputPath, err := w.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}
