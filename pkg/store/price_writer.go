package store

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/writer"
)

var _ writer.MarketDataWriter = (*PriceWriter)(nil)

// PriceWriter buffers candles and saves them as prices of one share on Finalize.
type PriceWriter struct {
	ctx      context.Context
	store    *Store
	share    *Share
	currency string
	rows     []types.MarketData
	saved    int
}

func NewPriceWriter(ctx context.Context, store *Store, share *Share, currency string) *PriceWriter {
	return &PriceWriter{
		ctx:      ctx,
		store:    store,
		share:    share,
		currency: currency,
		rows:     nil,
		saved:    0,
	}
}

func (w *PriceWriter) Initialize() error {
	w.rows = w.rows[:0]
	w.saved = 0

	return nil
}

func (w *PriceWriter) Write(data types.MarketData) error {
	w.rows = append(w.rows, data)

	return nil
}

// Finalize saves the buffered rows and returns GetOutputPath.
func (w *PriceWriter) Finalize() (string, error) {
	saved, err := w.store.SavePrices(w.ctx, w.share, w.rows, w.currency)
	if err != nil {
		return "", err
	}

	w.saved = saved
	w.rows = w.rows[:0]

	return w.GetOutputPath(), nil
}

func (w *PriceWriter) Close() error {
	w.rows = nil

	return nil
}

// GetOutputPath names the destination as prices/<slug>.
func (w *PriceWriter) GetOutputPath() string {
	return fmt.Sprintf("prices/%s", w.share.Slug)
}

// Saved is the number of prices stored by the last Finalize.
func (w *PriceWriter) Saved() int {
	return w.saved
}
