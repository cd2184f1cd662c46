package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
	"github.com/rxtech-lab/argo-moex/pkg/store"
)

// Result is the outcome of syncing one share.
type Result struct {
	Slug   string
	Ticker string
	Saved  int
	// Err is set when the share could not be refreshed. Short histories are not errors.
	Err error
}

// Syncer copies the last trading days of every stored share into its price history.
type Syncer struct {
	resolver  *marketdata.Resolver
	store     *store.Store
	tradeDays int
	currency  string
	logger    *logger.Logger
}

func NewSyncer(resolver *marketdata.Resolver, st *store.Store, tradeDays int, currency string, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if currency == "" {
		currency = store.DefaultCurrency
	}

	return &Syncer{
		resolver:  resolver,
		store:     st,
		tradeDays: tradeDays,
		currency:  currency,
		logger:    log,
	}
}

// SyncShare fetches the daily candles of share and stores them as prices.
func (s *Syncer) SyncShare(ctx context.Context, share *store.Share) (int, error) {
	series, err := s.resolver.FromTradeDays(ctx, share.Ticker, s.tradeDays, marketdata.TimespanOneDay)
	if err != nil && !errors.IsInsufficientDataError(err) {
		return 0, err
	}

	if err != nil {
		s.logger.Warn("Short history", zap.String("share", share.Slug), zap.Error(err))
	}

	w := store.NewPriceWriter(ctx, s.store, share, s.currency)
	defer w.Close()

	if err := w.Initialize(); err != nil {
		return 0, err
	}

	for _, row := range series.Rows() {
		if err := w.Write(row); err != nil {
			return 0, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to buffer price", err)
		}
	}

	if _, err := w.Finalize(); err != nil {
		return 0, err
	}

	return w.Saved(), nil
}

// SyncAll refreshes every share. A failing share is reported in its Result and
// does not stop the others; the error return is reserved for listing shares.
func (s *Syncer) SyncAll(ctx context.Context) ([]Result, error) {
	shares, err := s.store.ListShares(ctx)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	results := make([]Result, 0, len(shares))

	for i := range shares {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		share := &shares[i]
		saved, err := s.SyncShare(ctx, share)
		results = append(results, Result{Slug: share.Slug, Ticker: share.Ticker, Saved: saved, Err: err})

		if err != nil {
			s.logger.Error("Failed to sync share", zap.String("share", share.Slug), zap.Error(err))
			continue
		}

		s.logger.Info("Synced share", zap.String("share", share.Slug), zap.Int("saved", saved))
	}

	s.logger.Info("Sync finished",
		zap.Int("shares", len(shares)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return results, nil
}
