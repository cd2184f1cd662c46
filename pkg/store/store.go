// Package store persists shares and their daily prices with gorm.
package store

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

const saveBatchSize = 500

// Open connects to the database.
func Open(driver Driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorageUnavailable, err, "failed to open %s database", driver)
	}

	return db, nil
}

type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Store{db: db, logger: log}
}

// Migrate creates or updates the share and price tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Share{}, &Price{}); err != nil {
		return errors.Wrap(errors.ErrCodeMigrationFailed, "auto migrate failed", err)
	}

	return nil
}

// CreateShare inserts a share. Slugs are unique.
func (s *Store) CreateShare(ctx context.Context, share *Share) error {
	if share.Slug == "" || share.Ticker == "" {
		return errors.New(errors.ErrCodeMissingParameter, "share needs a ticker and a slug")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Share{}).Where("slug = ?", share.Slug).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to look up share", err)
	}

	if count > 0 {
		return errors.Newf(errors.ErrCodeShareExists, "share %q already exists", share.Slug)
	}

	if err := s.db.WithContext(ctx).Create(share).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Wrapf(errors.ErrCodeShareExists, err, "share %q already exists", share.Slug)
		}

		return errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to create share", err)
	}

	s.logger.Info("Share created", zap.String("slug", share.Slug), zap.String("ticker", share.Ticker))

	return nil
}

func (s *Store) GetShareBySlug(ctx context.Context, slug string) (*Share, error) {
	var share Share

	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&share).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrCodeShareNotFound, "share %q not found", slug)
		}

		return nil, errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to load share", err)
	}

	return &share, nil
}

// ListShares returns all shares ordered by ticker.
func (s *Store) ListShares(ctx context.Context) ([]Share, error) {
	var shares []Share

	if err := s.db.WithContext(ctx).Order("ticker, slug").Find(&shares).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to list shares", err)
	}

	return shares, nil
}

// DeleteShare removes a share together with its prices.
func (s *Store) DeleteShare(ctx context.Context, slug string) error {
	share, err := s.GetShareBySlug(ctx, slug)
	if err != nil {
		return err
	}

	// SQLite only enforces the cascade with foreign keys switched on
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("share_id = ?", share.ID).Delete(&Price{}).Error; err != nil {
			return err
		}

		return tx.Delete(share).Error
	})
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStorageUnavailable, err, "failed to delete share %q", slug)
	}

	s.logger.Info("Share deleted", zap.String("slug", slug))

	return nil
}

// SavePrices upserts candles as prices of the share and returns the number of rows stored.
// Price is the close, Change is the difference to the previous close (stored or in rows).
// Rows without a close are skipped.
func (s *Store) SavePrices(ctx context.Context, share *Share, rows []types.MarketData, currency string) (int, error) {
	if currency == "" {
		currency = DefaultCurrency
	}

	sorted := make([]types.MarketData, 0, len(rows))
	for _, row := range rows {
		if !math.IsNaN(row.Close) {
			sorted = append(sorted, row)
		}
	}

	if len(sorted) == 0 {
		return 0, nil
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	previous, err := s.previousClose(ctx, share.ID, exchangeDate(sorted[0].Time))
	if err != nil {
		return 0, err
	}

	prices := make([]Price, 0, len(sorted))
	for _, row := range sorted {
		closePrice := decimal.NewFromFloat(row.Close)

		change := decimal.NullDecimal{}
		if previous.Valid {
			change = decimal.NewNullDecimal(closePrice.Sub(previous.Decimal))
		}

		prices = append(prices, Price{
			ShareID:  share.ID,
			Date:     exchangeDate(row.Time),
			Price:    closePrice,
			Open:     nullDecimal(row.Open),
			High:     nullDecimal(row.High),
			Low:      nullDecimal(row.Low),
			Change:   change,
			Volume:   nullFloat(row.Volume),
			Currency: currency,
		})

		previous = decimal.NewNullDecimal(closePrice)
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "share_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "open", "high", "low", "change", "volume", "currency"}),
	}).CreateInBatches(&prices, saveBatchSize).Error
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodePriceSaveFailed, err, "failed to save prices of %s", share.Slug)
	}

	s.logger.Debug("Prices saved", zap.String("slug", share.Slug), zap.Int("rows", len(prices)))

	return len(prices), nil
}

// ListPrices returns prices of a share ordered by date. Zero bounds are open.
// Bounds are compared by their wall clock, like stored dates.
func (s *Store) ListPrices(ctx context.Context, shareID uint, from, to time.Time) ([]Price, error) {
	query := s.db.WithContext(ctx).Where("share_id = ?", shareID)

	if !from.IsZero() {
		query = query.Where("date >= ?", exchangeDate(from))
	}

	if !to.IsZero() {
		query = query.Where("date <= ?", exchangeDate(to))
	}

	var prices []Price
	if err := query.Order("date").Find(&prices).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to list prices", err)
	}

	return prices, nil
}

func (s *Store) previousClose(ctx context.Context, shareID uint, before time.Time) (decimal.NullDecimal, error) {
	var prices []Price

	err := s.db.WithContext(ctx).
		Where("share_id = ? AND date < ?", shareID, before).
		Order("date DESC").
		Limit(1).
		Find(&prices).Error
	if err != nil {
		return decimal.NullDecimal{}, errors.Wrap(errors.ErrCodeStorageUnavailable, "failed to load previous price", err)
	}

	if len(prices) == 0 {
		return decimal.NullDecimal{}, nil
	}

	return decimal.NewNullDecimal(prices[0].Price), nil
}

// exchangeDate keeps the exchange wall clock of t and labels it UTC,
// so a candle of 4 March is stored as 4 March whatever the server zone.
func exchangeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func nullDecimal(v float64) decimal.NullDecimal {
	if math.IsNaN(v) {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: v, Valid: true}
}
