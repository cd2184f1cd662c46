package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()

	db, err := Open(DriverSQLite, filepath.Join(suite.T().TempDir(), "shares.db"))
	suite.Require().NoError(err)

	suite.store = NewStore(db, nil)
	suite.Require().NoError(suite.store.Migrate(suite.ctx))
}

func (suite *StoreTestSuite) sber() *Share {
	share := &Share{Ticker: "SBER", Name: "Sberbank", Slug: "sber", ISIN: "RU0009029540"}
	suite.Require().NoError(suite.store.CreateShare(suite.ctx, share))

	return share
}

func candle(day int, closePrice float64) types.MarketData {
	return types.MarketData{
		Symbol: "SBER",
		Time:   time.Date(2024, 3, day, 0, 0, 0, 0, time.FixedZone("MSK", 3*3600)),
		Open:   closePrice - 1,
		High:   closePrice + 2,
		Low:    closePrice - 2,
		Close:  closePrice,
		Volume: 1000,
	}
}

func (suite *StoreTestSuite) TestOpenUnknownDriver() {
	_, err := Open(Driver("oracle"), "")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *StoreTestSuite) TestShareLifecycle() {
	share := suite.sber()
	suite.NotZero(share.ID)

	loaded, err := suite.store.GetShareBySlug(suite.ctx, "sber")
	suite.Require().NoError(err)
	suite.Equal("SBER", loaded.Ticker)
	suite.Equal("RU0009029540", loaded.ISIN)

	gazp := &Share{Ticker: "GAZP", Name: "Gazprom", Slug: "gazp"}
	suite.Require().NoError(suite.store.CreateShare(suite.ctx, gazp))

	shares, err := suite.store.ListShares(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(shares, 2)
	suite.Equal("GAZP", shares[0].Ticker)

	suite.Require().NoError(suite.store.DeleteShare(suite.ctx, "gazp"))

	_, err = suite.store.GetShareBySlug(suite.ctx, "gazp")
	suite.True(errors.HasCode(err, errors.ErrCodeShareNotFound))
}

func (suite *StoreTestSuite) TestCreateShareErrors() {
	suite.sber()

	testCases := []struct {
		name         string
		share        *Share
		expectedCode errors.ErrorCode
	}{
		{name: "duplicate slug", share: &Share{Ticker: "SBERP", Slug: "sber"}, expectedCode: errors.ErrCodeShareExists},
		{name: "missing slug", share: &Share{Ticker: "SBER"}, expectedCode: errors.ErrCodeMissingParameter},
		{name: "missing ticker", share: &Share{Slug: "x"}, expectedCode: errors.ErrCodeMissingParameter},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			err := suite.store.CreateShare(suite.ctx, tc.share)
			suite.True(errors.HasCode(err, tc.expectedCode), "got %v", err)
		})
	}
}

func (suite *StoreTestSuite) TestDeleteMissingShare() {
	err := suite.store.DeleteShare(suite.ctx, "nope")
	suite.True(errors.HasCode(err, errors.ErrCodeShareNotFound))
}

func (suite *StoreTestSuite) TestSavePrices() {
	share := suite.sber()

	rows := []types.MarketData{candle(5, 282), candle(4, 280), candle(6, 281.5)}
	saved, err := suite.store.SavePrices(suite.ctx, share, rows, "")
	suite.Require().NoError(err)
	suite.Equal(3, saved)

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Require().Len(prices, 3)

	first := prices[0]
	suite.Equal("280", first.Price.String())
	suite.False(first.Change.Valid)
	suite.Equal(DefaultCurrency, first.Currency)
	suite.True(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).Equal(first.Date), "date %s", first.Date)
	suite.Equal("2024-03-04", first.Date.UTC().Format("2006-01-02"))
	suite.Equal("279", first.Open.Decimal.String())
	suite.InDelta(1000.0, first.Volume.Float64, 1e-9)

	suite.True(prices[1].Change.Valid)
	suite.Equal("2", prices[1].Change.Decimal.String())
	suite.Equal("-0.5", prices[2].Change.Decimal.String())
}

func (suite *StoreTestSuite) TestSavePricesUpsertsAndChainsChange() {
	share := suite.sber()

	_, err := suite.store.SavePrices(suite.ctx, share, []types.MarketData{candle(4, 280), candle(5, 282)}, "RUB")
	suite.Require().NoError(err)

	// re-sync overlaps day 5 and adds day 6
	_, err = suite.store.SavePrices(suite.ctx, share, []types.MarketData{candle(5, 283), candle(6, 285)}, "RUB")
	suite.Require().NoError(err)

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Require().Len(prices, 3)
	suite.Equal("283", prices[1].Price.String())
	suite.Equal("3", prices[1].Change.Decimal.String())
	suite.Equal("2", prices[2].Change.Decimal.String())
}

func (suite *StoreTestSuite) TestSavePricesSkipsMissingClose() {
	share := suite.sber()

	gap := candle(5, math.NaN())
	noVolume := candle(6, 290)
	noVolume.Volume = math.NaN()
	noVolume.High = math.NaN()

	saved, err := suite.store.SavePrices(suite.ctx, share, []types.MarketData{candle(4, 280), gap, noVolume}, "RUB")
	suite.Require().NoError(err)
	suite.Equal(2, saved)

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Require().Len(prices, 2)
	suite.False(prices[1].Volume.Valid)
	suite.False(prices[1].High.Valid)

	saved, err = suite.store.SavePrices(suite.ctx, share, nil, "RUB")
	suite.NoError(err)
	suite.Zero(saved)
}

func (suite *StoreTestSuite) TestListPricesBounds() {
	share := suite.sber()

	_, err := suite.store.SavePrices(suite.ctx, share, []types.MarketData{candle(4, 1), candle(5, 2), candle(6, 3), candle(7, 4)}, "RUB")
	suite.Require().NoError(err)

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, candle(5, 0).Time, candle(6, 0).Time)
	suite.Require().NoError(err)
	suite.Len(prices, 2)
}

func (suite *StoreTestSuite) TestPriceDatesKeepTradingDay() {
	share := suite.sber()
	msk := time.FixedZone("MSK", 3*3600)

	evening := candle(4, 280)
	evening.Time = time.Date(2024, 3, 4, 18, 30, 0, 0, msk)
	_, err := suite.store.SavePrices(suite.ctx, share, []types.MarketData{candle(4, 279), evening, candle(5, 282)}, "RUB")
	suite.Require().NoError(err)

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Require().Len(prices, 3)
	suite.True(time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC).Equal(prices[1].Date), "date %s", prices[1].Date)
	suite.True(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Equal(prices[2].Date), "date %s", prices[2].Date)
	suite.Equal("2", prices[2].Change.Decimal.String())

	// bounds given in exchange time select the same calendar day
	day, err := suite.store.ListPrices(suite.ctx, share.ID,
		time.Date(2024, 3, 5, 0, 0, 0, 0, msk), time.Date(2024, 3, 5, 23, 59, 59, 0, msk))
	suite.Require().NoError(err)
	suite.Require().Len(day, 1)
	suite.Equal("282", day[0].Price.String())
}

func (suite *StoreTestSuite) TestDeleteShareRemovesPrices() {
	share := suite.sber()

	_, err := suite.store.SavePrices(suite.ctx, share, []types.MarketData{candle(4, 1)}, "RUB")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.DeleteShare(suite.ctx, "sber"))

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Empty(prices)
}

func (suite *StoreTestSuite) TestPriceWriter() {
	share := suite.sber()
	w := NewPriceWriter(suite.ctx, suite.store, share, "RUB")

	suite.Require().NoError(w.Initialize())
	suite.Require().NoError(w.Write(candle(4, 280)))
	suite.Require().NoError(w.Write(candle(5, 281)))

	path, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Equal("prices/sber", path)
	suite.Equal(2, w.Saved())
	suite.NoError(w.Close())

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Len(prices, 2)
}
