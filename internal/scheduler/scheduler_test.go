package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rxtech-lab/argo-moex/internal/logger"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/mocks"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-moex/pkg/store"
)

type SchedulerTestSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	fetcher *mocks.MockFetcher
	store   *store.Store
	syncer  *Syncer
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (suite *SchedulerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.ctrl = gomock.NewController(suite.T())
	suite.fetcher = mocks.NewMockFetcher(suite.ctrl)

	db, err := store.Open(store.DriverSQLite, filepath.Join(suite.T().TempDir(), "sync.db"))
	suite.Require().NoError(err)

	suite.store = store.NewStore(db, nil)
	suite.Require().NoError(suite.store.Migrate(suite.ctx))

	now := time.Date(2024, 3, 29, 20, 0, 0, 0, provider.MSK)
	resolver := marketdata.NewResolver(suite.fetcher, marketdata.WithClock(func() time.Time { return now }))
	suite.syncer = NewSyncer(resolver, suite.store, 3, "", nil)
}

func (suite *SchedulerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *SchedulerTestSuite) addShare(ticker string) *store.Share {
	share := &store.Share{Ticker: ticker, Name: ticker, Slug: fmt.Sprintf("%s-share", ticker)}
	suite.Require().NoError(suite.store.CreateShare(suite.ctx, share))

	return share
}

func days(ticker string, dayNumbers ...int) []types.MarketData {
	rows := make([]types.MarketData, 0, len(dayNumbers))
	for _, d := range dayNumbers {
		price := float64(100 + d)
		rows = append(rows, types.MarketData{
			Symbol: ticker,
			Time:   time.Date(2024, 3, d, 0, 0, 0, 0, provider.MSK),
			Open:   price - 1,
			High:   price + 1,
			Low:    price - 2,
			Close:  price,
			Volume: 1000,
		})
	}

	return rows
}

func (suite *SchedulerTestSuite) expectFetch(ticker string, rows []types.MarketData, err error) {
	suite.fetcher.EXPECT().
		Fetch(gomock.Any(), ticker, gomock.Any(), gomock.Any(), 1, models.Day).
		Return(rows, err)
}

func (suite *SchedulerTestSuite) TestSyncShare() {
	share := suite.addShare("SBER")
	suite.expectFetch("SBER", days("SBER", 22, 25, 26, 27, 28), nil)

	saved, err := suite.syncer.SyncShare(suite.ctx, share)
	suite.Require().NoError(err)
	suite.Equal(3, saved)

	prices, err := suite.store.ListPrices(suite.ctx, share.ID, time.Time{}, time.Time{})
	suite.Require().NoError(err)
	suite.Require().Len(prices, 3)
	suite.Equal("126", prices[0].Price.String())
	suite.Equal(store.DefaultCurrency, prices[0].Currency)
}

func (suite *SchedulerTestSuite) TestSyncShareShortHistory() {
	share := suite.addShare("SBER")
	suite.expectFetch("SBER", days("SBER", 28), nil)

	saved, err := suite.syncer.SyncShare(suite.ctx, share)
	suite.NoError(err)
	suite.Equal(1, saved)
}

func (suite *SchedulerTestSuite) TestSyncShareFetchError() {
	share := suite.addShare("SBER")
	suite.expectFetch("SBER", nil, fmt.Errorf("connection reset"))

	_, err := suite.syncer.SyncShare(suite.ctx, share)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

func (suite *SchedulerTestSuite) TestSyncAll() {
	testCases := []struct {
		name      string
		gazpErr   error
		wantSaved map[string]int
		wantErr   map[string]bool
	}{
		{
			name:      "all shares synced",
			wantSaved: map[string]int{"GAZP": 3, "SBER": 3},
			wantErr:   map[string]bool{},
		},
		{
			name:      "failing share does not stop others",
			gazpErr:   fmt.Errorf("timeout"),
			wantSaved: map[string]int{"GAZP": 0, "SBER": 3},
			wantErr:   map[string]bool{"GAZP": true},
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.addShare("SBER")
			suite.addShare("GAZP")

			suite.expectFetch("SBER", days("SBER", 26, 27, 28), nil)
			if tc.gazpErr != nil {
				suite.expectFetch("GAZP", nil, tc.gazpErr)
			} else {
				suite.expectFetch("GAZP", days("GAZP", 26, 27, 28), nil)
			}

			results, err := suite.syncer.SyncAll(suite.ctx)
			suite.Require().NoError(err)
			suite.Require().Len(results, 2)

			for _, r := range results {
				suite.Equal(tc.wantSaved[r.Ticker], r.Saved, r.Ticker)
				suite.Equal(tc.wantErr[r.Ticker], r.Err != nil, r.Ticker)
			}
		})
	}
}

func (suite *SchedulerTestSuite) TestSyncAllCancelled() {
	suite.addShare("SBER")

	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	results, err := suite.syncer.SyncAll(ctx)
	suite.ErrorIs(err, context.Canceled)
	suite.Empty(results)
}

func (suite *SchedulerTestSuite) TestNewInvalidSpec() {
	_, err := New(suite.syncer, "every morning", nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *SchedulerTestSuite) TestRunOnce() {
	suite.addShare("SBER")
	suite.expectFetch("SBER", days("SBER", 26, 27, 28), nil)

	s, err := New(suite.syncer, "30 19 * * 1-5", nil)
	suite.Require().NoError(err)
	suite.True(s.Next().IsZero())

	results, err := s.RunOnce(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal(3, results[0].Saved)
	suite.Equal(results, s.LastResults())
}

func (suite *SchedulerTestSuite) TestStartStop() {
	s, err := New(suite.syncer, "30 19 * * 1-5", nil)
	suite.Require().NoError(err)

	s.Start(suite.ctx)
	next := s.Next()
	suite.True(next.After(time.Now()))
	suite.Equal(19, next.In(provider.MSK).Hour())
	suite.Equal(30, next.Minute())

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		suite.Fail("scheduler did not stop")
	}
}

func (suite *SchedulerTestSuite) TestPanicInRunIsLogged() {
	core, logs := observer.New(zapcore.DebugLevel)
	cronLog := newCronLogger(&logger.Logger{Logger: zap.New(core)})

	job := cron.NewChain(cron.Recover(cronLog)).Then(cron.FuncJob(func() {
		panic("sync exploded")
	}))
	suite.NotPanics(job.Run)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	suite.Require().Len(entries, 1)
	suite.Equal("panic", entries[0].Message)
	suite.Equal("cron", entries[0].LoggerName)
	suite.Contains(entries[0].ContextMap()["error"], "sync exploded")
}
