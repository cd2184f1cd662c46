package provider

import (
	"context"
	"math"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-moex/internal/issmock"
	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/mocks"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/writer"
)

type MoexClientTestSuite struct {
	suite.Suite
	server *issmock.MockISSServer
	client *MoexClient
}

func TestMoexClientSuite(t *testing.T) {
	suite.Run(t, new(MoexClientTestSuite))
}

func (suite *MoexClientTestSuite) SetupSuite() {
	suite.server = issmock.NewMockISSServer()
	suite.Require().NoError(suite.server.Start(""))
}

func (suite *MoexClientTestSuite) TearDownSuite() {
	suite.NoError(suite.server.Stop())
}

func (suite *MoexClientTestSuite) SetupTest() {
	suite.server.Reset()
	suite.client = NewMoexClient(WithBaseURL(suite.server.BaseURL()), WithTimeout(5*time.Second))
}

func (suite *MoexClientTestSuite) march(day int) time.Time {
	return time.Date(2024, 3, day, 0, 0, 0, 0, mocks.MSK)
}

func (suite *MoexClientTestSuite) TestFetchDaily() {
	bars := mocks.DailyBars("SBER", suite.march(1), suite.march(31))
	suite.server.SetCandles("SBER", 24, bars)

	rows, err := suite.client.Fetch(context.Background(), "SBER", suite.march(4), suite.march(8), 1, models.Day)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 5)

	suite.Equal("SBER", rows[0].Symbol)
	suite.True(rows[0].Time.Equal(suite.march(4)))
	suite.Equal(MSK, rows[0].Time.Location())
	suite.Equal(bars[1].Close, rows[0].Close)

	requests := suite.server.Requests()
	suite.Require().NotEmpty(requests)
	suite.Equal("stock", requests[0].Engine)
	suite.Equal("shares", requests[0].Market)
	suite.Equal("", requests[0].Board)
	suite.Equal("2024-03-04", requests[0].From)
	suite.Equal("2024-03-08", requests[0].Till)
	suite.Equal(24, requests[0].Interval)
	suite.Equal("begin,open,high,low,close,volume", requests[0].Columns)
	suite.Equal("off", requests[0].Meta)
}

func (suite *MoexClientTestSuite) TestFetchPaginates() {
	suite.server.SetCandles("GAZP", 24, mocks.DailyBars("GAZP", suite.march(1), suite.march(31)))
	suite.server.SetPageSize(4)

	rows, err := suite.client.Fetch(context.Background(), "GAZP", suite.march(1), suite.march(31), 1, models.Day)
	suite.Require().NoError(err)
	suite.Len(rows, 21)

	// 6 pages with data and one empty page
	var starts []int
	for _, req := range suite.server.Requests() {
		starts = append(starts, req.Start)
	}

	suite.Equal([]int{0, 4, 8, 12, 16, 20, 21}, starts)

	for i := 1; i < len(rows); i++ {
		suite.True(rows[i].Time.After(rows[i-1].Time))
	}
}

func (suite *MoexClientTestSuite) TestFetchWithBoard() {
	suite.server.SetCandles("SBER", 60, mocks.HourlyBars("SBER", suite.march(4), suite.march(4)))

	client := NewMoexClient(WithBaseURL(suite.server.BaseURL()), WithBoard("TQBR"), WithEngine("stock"), WithMarket("shares"))

	rows, err := client.Fetch(context.Background(), "SBER", suite.march(4), suite.march(4), 1, models.Hour)
	suite.Require().NoError(err)
	suite.Len(rows, 9)
	suite.Equal("TQBR", suite.server.Requests()[0].Board)
	suite.Equal(60, suite.server.Requests()[0].Interval)
}

func (suite *MoexClientTestSuite) TestFetchNullsBecomeNaN() {
	bars := mocks.DailyBars("VTBR", suite.march(4), suite.march(5))
	bars[0].Volume = math.NaN()
	suite.server.SetCandles("VTBR", 24, bars)

	rows, err := suite.client.Fetch(context.Background(), "VTBR", suite.march(4), suite.march(5), 1, models.Day)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.True(math.IsNaN(rows[0].Volume))
	suite.False(math.IsNaN(rows[1].Volume))
}

func (suite *MoexClientTestSuite) TestFetchEmpty() {
	rows, err := suite.client.Fetch(context.Background(), "NONE", suite.march(4), suite.march(5), 1, models.Day)
	suite.NoError(err)
	suite.Empty(rows)
}

func (suite *MoexClientTestSuite) TestFetchServerError() {
	suite.server.FailWith(http.StatusInternalServerError)

	rows, err := suite.client.Fetch(context.Background(), "SBER", suite.march(4), suite.march(5), 1, models.Day)
	suite.Error(err)
	suite.Nil(rows)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.Contains(err.Error(), "500")
}

func (suite *MoexClientTestSuite) TestFetchUnsupportedTimespan() {
	_, err := suite.client.Fetch(context.Background(), "SBER", suite.march(4), suite.march(5), 5, models.Minute)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimespan))
	suite.Empty(suite.server.Requests())
}

func (suite *MoexClientTestSuite) TestFetchCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.client.Fetch(ctx, "SBER", suite.march(4), suite.march(5), 1, models.Day)
	suite.Error(err)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *MoexClientTestSuite) TestQuery() {
	suite.server.SetCandles("SBER", 24, mocks.DailyBars("SBER", suite.march(4), suite.march(5)))

	blocks, err := suite.client.Query(context.Background(), "engines/stock/markets/shares/securities/SBER/candles", map[string]string{
		"from":     "2024-03-04",
		"till":     "2024-03-05",
		"interval": "24",
	})
	suite.Require().NoError(err)

	block, ok := blocks["candles"]
	suite.Require().True(ok)
	suite.Equal(types.StdColumns, block.Columns)

	records := block.Records()
	suite.Require().Len(records, 2)
	suite.Equal("2024-03-04 00:00:00", records[0]["begin"])
}

func (suite *MoexClientTestSuite) TestSecurities() {
	suite.server.SetSecurities([]issmock.Security{
		{SecID: "SBER", ShortName: "Сбербанк", Name: "Сбербанк России ПАО ао", ISIN: "RU0009029540", PrimaryBoard: "TQBR"},
		{SecID: "GAZP", ShortName: "ГАЗПРОМ ао", Name: "Газпром ПАО ао", ISIN: "RU0007661625", PrimaryBoard: "TQBR"},
	})

	securities, err := suite.client.Securities(context.Background(), "SBER")
	suite.Require().NoError(err)
	suite.Require().Len(securities, 1)
	suite.Equal("SBER", securities[0].SecID)
	suite.Equal("RU0009029540", securities[0].ISIN)
	suite.Equal("TQBR", securities[0].PrimaryBoard)
	suite.True(securities[0].IsTraded)
}

func (suite *MoexClientTestSuite) TestDownloadToCSV() {
	suite.server.SetCandles("SBER", 24, mocks.DailyBars("SBER", suite.march(4), suite.march(8)))

	outputPath := filepath.Join(suite.T().TempDir(), "sber.csv")
	suite.client.ConfigWriter(writer.NewCSVWriter(outputPath))

	var calls int

	path, err := suite.client.Download(context.Background(), "SBER", suite.march(4), suite.march(8), 1, models.Day, func(current, total float64, _ string) {
		calls++
		suite.Equal(5.0, total)
		suite.LessOrEqual(current, total)
	})
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)
	suite.Equal(5, calls)
}

func (suite *MoexClientTestSuite) TestISSInterval() {
	tests := []struct {
		name       string
		multiplier int
		timespan   models.Timespan
		expected   int
		wantErr    bool
	}{
		{name: "minute", multiplier: 1, timespan: models.Minute, expected: 1},
		{name: "ten minutes", multiplier: 10, timespan: models.Minute, expected: 10},
		{name: "hour", multiplier: 1, timespan: models.Hour, expected: 60},
		{name: "day", multiplier: 1, timespan: models.Day, expected: 24},
		{name: "week", multiplier: 1, timespan: models.Week, expected: 7},
		{name: "month", multiplier: 1, timespan: models.Month, expected: 31},
		{name: "quarter", multiplier: 1, timespan: models.Quarter, expected: 4},
		{name: "two days", multiplier: 2, timespan: models.Day, wantErr: true},
		{name: "second", multiplier: 1, timespan: models.Second, wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			code, err := ISSInterval(tc.multiplier, tc.timespan)
			if tc.wantErr {
				suite.Error(err)

				return
			}

			suite.NoError(err)
			suite.Equal(tc.expected, code)
		})
	}
}

func (suite *MoexClientTestSuite) TestISSBlockRecordsShortRow() {
	block := ISSBlock{
		Columns: []string{"secid", "name"},
		Data:    [][]any{{"SBER"}},
	}

	records := block.Records()
	suite.Require().Len(records, 1)
	suite.Equal("SBER", records[0]["secid"])
	_, ok := records[0]["name"]
	suite.False(ok)
}
