package marketdata

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

type TimeSeriesTestSuite struct {
	suite.Suite
}

func TestTimeSeriesSuite(t *testing.T) {
	suite.Run(t, new(TimeSeriesTestSuite))
}

func bar(day int, open, high, low, closePrice, volume float64) types.MarketData {
	return types.MarketData{
		Symbol: "SBER",
		Time:   time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
}

func newSeries(rows ...types.MarketData) *TimeSeries {
	return NewTimeSeries("SBER", TimespanOneDay, date(2024, 3, 1), date(2024, 3, 31), rows)
}

func (suite *TimeSeriesTestSuite) TestNewTimeSeriesSortsAndDeduplicates() {
	series := newSeries(
		bar(5, 3, 3, 3, 3, 30),
		bar(1, 1, 1, 1, 1, 10),
		bar(3, 2, 2, 2, 2, 20),
		bar(3, 9, 9, 9, 9, 90),
	)

	suite.Equal(3, series.Len())

	days := []int{}
	for _, t := range series.Times() {
		days = append(days, t.Day())
	}

	suite.Equal([]int{1, 3, 5}, days)
	// first row of a duplicated timestamp wins
	suite.Equal(2.0, series.Rows()[1].Close)
}

func (suite *TimeSeriesTestSuite) TestRowsIsACopy() {
	series := newSeries(bar(1, 1, 1, 1, 1, 10))

	rows := series.Rows()
	rows[0].Close = 100

	suite.Equal(1.0, series.Rows()[0].Close)
}

func (suite *TimeSeriesTestSuite) TestTail() {
	series := newSeries(bar(1, 1, 1, 1, 1, 1), bar(2, 2, 2, 2, 2, 2), bar(3, 3, 3, 3, 3, 3))

	tests := []struct {
		name     string
		n        int
		expected []float64
	}{
		{name: "fewer than len", n: 2, expected: []float64{2, 3}},
		{name: "exact len", n: 3, expected: []float64{1, 2, 3}},
		{name: "more than len", n: 10, expected: []float64{1, 2, 3}},
		{name: "zero", n: 0, expected: []float64{}},
		{name: "negative", n: -1, expected: []float64{}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			tail := series.Tail(tc.n)
			closes, err := tail.Column(types.ColumnClose)
			suite.Require().NoError(err)
			suite.Equal(tc.expected, closes)
			suite.Equal("SBER", tail.Ticker)
		})
	}
}

func (suite *TimeSeriesTestSuite) TestFirstLast() {
	empty := newSeries()
	suite.True(empty.IsEmpty())
	suite.True(empty.First().IsNone())
	suite.True(empty.Last().IsNone())

	series := newSeries(bar(2, 2, 2, 2, 2, 2), bar(1, 1, 1, 1, 1, 1))
	suite.Equal(1, series.First().Unwrap().Time.Day())
	suite.Equal(2, series.Last().Unwrap().Time.Day())
}

func (suite *TimeSeriesTestSuite) TestColumn() {
	series := newSeries(bar(1, 1, 2, 0.5, 1.5, 100))

	high, err := series.Column(types.ColumnHigh)
	suite.NoError(err)
	suite.Equal([]float64{2}, high)

	_, err = series.Column("price")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidColumn))

	_, err = series.Columns([]string{types.ColumnOpen, "bogus"})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidColumn))
}

func (suite *TimeSeriesTestSuite) TestNulls() {
	nan := math.NaN()
	series := newSeries(
		bar(1, 1, 1, 1, 1, 10),
		bar(2, nan, 2, 2, nan, 20),
		bar(3, 3, 3, 3, 3, nan),
	)

	suite.True(series.HasNulls())
	suite.Equal(3, series.NullsCount())
	suite.Equal(map[string]int{
		types.ColumnBegin:  0,
		types.ColumnOpen:   1,
		types.ColumnHigh:   0,
		types.ColumnLow:    0,
		types.ColumnClose:  1,
		types.ColumnVolume: 1,
	}, series.NullsByColumn())

	clean := newSeries(bar(1, 1, 1, 1, 1, 1))
	suite.False(clean.HasNulls())
	suite.Equal(0, clean.NullsCount())
}

func (suite *TimeSeriesTestSuite) TestFillNA() {
	nan := math.NaN()
	series := newSeries(
		bar(1, nan, 1, 1, 1, 10),
		bar(2, 2, 2, 2, nan, 20),
		bar(3, 3, 3, 3, 3, nan),
	)

	tests := []struct {
		name           string
		method         FillMethod
		expectedOpen   []float64
		expectedClose  []float64
		expectedVolume []float64
	}{
		{
			name:           "forward",
			method:         FillForward,
			expectedOpen:   []float64{nan, 2, 3},
			expectedClose:  []float64{1, 1, 3},
			expectedVolume: []float64{10, 20, 20},
		},
		{
			name:           "backward",
			method:         FillBackward,
			expectedOpen:   []float64{2, 2, 3},
			expectedClose:  []float64{1, 3, 3},
			expectedVolume: []float64{10, 20, nan},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			filled, err := series.FillNA(tc.method)
			suite.Require().NoError(err)

			open, _ := filled.Column(types.ColumnOpen)
			closes, _ := filled.Column(types.ColumnClose)
			volume, _ := filled.Column(types.ColumnVolume)

			suite.assertFloats(tc.expectedOpen, open)
			suite.assertFloats(tc.expectedClose, closes)
			suite.assertFloats(tc.expectedVolume, volume)
		})
	}

	// original is untouched
	suite.Equal(3, series.NullsCount())

	_, err := series.FillNA(FillMethod("mean"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *TimeSeriesTestSuite) TestDropNA() {
	nan := math.NaN()
	series := newSeries(
		bar(1, 1, 1, 1, 1, 10),
		bar(2, nan, 2, 2, 2, 20),
		bar(3, 3, 3, 3, 3, 30),
	)

	dropped := series.DropNA()
	suite.Equal(2, dropped.Len())
	suite.False(dropped.HasNulls())
	suite.Equal(3, series.Len())
}

func (suite *TimeSeriesTestSuite) TestString() {
	series := newSeries(bar(1, 1.5, 2, 1, 1.75, 100), bar(2, math.NaN(), 2, 1, 2, 50))

	out := series.String()
	suite.Contains(out, "SBER 1d (2 rows)")
	suite.Contains(out, "begin")
	suite.Contains(out, "volume")
	suite.Contains(out, "2024-03-01 00:00:00")
	suite.Contains(out, "1.75")
	suite.Contains(out, "NaN")
}

func (suite *TimeSeriesTestSuite) assertFloats(expected, actual []float64) {
	suite.Require().Len(actual, len(expected))

	for i := range expected {
		if math.IsNaN(expected[i]) {
			suite.True(math.IsNaN(actual[i]), "index %d: expected NaN, got %v", i, actual[i])

			continue
		}

		suite.InDelta(expected[i], actual[i], 1e-9, "index %d", i)
	}
}
