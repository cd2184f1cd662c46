package marketdata

import (
	"testing"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"
)

type TimespanTestSuite struct {
	suite.Suite
}

func TestTimespanSuite(t *testing.T) {
	suite.Run(t, new(TimespanTestSuite))
}

func (suite *TimespanTestSuite) TestMultiplier() {
	tests := []struct {
		timespan Timespan
		expected int
	}{
		{TimespanOneMinute, 1},
		{TimespanFiveMinutes, 5},
		{TimespanTenMinutes, 10},
		{TimespanFifteenMinutes, 15},
		{TimespanThirtyMinutes, 30},
		{TimespanOneHour, 1},
		{TimespanFourHours, 4},
		{TimespanOneDay, 1},
		{TimespanOneWeek, 1},
		{TimespanOneMonth, 1},
		{TimespanOneQuarter, 1},
		{Timespan("unknown"), 1},
	}

	for _, tc := range tests {
		suite.Run(string(tc.timespan), func() {
			suite.Equal(tc.expected, tc.timespan.Multiplier())
		})
	}
}

func (suite *TimespanTestSuite) TestTimespan() {
	tests := []struct {
		timespan Timespan
		expected models.Timespan
	}{
		{TimespanOneMinute, models.Minute},
		{TimespanTenMinutes, models.Minute},
		{TimespanOneHour, models.Hour},
		{TimespanFourHours, models.Hour},
		{TimespanOneDay, models.Day},
		{TimespanOneWeek, models.Week},
		{TimespanOneMonth, models.Month},
		{TimespanOneQuarter, models.Quarter},
		{Timespan("unknown"), models.Day},
	}

	for _, tc := range tests {
		suite.Run(string(tc.timespan), func() {
			suite.Equal(tc.expected, tc.timespan.Timespan())
		})
	}
}

func (suite *TimespanTestSuite) TestISSIntervalRoundTrip() {
	tests := []struct {
		timespan Timespan
		code     int
	}{
		{TimespanOneMinute, 1},
		{TimespanTenMinutes, 10},
		{TimespanOneHour, 60},
		{TimespanOneDay, 24},
		{TimespanOneWeek, 7},
		{TimespanOneMonth, 31},
		{TimespanOneQuarter, 4},
	}

	for _, tc := range tests {
		suite.Run(string(tc.timespan), func() {
			code, ok := tc.timespan.ISSInterval()
			suite.True(ok)
			suite.Equal(tc.code, code)

			back, ok := TimespanFromISSInterval(code)
			suite.True(ok)
			suite.Equal(tc.timespan, back)
		})
	}
}

func (suite *TimespanTestSuite) TestISSIntervalUnsupported() {
	_, ok := TimespanFiveMinutes.ISSInterval()
	suite.False(ok)

	_, ok = TimespanFromISSInterval(5)
	suite.False(ok)
}

func (suite *TimespanTestSuite) TestParseTimeframe() {
	tests := []struct {
		input    string
		expected Timespan
	}{
		{"d", TimespanOneDay},
		{"w", TimespanOneWeek},
		{"m", TimespanOneMonth},
		{"h", TimespanOneHour},
		{"10min", TimespanTenMinutes},
		{"1min", TimespanOneMinute},
		{"q", TimespanOneQuarter},
		{"1M", TimespanOneMonth},
		{"1m", TimespanOneMinute},
		{"1h", TimespanOneHour},
		{" D ", TimespanOneDay},
		{"fortnight", TimespanOneDay},
		{"", TimespanOneDay},
	}

	for _, tc := range tests {
		suite.Run(tc.input, func() {
			suite.Equal(tc.expected, ParseTimeframe(tc.input))
		})
	}
}

func (suite *TimespanTestSuite) TestIsDaily() {
	suite.True(TimespanOneDay.IsDaily())
	suite.False(TimespanOneHour.IsDaily())
	suite.False(TimespanOneWeek.IsDaily())
}
