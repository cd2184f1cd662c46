package marketdata

import (
	"strings"

	"github.com/polygon-io/client-go/rest/models"
)

// Timespan is the candle size requested from a provider.
type Timespan string

const (
	TimespanOneMinute      Timespan = "1m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanTenMinutes     Timespan = "10m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanFourHours      Timespan = "4h"
	TimespanOneDay         Timespan = "1d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
	TimespanOneQuarter     Timespan = "1Q"
)

// ISS candle interval codes.
const (
	ISSIntervalMinute    = 1
	ISSIntervalTenMinute = 10
	ISSIntervalHour      = 60
	ISSIntervalDay       = 24
	ISSIntervalWeek      = 7
	ISSIntervalMonth     = 31
	ISSIntervalQuarter   = 4
)

// AllTimespans lists every supported timespan in ascending candle size.
var AllTimespans = []Timespan{
	TimespanOneMinute,
	TimespanFiveMinutes,
	TimespanTenMinutes,
	TimespanFifteenMinutes,
	TimespanThirtyMinutes,
	TimespanOneHour,
	TimespanFourHours,
	TimespanOneDay,
	TimespanOneWeek,
	TimespanOneMonth,
	TimespanOneQuarter,
}

func (t Timespan) Multiplier() int {
	switch t {
	case TimespanFiveMinutes:
		return 5
	case TimespanTenMinutes:
		return 10
	case TimespanFifteenMinutes:
		return 15
	case TimespanThirtyMinutes:
		return 30
	case TimespanFourHours:
		return 4
	default:
		return 1
	}
}

func (t Timespan) Timespan() models.Timespan {
	switch t {
	case TimespanOneMinute, TimespanFiveMinutes, TimespanTenMinutes, TimespanFifteenMinutes, TimespanThirtyMinutes:
		return models.Minute
	case TimespanOneHour, TimespanFourHours:
		return models.Hour
	case TimespanOneDay:
		return models.Day
	case TimespanOneWeek:
		return models.Week
	case TimespanOneMonth:
		return models.Month
	case TimespanOneQuarter:
		return models.Quarter
	default:
		return models.Day
	}
}

// ISSInterval returns the MOEX ISS interval code. The second value is false
// when the exchange has no candles of this size.
func (t Timespan) ISSInterval() (int, bool) {
	switch t {
	case TimespanOneMinute:
		return ISSIntervalMinute, true
	case TimespanTenMinutes:
		return ISSIntervalTenMinute, true
	case TimespanOneHour:
		return ISSIntervalHour, true
	case TimespanOneDay:
		return ISSIntervalDay, true
	case TimespanOneWeek:
		return ISSIntervalWeek, true
	case TimespanOneMonth:
		return ISSIntervalMonth, true
	case TimespanOneQuarter:
		return ISSIntervalQuarter, true
	default:
		return 0, false
	}
}

// IsDaily reports whether the timespan is exactly one trading day.
func (t Timespan) IsDaily() bool {
	return t == TimespanOneDay
}

func (t Timespan) IsValid() bool {
	for _, ts := range AllTimespans {
		if ts == t {
			return true
		}
	}

	return false
}

// ParseTimeframe accepts the enum values and the short aliases used on the command line
// (1min, 10min, h, d, w, m, q). Anything else falls back to one day.
func ParseTimeframe(s string) Timespan {
	if ts := Timespan(s); ts.IsValid() {
		return ts
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1min", "min":
		return TimespanOneMinute
	case "10min":
		return TimespanTenMinutes
	case "h", "hour":
		return TimespanOneHour
	case "d", "day":
		return TimespanOneDay
	case "w", "week":
		return TimespanOneWeek
	case "m", "month":
		return TimespanOneMonth
	case "q", "quarter":
		return TimespanOneQuarter
	default:
		return TimespanOneDay
	}
}

// TimespanFromISSInterval is the inverse of ISSInterval.
func TimespanFromISSInterval(code int) (Timespan, bool) {
	switch code {
	case ISSIntervalMinute:
		return TimespanOneMinute, true
	case ISSIntervalTenMinute:
		return TimespanTenMinutes, true
	case ISSIntervalHour:
		return TimespanOneHour, true
	case ISSIntervalDay:
		return TimespanOneDay, true
	case ISSIntervalWeek:
		return TimespanOneWeek, true
	case ISSIntervalMonth:
		return TimespanOneMonth, true
	case ISSIntervalQuarter:
		return TimespanOneQuarter, true
	default:
		return "", false
	}
}
