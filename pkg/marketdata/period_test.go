package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

type PeriodTestSuite struct {
	suite.Suite
}

func TestPeriodSuite(t *testing.T) {
	suite.Run(t, new(PeriodTestSuite))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (suite *PeriodTestSuite) TestParsePeriodUnit() {
	tests := []struct {
		input    string
		expected PeriodUnit
	}{
		{"d", PeriodDay},
		{"w", PeriodWeek},
		{"m", PeriodMonth},
		{"y", PeriodYear},
		{"Months", PeriodMonth},
		{"year", PeriodYear},
		{"x", PeriodDay},
		{"", PeriodDay},
	}

	for _, tc := range tests {
		suite.Run(tc.input, func() {
			suite.Equal(tc.expected, ParsePeriodUnit(tc.input))
		})
	}
}

func (suite *PeriodTestSuite) TestValidate() {
	tests := []struct {
		name    string
		spec    PeriodSpec
		wantErr bool
	}{
		{name: "valid day", spec: NewPeriodSpec(PeriodDay, 30)},
		{name: "valid year", spec: NewPeriodSpec(PeriodYear, 1)},
		{name: "zero count", spec: NewPeriodSpec(PeriodWeek, 0), wantErr: true},
		{name: "negative count", spec: NewPeriodSpec(PeriodDay, -3), wantErr: true},
		{name: "unknown unit", spec: NewPeriodSpec(PeriodUnit("q"), 2), wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.spec.Validate()
			if tc.wantErr {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))

				return
			}

			suite.NoError(err)
		})
	}
}

func (suite *PeriodTestSuite) TestNewPeriodSpecHasNoReferenceDate() {
	spec := NewPeriodSpec(PeriodDay, 5)
	suite.True(spec.ReferenceDate.IsNone())
	suite.False(spec.IncludeReferenceDay)

	anchored := spec.WithReferenceDate(date(2024, 3, 15))
	suite.True(anchored.ReferenceDate.IsSome())
	suite.True(spec.ReferenceDate.IsNone())
}

func (suite *PeriodTestSuite) TestAddDelta() {
	tests := []struct {
		name     string
		t        time.Time
		amount   int
		unit     PeriodUnit
		subtract bool
		expected time.Time
	}{
		{name: "add day", t: date(2024, 3, 15), amount: 1, unit: PeriodDay, expected: date(2024, 3, 16)},
		{name: "sub days across month", t: date(2024, 3, 1), amount: 2, unit: PeriodDay, subtract: true, expected: date(2024, 2, 28)},
		{name: "add week", t: date(2024, 3, 15), amount: 2, unit: PeriodWeek, expected: date(2024, 3, 29)},
		{name: "sub month clamps", t: date(2024, 3, 31), amount: 1, unit: PeriodMonth, subtract: true, expected: date(2024, 2, 29)},
		{name: "add month clamps", t: date(2023, 1, 31), amount: 1, unit: PeriodMonth, expected: date(2023, 2, 28)},
		{name: "sub months across year", t: date(2024, 1, 15), amount: 13, unit: PeriodMonth, subtract: true, expected: date(2022, 12, 15)},
		{name: "sub year leap day", t: date(2024, 2, 29), amount: 1, unit: PeriodYear, subtract: true, expected: date(2023, 2, 28)},
		{name: "add years", t: date(2020, 6, 1), amount: 3, unit: PeriodYear, expected: date(2023, 6, 1)},
		{name: "unknown unit counts days", t: date(2024, 3, 15), amount: 3, unit: PeriodUnit("z"), expected: date(2024, 3, 18)},
		{name: "drops clock", t: time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC), amount: 0, unit: PeriodDay, expected: date(2024, 3, 15)},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, AddDelta(tc.t, tc.amount, tc.unit, tc.subtract))
		})
	}
}

func (suite *PeriodTestSuite) TestAddDeltaRoundTrip() {
	start := date(2024, 1, 31)

	for _, unit := range []PeriodUnit{PeriodDay, PeriodWeek} {
		for _, n := range []int{1, 5, 40} {
			back := AddDelta(AddDelta(start, n, unit, false), n, unit, true)
			suite.Equal(start, back, "unit %s amount %d", unit, n)
		}
	}

	// month arithmetic clamps at month ends and does not round-trip
	back := AddDelta(AddDelta(start, 1, PeriodMonth, false), 1, PeriodMonth, true)
	suite.Equal(date(2024, 1, 29), back)
}

func (suite *PeriodTestSuite) TestParseAddDelta() {
	got, err := ParseAddDelta("2024-03-15 10:00:00", 1, PeriodDay, false)
	suite.NoError(err)
	suite.Equal("2024-03-16", got)

	got, err = ParseAddDelta("2024-03-31", 1, PeriodMonth, true)
	suite.NoError(err)
	suite.Equal("2024-02-29", got)

	_, err = ParseAddDelta("15.03.2024", 1, PeriodDay, false)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDate))
}

func (suite *PeriodTestSuite) TestDateRange() {
	rng := DateRange{Start: date(2024, 3, 1), End: date(2024, 3, 10), Timespan: TimespanOneHour}

	suite.Equal(10, rng.Days())
	suite.Equal("2024-03-01..2024-03-10 @ 1h", rng.String())

	code, ok := rng.ISSInterval()
	suite.True(ok)
	suite.Equal(60, code)
}
