package marketdata

import (
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

// PeriodUnit is the unit a relative period is counted in.
type PeriodUnit string

const (
	PeriodDay   PeriodUnit = "d"
	PeriodWeek  PeriodUnit = "w"
	PeriodMonth PeriodUnit = "m"
	PeriodYear  PeriodUnit = "y"
)

const dateLayout = "2006-01-02"

func (u PeriodUnit) IsValid() bool {
	switch u {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}

func (u PeriodUnit) String() string {
	switch u {
	case PeriodDay:
		return "trading days"
	case PeriodWeek:
		return "weeks"
	case PeriodMonth:
		return "months"
	case PeriodYear:
		return "years"
	default:
		return string(u)
	}
}

// ParsePeriodUnit maps d/w/m/y (and their long names) to a PeriodUnit.
// Unknown input is treated as trading days.
func ParsePeriodUnit(s string) PeriodUnit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "week", "weeks":
		return PeriodWeek
	case "m", "month", "months":
		return PeriodMonth
	case "y", "year", "years":
		return PeriodYear
	default:
		return PeriodDay
	}
}

// PeriodSpec describes a period relative to a reference date, e.g. "the last 30 trading days".
type PeriodSpec struct {
	Unit  PeriodUnit
	Count int
	// ReferenceDate defaults to the current date at resolution time.
	ReferenceDate optional.Option[time.Time]
	// IncludeReferenceDay only affects the day unit.
	IncludeReferenceDay bool
}

// NewPeriodSpec builds a spec anchored at the resolution date.
func NewPeriodSpec(unit PeriodUnit, count int) PeriodSpec {
	return PeriodSpec{
		Unit:                unit,
		Count:               count,
		ReferenceDate:       optional.None[time.Time](),
		IncludeReferenceDay: false,
	}
}

// WithReferenceDate returns a copy anchored at ref.
func (p PeriodSpec) WithReferenceDate(ref time.Time) PeriodSpec {
	p.ReferenceDate = optional.Some(ref)

	return p
}

func (p PeriodSpec) Validate() error {
	if p.Count <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period count must be positive, got %d", p.Count)
	}

	if !p.Unit.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "unknown period unit %q", p.Unit)
	}

	return nil
}

// DateRange is a resolved fetch window. Start and End are calendar dates, both inclusive.
type DateRange struct {
	Start    time.Time
	End      time.Time
	Timespan Timespan
}

// ISSInterval returns the exchange interval code of the range timespan.
func (r DateRange) ISSInterval() (int, bool) {
	return r.Timespan.ISSInterval()
}

func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + ".." + r.End.Format(dateLayout) + " @ " + string(r.Timespan)
}

// TruncateToDate drops the clock part, keeping the location.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDelta shifts the calendar date of t by amount units (subtracting when subtract is set).
// The clock part is dropped. Month and year steps clamp to the last day of the target month,
// so they are not reversible at month ends. Unknown units count days.
func AddDelta(t time.Time, amount int, unit PeriodUnit, subtract bool) time.Time {
	if subtract {
		amount = -amount
	}

	date := TruncateToDate(t)

	switch unit {
	case PeriodWeek:
		return date.AddDate(0, 0, 7*amount)
	case PeriodMonth:
		return addMonthsClamped(date, amount)
	case PeriodYear:
		return addMonthsClamped(date, 12*amount)
	default:
		return date.AddDate(0, 0, amount)
	}
}

// ParseAddDelta is AddDelta over a "YYYY-MM-DD[ hh:mm:ss]" string; only the date part is used.
func ParseAddDelta(date string, amount int, unit PeriodUnit, subtract bool) (string, error) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(date), " ")

	t, err := time.Parse(dateLayout, datePart)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid date %q", date)
	}

	return AddDelta(t, amount, unit, subtract).Format(dateLayout), nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	year := y + total/12
	month := total % 12

	if month < 0 {
		month += 12
		year--
	}

	target := time.Month(month + 1)
	if last := daysIn(year, target, t.Location()); d > last {
		d = last
	}

	return time.Date(year, target, d, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
