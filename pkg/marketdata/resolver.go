package marketdata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/provider"
)

// tradeDayPadding widens a trading-day window so that weekends and holidays
// still leave enough sessions to cover the requested count.
const tradeDayPadding = 2

// Resolver turns relative periods into date ranges and fetches their candles.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	fetcher  provider.Fetcher
	logger   *logger.Logger
	now      func() time.Time
	location *time.Location
}

type ResolverOption func(*Resolver)

// WithClock overrides the source of the default reference date.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithLocation sets the zone in which the default reference date is taken.
func WithLocation(loc *time.Location) ResolverOption {
	return func(r *Resolver) {
		r.location = loc
	}
}

func WithResolverLogger(log *logger.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = log
	}
}

func NewResolver(fetcher provider.Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		logger:   logger.NewNopLogger(),
		now:      time.Now,
		location: provider.MSK,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ReferenceDate returns the spec's reference date, or today when it has none.
func (r *Resolver) ReferenceDate(spec PeriodSpec) time.Time {
	if spec.ReferenceDate.IsSome() {
		return TruncateToDate(spec.ReferenceDate.Unwrap())
	}

	return TruncateToDate(r.now().In(r.location))
}

// Resolve computes the fetch window of a period.
//
// Trading days use a padded window of 2*count calendar days ending at the reference date,
// or the day before it when the reference day is excluded. Weeks, months and years end at
// the reference date and start count units earlier.
func (r *Resolver) Resolve(spec PeriodSpec, timespan Timespan) (DateRange, error) {
	if err := spec.Validate(); err != nil {
		return DateRange{}, err
	}

	ref := r.ReferenceDate(spec)

	if spec.Unit == PeriodDay {
		end := ref
		if !spec.IncludeReferenceDay {
			end = AddDelta(ref, 1, PeriodDay, true)
		}

		return DateRange{
			Start:    AddDelta(ref, tradeDayPadding*spec.Count, PeriodDay, true),
			End:      end,
			Timespan: timespan,
		}, nil
	}

	return DateRange{
		Start:    AddDelta(ref, spec.Count, spec.Unit, true),
		End:      ref,
		Timespan: timespan,
	}, nil
}

// FromLast fetches the candles of a relative period. Units outside d/w/m/y are
// rejected by Validate; use ParsePeriodUnit to map free-form input.
//
// For trading days the returned series may be shorter than requested. In that case
// the rows are returned together with an *errors.InsufficientDataError.
func (r *Resolver) FromLast(ctx context.Context, ticker string, spec PeriodSpec, timespan Timespan) (*TimeSeries, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	switch spec.Unit {
	case PeriodWeek, PeriodMonth, PeriodYear:
		rng, err := r.Resolve(spec, timespan)
		if err != nil {
			return nil, err
		}

		return r.FromRange(ctx, ticker, rng.Start, rng.End, timespan)
	default:
		return r.fromTradeDays(ctx, ticker, spec, timespan)
	}
}

// FromTradeDays fetches the last count trading days before today (today excluded).
func (r *Resolver) FromTradeDays(ctx context.Context, ticker string, count int, timespan Timespan) (*TimeSeries, error) {
	return r.FromLast(ctx, ticker, NewPeriodSpec(PeriodDay, count), timespan)
}

func (r *Resolver) FromWeeks(ctx context.Context, ticker string, count int, timespan Timespan) (*TimeSeries, error) {
	return r.FromLast(ctx, ticker, NewPeriodSpec(PeriodWeek, count), timespan)
}

func (r *Resolver) FromMonths(ctx context.Context, ticker string, count int, timespan Timespan) (*TimeSeries, error) {
	return r.FromLast(ctx, ticker, NewPeriodSpec(PeriodMonth, count), timespan)
}

func (r *Resolver) FromYears(ctx context.Context, ticker string, count int, timespan Timespan) (*TimeSeries, error) {
	return r.FromLast(ctx, ticker, NewPeriodSpec(PeriodYear, count), timespan)
}

// FromRange fetches an explicit date range.
func (r *Resolver) FromRange(ctx context.Context, ticker string, start, end time.Time, timespan Timespan) (*TimeSeries, error) {
	if end.Before(start) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "end %s is before start %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	rows, err := r.fetcher.Fetch(ctx, ticker, start, end, timespan.Multiplier(), timespan.Timespan())
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeUnknown {
			return nil, fmt.Errorf("fetch %s %s..%s: %w", ticker, start.Format(dateLayout), end.Format(dateLayout), err)
		}

		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s %s..%s", ticker, start.Format(dateLayout), end.Format(dateLayout))
	}

	r.logger.Debug("Fetched range",
		zap.String("ticker", ticker),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.String("timespan", string(timespan)),
		zap.Int("rows", len(rows)),
	)

	return NewTimeSeries(ticker, timespan, start, end, rows), nil
}

func (r *Resolver) fromTradeDays(ctx context.Context, ticker string, spec PeriodSpec, timespan Timespan) (*TimeSeries, error) {
	rng, err := r.Resolve(spec, TimespanOneDay)
	if err != nil {
		return nil, err
	}

	daily, err := r.FromRange(ctx, ticker, rng.Start, rng.End, TimespanOneDay)
	if err != nil {
		return nil, err
	}

	days := daily.Tail(spec.Count)

	var shortErr error
	if days.Len() < spec.Count {
		shortErr = errors.NewInsufficientDataErrorf(spec.Count, days.Len(), ticker,
			"only %d of %d trading days of %s between %s and %s",
			days.Len(), spec.Count, ticker, rng.Start.Format(dateLayout), rng.End.Format(dateLayout))

		r.logger.Warn("Insufficient trading days",
			zap.String("ticker", ticker),
			zap.Int("required", spec.Count),
			zap.Int("actual", days.Len()),
		)
	}

	if days.IsEmpty() {
		return days, shortErr
	}

	first := days.First().Unwrap().Time
	last := days.Last().Unwrap().Time
	days.Start = TruncateToDate(first)
	days.End = TruncateToDate(last)

	if timespan.IsDaily() {
		return days, shortErr
	}

	series, err := r.FromRange(ctx, ticker, days.Start, days.End, timespan)
	if err != nil {
		return nil, err
	}

	return series.until(days.End), shortErr
}
