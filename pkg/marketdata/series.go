package marketdata

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

// FillMethod selects how FillNA propagates values into missing cells.
type FillMethod string

const (
	// FillBackward copies the next valid value backwards.
	FillBackward FillMethod = "bfill"
	// FillForward copies the previous valid value forwards.
	FillForward FillMethod = "ffill"
)

// TimeSeries is an ordered set of candles for one ticker.
// Rows are strictly increasing by time.
type TimeSeries struct {
	Ticker   string
	Timespan Timespan
	Start    time.Time
	End      time.Time
	rows     []types.MarketData
}

// NewTimeSeries sorts rows by time and keeps the first row of every timestamp.
func NewTimeSeries(ticker string, timespan Timespan, start, end time.Time, rows []types.MarketData) *TimeSeries {
	sorted := make([]types.MarketData, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	deduped := sorted[:0]
	for i, row := range sorted {
		if i > 0 && row.Time.Equal(deduped[len(deduped)-1].Time) {
			continue
		}

		deduped = append(deduped, row)
	}

	return &TimeSeries{
		Ticker:   ticker,
		Timespan: timespan,
		Start:    start,
		End:      end,
		rows:     deduped,
	}
}

func (s *TimeSeries) withRows(rows []types.MarketData) *TimeSeries {
	return &TimeSeries{
		Ticker:   s.Ticker,
		Timespan: s.Timespan,
		Start:    s.Start,
		End:      s.End,
		rows:     rows,
	}
}

// until drops the rows that begin after the calendar day of end.
func (s *TimeSeries) until(end time.Time) *TimeSeries {
	limit := TruncateToDate(end).AddDate(0, 0, 1)
	rows := make([]types.MarketData, 0, len(s.rows))
	for _, row := range s.rows {
		if !row.Time.Before(limit) {
			break
		}
		rows = append(rows, row)
	}

	return s.withRows(rows)
}

// Rows returns a copy of the candles.
func (s *TimeSeries) Rows() []types.MarketData {
	out := make([]types.MarketData, len(s.rows))
	copy(out, s.rows)

	return out
}

func (s *TimeSeries) Len() int {
	return len(s.rows)
}

func (s *TimeSeries) IsEmpty() bool {
	return len(s.rows) == 0
}

// Tail keeps the last n rows.
func (s *TimeSeries) Tail(n int) *TimeSeries {
	if n < 0 {
		n = 0
	}

	if n >= len(s.rows) {
		return s.withRows(s.Rows())
	}

	rows := make([]types.MarketData, n)
	copy(rows, s.rows[len(s.rows)-n:])

	return s.withRows(rows)
}

func (s *TimeSeries) First() optional.Option[types.MarketData] {
	if s.IsEmpty() {
		return optional.None[types.MarketData]()
	}

	return optional.Some(s.rows[0])
}

func (s *TimeSeries) Last() optional.Option[types.MarketData] {
	if s.IsEmpty() {
		return optional.None[types.MarketData]()
	}

	return optional.Some(s.rows[len(s.rows)-1])
}

// Times returns the begin column.
func (s *TimeSeries) Times() []time.Time {
	out := make([]time.Time, len(s.rows))
	for i, row := range s.rows {
		out[i] = row.Time
	}

	return out
}

// Column returns the values of a numeric column.
func (s *TimeSeries) Column(name string) ([]float64, error) {
	if _, ok := (types.MarketData{}).Value(name); !ok {
		return nil, errors.Newf(errors.ErrCodeInvalidColumn, "unknown column %q", name)
	}

	out := make([]float64, len(s.rows))
	for i, row := range s.rows {
		out[i], _ = row.Value(name)
	}

	return out, nil
}

// Columns returns the values of several numeric columns, in the order given.
func (s *TimeSeries) Columns(names []string) ([][]float64, error) {
	out := make([][]float64, 0, len(names))

	for _, name := range names {
		col, err := s.Column(name)
		if err != nil {
			return nil, err
		}

		out = append(out, col)
	}

	return out, nil
}

// HasNulls reports whether any cell is missing.
func (s *TimeSeries) HasNulls() bool {
	return s.NullsCount() > 0
}

// NullsCount is the total number of missing cells.
func (s *TimeSeries) NullsCount() int {
	total := 0
	for _, n := range s.NullsByColumn() {
		total += n
	}

	return total
}

// NullsByColumn counts missing cells per column. Every standard column is present in the result.
func (s *TimeSeries) NullsByColumn() map[string]int {
	counts := make(map[string]int, len(types.StdColumns))
	for _, column := range types.StdColumns {
		counts[column] = 0
	}

	for _, row := range s.rows {
		if row.Time.IsZero() {
			counts[types.ColumnBegin]++
		}

		for _, column := range types.ValueColumns {
			if v, _ := row.Value(column); math.IsNaN(v) {
				counts[column]++
			}
		}
	}

	return counts
}

// FillNA returns a copy with missing values filled column by column.
// Cells with no valid neighbour in the fill direction stay missing.
func (s *TimeSeries) FillNA(method FillMethod) (*TimeSeries, error) {
	rows := s.Rows()

	switch method {
	case FillForward:
		for _, column := range types.ValueColumns {
			last := math.NaN()
			for i := range rows {
				v, _ := rows[i].Value(column)
				if math.IsNaN(v) {
					rows[i].SetValue(column, last)
				} else {
					last = v
				}
			}
		}
	case FillBackward:
		for _, column := range types.ValueColumns {
			next := math.NaN()
			for i := len(rows) - 1; i >= 0; i-- {
				v, _ := rows[i].Value(column)
				if math.IsNaN(v) {
					rows[i].SetValue(column, next)
				} else {
					next = v
				}
			}
		}
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown fill method %q", method)
	}

	return s.withRows(rows), nil
}

// DropNA returns a copy without rows that have any missing value.
func (s *TimeSeries) DropNA() *TimeSeries {
	rows := make([]types.MarketData, 0, len(s.rows))
	for _, row := range s.rows {
		if row.HasNulls() || row.Time.IsZero() {
			continue
		}

		rows = append(rows, row)
	}

	return s.withRows(rows)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// String renders the series as a table.
func (s *TimeSeries) String() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(types.StdColumns...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	for _, row := range s.rows {
		t.Row(
			row.Time.Format("2006-01-02 15:04:05"),
			formatCell(row.Open),
			formatCell(row.High),
			formatCell(row.Low),
			formatCell(row.Close),
			formatCell(row.Volume),
		)
	}

	return fmt.Sprintf("%s %s (%d rows)\n%s", s.Ticker, s.Timespan, s.Len(), t.Render())
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}
