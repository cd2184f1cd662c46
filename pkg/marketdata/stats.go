package marketdata

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

// Missing values are skipped by every statistic below. A statistic over too few
// values is NaN rather than an error; only unknown columns fail.

func (s *TimeSeries) Mean(column string) (float64, error) {
	values, err := s.validValues(column)
	if err != nil {
		return math.NaN(), err
	}

	return mean(values), nil
}

// Var is the sample variance (n-1 denominator).
func (s *TimeSeries) Var(column string) (float64, error) {
	values, err := s.validValues(column)
	if err != nil {
		return math.NaN(), err
	}

	return sampleVariance(values), nil
}

func (s *TimeSeries) Std(column string) (float64, error) {
	v, err := s.Var(column)
	if err != nil {
		return math.NaN(), err
	}

	return math.Sqrt(v), nil
}

func (s *TimeSeries) Median(column string) (float64, error) {
	values, err := s.validValues(column)
	if err != nil {
		return math.NaN(), err
	}

	return median(values), nil
}

// Correlation holds pairwise Pearson coefficients between columns.
type Correlation struct {
	Columns []string
	Matrix  [][]float64
}

// Coefficient returns the single coefficient of a two-column correlation.
func (c Correlation) Coefficient() (float64, bool) {
	if len(c.Columns) != 2 {
		return math.NaN(), false
	}

	return c.Matrix[0][1], true
}

// Get returns the coefficient between two of the correlated columns.
func (c Correlation) Get(a, b string) (float64, bool) {
	i, j := -1, -1

	for idx, name := range c.Columns {
		if name == a {
			i = idx
		}

		if name == b {
			j = idx
		}
	}

	if i < 0 || j < 0 {
		return math.NaN(), false
	}

	return c.Matrix[i][j], true
}

// Corr computes Pearson correlation over pairwise-complete rows.
// Without arguments all numeric columns are used; fewer than two columns is an error.
func (s *TimeSeries) Corr(columns ...string) (Correlation, error) {
	if len(columns) == 0 {
		columns = types.ValueColumns
	}

	if len(columns) < 2 {
		return Correlation{}, errors.Newf(errors.ErrCodeInvalidParameter, "correlation needs at least two columns, got %d", len(columns))
	}

	data, err := s.Columns(columns)
	if err != nil {
		return Correlation{}, err
	}

	matrix := make([][]float64, len(columns))
	for i := range matrix {
		matrix[i] = make([]float64, len(columns))
	}

	for i := range columns {
		for j := i; j < len(columns); j++ {
			r := pearson(data[i], data[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	return Correlation{Columns: columns, Matrix: matrix}, nil
}

// ColumnSummary describes one numeric column.
type ColumnSummary struct {
	Count  int     `yaml:"count" json:"count"`
	Nulls  int     `yaml:"nulls" json:"nulls"`
	Mean   float64 `yaml:"mean" json:"mean"`
	Std    float64 `yaml:"std" json:"std"`
	Min    float64 `yaml:"min" json:"min"`
	Median float64 `yaml:"median" json:"median"`
	Max    float64 `yaml:"max" json:"max"`
}

// Summary is a printable description of a series.
type Summary struct {
	Ticker   string                   `yaml:"ticker" json:"ticker"`
	Timespan Timespan                 `yaml:"timespan" json:"timespan"`
	Start    time.Time                `yaml:"start" json:"start"`
	End      time.Time                `yaml:"end" json:"end"`
	Rows     int                      `yaml:"rows" json:"rows"`
	First    time.Time                `yaml:"first,omitempty" json:"first,omitempty"`
	Last     time.Time                `yaml:"last,omitempty" json:"last,omitempty"`
	Columns  map[string]ColumnSummary `yaml:"columns" json:"columns"`
}

func (s *TimeSeries) Summary() Summary {
	summary := Summary{
		Ticker:   s.Ticker,
		Timespan: s.Timespan,
		Start:    s.Start,
		End:      s.End,
		Rows:     s.Len(),
		First:    time.Time{},
		Last:     time.Time{},
		Columns:  make(map[string]ColumnSummary, len(types.ValueColumns)),
	}

	if first := s.First(); first.IsSome() {
		summary.First = first.Unwrap().Time
	}

	if last := s.Last(); last.IsSome() {
		summary.Last = last.Unwrap().Time
	}

	for _, column := range types.ValueColumns {
		values, _ := s.validValues(column)

		minV, maxV := math.NaN(), math.NaN()
		if len(values) > 0 {
			minV, maxV = values[0], values[0]
			for _, v := range values[1:] {
				minV = math.Min(minV, v)
				maxV = math.Max(maxV, v)
			}
		}

		summary.Columns[column] = ColumnSummary{
			Count:  len(values),
			Nulls:  s.Len() - len(values),
			Mean:   mean(values),
			Std:    math.Sqrt(sampleVariance(values)),
			Min:    minV,
			Median: median(values),
			Max:    maxV,
		}
	}

	return summary
}

func (s *TimeSeries) validValues(column string) ([]float64, error) {
	col, err := s.Column(column)
	if err != nil {
		return nil, err
	}

	values := col[:0]
	for _, v := range col {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}

	return values, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}

	m := mean(values)
	sum := 0.0

	for _, v := range values {
		sum += (v - m) * (v - m)
	}

	return sum / float64(len(values)-1)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}

func pearson(x, y []float64) float64 {
	var xs, ys []float64

	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}

		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}

	if len(xs) < 2 {
		return math.NaN()
	}

	mx, my := mean(xs), mean(ys)

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}

	if vx == 0 || vy == 0 {
		return math.NaN()
	}

	return cov / math.Sqrt(vx*vy)
}
