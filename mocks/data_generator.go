package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-moex/internal/types"
)

// MSK is the exchange time zone used for generated sessions.
var MSK = time.FixedZone("MSK", 3*60*60)

// DataGenerator generates realistic candles for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	Symbol string
	// From and To bound the generated calendar days, both inclusive.
	From time.Time
	To   time.Time
	// Interval is the bar size. A day or more yields one bar per trading day at midnight.
	Interval time.Duration
	// SessionOpen and SessionClose bound intraday bars, as offsets from midnight.
	SessionOpen  time.Duration
	SessionClose time.Duration
	// SkipWeekends leaves Saturdays and Sundays without bars.
	SkipWeekends bool
	// Holidays are extra calendar days without bars.
	Holidays     []time.Time
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical move per bar)
	Volatility float64
	VolumeBase float64
}

// DefaultConfig returns daily MOEX-like bars for March 2024.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "SBER",
		From:         time.Date(2024, 3, 1, 0, 0, 0, 0, MSK),
		To:           time.Date(2024, 3, 31, 0, 0, 0, 0, MSK),
		Interval:     24 * time.Hour,
		SessionOpen:  10 * time.Hour,
		SessionClose: 19 * time.Hour,
		SkipWeekends: true,
		Holidays:     nil,
		InitialPrice: 280.0,
		Volatility:   0.01,
		VolumeBase:   4_000_000,
	}
}

// TradingDays lists the calendar days in [From, To] that have bars.
func (c GeneratorConfig) TradingDays() []time.Time {
	var days []time.Time

	loc := c.From.Location()
	y, m, d := c.From.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	for !day.After(c.To) {
		if c.isTradingDay(day) {
			days = append(days, day)
		}

		day = day.AddDate(0, 0, 1)
	}

	return days
}

func (c GeneratorConfig) isTradingDay(day time.Time) bool {
	if c.SkipWeekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
		return false
	}

	for _, h := range c.Holidays {
		hy, hm, hd := h.Date()
		dy, dm, dd := day.Date()

		if hy == dy && hm == dm && hd == dd {
			return false
		}
	}

	return true
}

// Generate creates candles following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	var data []types.MarketData

	price := config.InitialPrice

	for _, day := range config.TradingDays() {
		if config.Interval >= 24*time.Hour {
			var bar types.MarketData
			bar, price = g.bar(config, day, price)
			data = append(data, bar)

			continue
		}

		for t := day.Add(config.SessionOpen); t.Before(day.Add(config.SessionClose)); t = t.Add(config.Interval) {
			var bar types.MarketData
			bar, price = g.bar(config, t, price)
			data = append(data, bar)
		}
	}

	return data
}

func (g *DataGenerator) bar(config GeneratorConfig, at time.Time, open float64) (types.MarketData, float64) {
	// Box-Muller transform for a normal distribution
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	closePrice := open * (1 + config.Volatility*z)
	if closePrice <= 0 {
		closePrice = open * 0.99
	}

	high := math.Max(open, closePrice) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
	low := math.Min(open, closePrice) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)

	if low <= 0 {
		low = math.Min(open, closePrice) * 0.99
	}

	volume := config.VolumeBase * (0.7 + g.rng.Float64()*0.6)

	return types.MarketData{
		Id:     "",
		Symbol: config.Symbol,
		Time:   at,
		Open:   roundToDecimals(open, 2),
		High:   roundToDecimals(high, 2),
		Low:    roundToDecimals(low, 2),
		Close:  roundToDecimals(closePrice, 2),
		Volume: math.Round(volume),
	}, closePrice
}

// DailyBars generates one bar per weekday between from and to with a fixed seed.
func DailyBars(symbol string, from, to time.Time) []types.MarketData {
	config := DefaultConfig()
	config.Symbol = symbol
	config.From = from
	config.To = to

	return NewDataGenerator(42).Generate(config)
}

// HourlyBars generates session hour bars for every weekday between from and to.
func HourlyBars(symbol string, from, to time.Time) []types.MarketData {
	config := DefaultConfig()
	config.Symbol = symbol
	config.From = from
	config.To = to
	config.Interval = time.Hour

	return NewDataGenerator(42).Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
