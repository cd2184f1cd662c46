package marketdata

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
)

// BaseDownloadConfig contains common fields for all range download configurations.
type BaseDownloadConfig struct {
	Ticker    string `json:"ticker" jsonschema:"title=Ticker,description=The security code to download data for (e.g. SBER or BTCUSDT),required" validate:"required"`
	StartDate string `json:"startDate" jsonschema:"title=Start Date,description=Start date,format=date-time,required" validate:"required"`
	EndDate   string `json:"endDate" jsonschema:"title=End Date,description=End date,format=date-time,required" validate:"required"`
	Interval  string `json:"interval" jsonschema:"title=Interval,description=Data interval,required,enum=1m,enum=5m,enum=10m,enum=15m,enum=30m,enum=1h,enum=4h,enum=1d,enum=1w,enum=1M,enum=1Q" validate:"required,oneof=1m 5m 10m 15m 30m 1h 4h 1d 1w 1M 1Q"`
}

// MoexDownloadConfig contains configuration for downloading from the MOEX ISS.
// The ISS is public and needs no credentials.
type MoexDownloadConfig struct {
	BaseDownloadConfig

	Board string `json:"board,omitempty" jsonschema:"title=Board,description=Trading board to restrict candles to (e.g. TQBR)"`
}

// PolygonDownloadConfig contains configuration for downloading from Polygon.io.
type PolygonDownloadConfig struct {
	BaseDownloadConfig

	ApiKey string `json:"apiKey" jsonschema:"title=API Key,description=Polygon.io API key for authentication,required" validate:"required"`
}

// BinanceDownloadConfig contains configuration for downloading from Binance.
// Binance public market data API does not require authentication.
type BinanceDownloadConfig struct {
	BaseDownloadConfig
}

// PeriodDownloadConfig describes a relative period, e.g. the last 30 trading days of SBER in hourly bars.
type PeriodDownloadConfig struct {
	Ticker              string `json:"ticker" jsonschema:"title=Ticker,description=The security code (e.g. SBER),required" validate:"required"`
	Period              string `json:"period,omitempty" jsonschema:"title=Period,description=Unit the count is measured in: trading days weeks months or years,enum=d,enum=w,enum=m,enum=y,default=d" validate:"omitempty,oneof=d w m y"`
	Count               int    `json:"count" jsonschema:"title=Count,description=Number of period units to fetch,minimum=1,required" validate:"required,min=1"`
	Interval            string `json:"interval,omitempty" jsonschema:"title=Interval,description=Candle interval,enum=1m,enum=10m,enum=1h,enum=1d,enum=1w,enum=1M,enum=1Q,default=1d" validate:"omitempty,oneof=1m 10m 1h 1d 1w 1M 1Q"`
	ReferenceDate       string `json:"referenceDate,omitempty" jsonschema:"title=Reference Date,description=Date the period ends at; today when empty,format=date" validate:"omitempty,datetime=2006-01-02"`
	IncludeReferenceDay bool   `json:"includeReferenceDay,omitempty" jsonschema:"title=Include Reference Day,description=Count the reference date itself as a trading day"`
}

// Validate validates the BaseDownloadConfig fields.
func (c *BaseDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := time.Parse(time.RFC3339, c.StartDate); err != nil {
		return fmt.Errorf("invalid startDate format, expected RFC3339: %w", err)
	}

	if _, err := time.Parse(time.RFC3339, c.EndDate); err != nil {
		return fmt.Errorf("invalid endDate format, expected RFC3339: %w", err)
	}

	return nil
}

func (c *MoexDownloadConfig) Validate() error {
	return c.BaseDownloadConfig.Validate()
}

// Validate validates the PolygonDownloadConfig.
func (c *PolygonDownloadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return c.BaseDownloadConfig.Validate()
}

func (c *BinanceDownloadConfig) Validate() error {
	return c.BaseDownloadConfig.Validate()
}

func (c *PeriodDownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// ToDownloadParams converts a BaseDownloadConfig to DownloadParams.
func (c *BaseDownloadConfig) ToDownloadParams() (DownloadParams, error) {
	startDate, err := time.Parse(time.RFC3339, c.StartDate)
	if err != nil {
		return DownloadParams{}, fmt.Errorf("failed to parse startDate: %w", err)
	}

	endDate, err := time.Parse(time.RFC3339, c.EndDate)
	if err != nil {
		return DownloadParams{}, fmt.Errorf("failed to parse endDate: %w", err)
	}

	timespan := Timespan(c.Interval)

	return DownloadParams{
		Ticker:     c.Ticker,
		StartDate:  startDate,
		EndDate:    endDate,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}, nil
}

// ToPeriodSpec converts the config into a period and its candle timespan.
// An empty period counts trading days and an empty interval means daily candles.
func (c *PeriodDownloadConfig) ToPeriodSpec() (PeriodSpec, Timespan, error) {
	spec := NewPeriodSpec(ParsePeriodUnit(c.Period), c.Count)
	spec.IncludeReferenceDay = c.IncludeReferenceDay

	if c.ReferenceDate != "" {
		ref, err := time.Parse(dateLayout, c.ReferenceDate)
		if err != nil {
			return PeriodSpec{}, "", fmt.Errorf("failed to parse referenceDate: %w", err)
		}

		spec.ReferenceDate = optional.Some(ref)
	}

	timespan := TimespanOneDay
	if c.Interval != "" {
		timespan = ParseTimeframe(c.Interval)
	}

	return spec, timespan, nil
}

// ToClientConfig converts a MoexDownloadConfig to ClientConfig.
func (c *MoexDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderMoex,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		PolygonApiKey: "",
		ISSBaseURL:    "",
		ISSBoard:      c.Board,
	}
}

// ToClientConfig converts a PolygonDownloadConfig to ClientConfig.
func (c *PolygonDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderPolygon,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		PolygonApiKey: c.ApiKey,
		ISSBaseURL:    "",
		ISSBoard:      "",
	}
}

// ToClientConfig converts a BinanceDownloadConfig to ClientConfig.
func (c *BinanceDownloadConfig) ToClientConfig(dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:  ProviderBinance,
		WriterType:    WriterDuckDB,
		DataPath:      dataPath,
		PolygonApiKey: "",
		ISSBaseURL:    "",
		ISSBoard:      "",
	}
}

type validatable interface {
	Validate() error
}

func parseConfig[T any, PT interface {
	*T
	validatable
}](jsonConfig string) (*T, error) {
	var config T
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	if err := PT(&config).Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ParseMoexConfig parses JSON into a MoexDownloadConfig.
func ParseMoexConfig(jsonConfig string) (*MoexDownloadConfig, error) {
	return parseConfig[MoexDownloadConfig](jsonConfig)
}

// ParsePolygonConfig parses JSON into a PolygonDownloadConfig.
func ParsePolygonConfig(jsonConfig string) (*PolygonDownloadConfig, error) {
	return parseConfig[PolygonDownloadConfig](jsonConfig)
}

// ParseBinanceConfig parses JSON into a BinanceDownloadConfig.
func ParseBinanceConfig(jsonConfig string) (*BinanceDownloadConfig, error) {
	return parseConfig[BinanceDownloadConfig](jsonConfig)
}

// ParsePeriodConfig parses JSON into a PeriodDownloadConfig.
func ParsePeriodConfig(jsonConfig string) (*PeriodDownloadConfig, error) {
	return parseConfig[PeriodDownloadConfig](jsonConfig)
}
