// Package config loads the application settings from a YAML file and the environment.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"

	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

// PathEnv names the variable consulted when no config path is given.
const PathEnv = "CONFIG_PATH"

type Config struct {
	Env      string         `yaml:"env" env:"MOEX_ENV" env-default:"development" validate:"oneof=development production test"`
	LogLevel string         `yaml:"log_level" env:"MOEX_LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	ISS      ISSConfig      `yaml:"iss"`
	Export   ExportConfig   `yaml:"export"`
	Database DatabaseConfig `yaml:"database"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Polygon  PolygonConfig  `yaml:"polygon"`
	Sync     SyncConfig     `yaml:"sync"`
}

type ISSConfig struct {
	BaseURL string        `yaml:"base_url" env:"ISS_BASE_URL" env-default:"https://iss.moex.com/iss" validate:"required,url"`
	Engine  string        `yaml:"engine" env:"ISS_ENGINE" env-default:"stock" validate:"required"`
	Market  string        `yaml:"market" env:"ISS_MARKET" env-default:"shares" validate:"required"`
	Board   string        `yaml:"board" env:"ISS_BOARD"`
	Timeout time.Duration `yaml:"timeout" env:"ISS_TIMEOUT" env-default:"30s" validate:"gt=0"`
}

type ExportConfig struct {
	Dir    string `yaml:"dir" env:"EXPORT_DIR" env-default:"./data" validate:"required"`
	Format string `yaml:"format" env:"EXPORT_FORMAT" env-default:"csv" validate:"oneof=duckdb csv xlsx"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"sqlite" validate:"oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" env:"DATABASE_DSN" env-default:"moex.db" validate:"required"`
}

type YouTubeConfig struct {
	APIKey  string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	BaseURL string `yaml:"base_url" env:"YOUTUBE_BASE_URL" env-default:"https://www.googleapis.com/youtube/v3" validate:"required,url"`
}

type PolygonConfig struct {
	APIKey string `yaml:"api_key" env:"POLYGON_API_KEY"`
}

// SyncConfig drives the scheduled refresh of stored shares.
type SyncConfig struct {
	// Cron is a standard five-field spec, evaluated in Moscow time.
	Cron      string `yaml:"cron" env:"SYNC_CRON" env-default:"30 19 * * 1-5" validate:"required"`
	TradeDays int    `yaml:"trade_days" env:"SYNC_TRADE_DAYS" env-default:"5" validate:"min=1"`
	Currency  string `yaml:"currency" env:"SYNC_CURRENCY" env-default:"RUB" validate:"len=3"`
}

// Load reads path, or $CONFIG_PATH when path is empty. Without either, defaults and
// environment variables alone are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(PathEnv)
	}

	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "cannot read environment", err)
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "config file does not exist: %s", path)
		}

		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "cannot read config", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if _, err := cron.ParseStandard(c.Sync.Cron); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid sync cron %q", c.Sync.Cron)
	}

	return nil
}
