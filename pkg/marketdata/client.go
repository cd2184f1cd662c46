package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderMoex    = provider.ProviderMoex
	ProviderPolygon = provider.ProviderPolygon
	ProviderBinance = provider.ProviderBinance
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
	WriterCSV    WriterType = "csv"
	WriterXLSX   WriterType = "xlsx"
)

// Format returns the file format produced by the writer type.
func (w WriterType) Format() writer.Format {
	switch w {
	case WriterCSV:
		return writer.FormatCSV
	case WriterXLSX:
		return writer.FormatXLSX
	default:
		return writer.FormatParquet
	}
}

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=moex polygon binance"`
	WriterType    WriterType   `validate:"required,oneof=duckdb csv xlsx"`
	DataPath      string       `validate:"required"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
	ISSBaseURL    string       `validate:"omitempty,url"`
	// ISSBoard restricts MOEX candles to one board, e.g. TQBR.
	ISSBoard   string
	ISSEngine  string
	ISSMarket  string
	ISSTimeout time.Duration `validate:"gte=0"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Client resolves periods, downloads ranges and exports series for one provider.
type Client struct {
	provider   provider.Provider
	resolver   *Resolver
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	logger     *logger.Logger
	now        func() time.Time
}

type ClientOption func(*Client)

// WithClientClock overrides the clock used for reference dates and export file names.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// WithProvider replaces the provider built from the configuration.
func WithProvider(p provider.Provider) ClientOption {
	return func(c *Client) {
		c.provider = p
	}
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger, opts ...ClientOption) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	c := &Client{
		provider:   nil,
		resolver:   nil,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
		logger:     log,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.provider == nil {
		moexOpts := []provider.MoexOption{provider.WithLogger(log)}
		if config.ISSBoard != "" {
			moexOpts = append(moexOpts, provider.WithBoard(config.ISSBoard))
		}

		if config.ISSEngine != "" {
			moexOpts = append(moexOpts, provider.WithEngine(config.ISSEngine))
		}

		if config.ISSMarket != "" {
			moexOpts = append(moexOpts, provider.WithMarket(config.ISSMarket))
		}

		if config.ISSTimeout > 0 {
			moexOpts = append(moexOpts, provider.WithTimeout(config.ISSTimeout))
		}

		p, err := provider.NewMarketDataProvider(config.ProviderType, provider.Config{
			PolygonApiKey: config.PolygonApiKey,
			ISSBaseURL:    config.ISSBaseURL,
			MoexOptions:   moexOpts,
		})
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidProvider, err, "failed to create %s provider", config.ProviderType)
		}

		c.provider = p
	}

	c.resolver = NewResolver(c.provider, WithClock(c.now), WithResolverLogger(log))

	return c, nil
}

// Resolver exposes the period resolver bound to the client's provider.
func (c *Client) Resolver() *Resolver {
	return c.resolver
}

// Series fetches the candles of a relative period.
// A short trading-day result is returned together with an *errors.InsufficientDataError.
func (c *Client) Series(ctx context.Context, ticker string, spec PeriodSpec, timespan Timespan) (*TimeSeries, error) {
	return c.resolver.FromLast(ctx, ticker, spec, timespan)
}

// Export writes the series with the configured writer to DataPath and returns the file path.
func (c *Client) Export(series *TimeSeries) (path string, err error) {
	if err := ensureDir(c.config.DataPath); err != nil {
		return "", err
	}

	format := c.config.WriterType.Format()
	outputPath := writer.ExportPath(c.config.DataPath, format, c.now())

	w, err := c.newWriter(format, outputPath)
	if err != nil {
		return "", err
	}

	if err := w.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeExportFailed, "failed to initialize writer", err)
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeExportFailed, "failed to close writer", cerr)
		}
	}()

	for _, row := range series.Rows() {
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write row", err)
		}
	}

	path, err = w.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeExportFailed, "failed to finalize export", err)
	}

	c.logger.Info("Exported series",
		zap.String("ticker", series.Ticker),
		zap.String("path", path),
		zap.Int("rows", series.Len()),
	)

	return path, nil
}

// Download initiates a market data download with the given parameters.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", fmt.Errorf("failed to setup writer: %w", err)
	}

	c.provider.ConfigWriter(marketWriter)

	path, err := c.provider.Download(
		ctx,
		params.Ticker,
		params.StartDate,
		params.EndDate,
		params.Multiplier,
		params.Timespan,
		c.onProgress,
	)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return path, nil
}

// setupWriter creates the configured writer for TICKER_START_END_MULTIPLIER_TIMESPAN.<ext>.
// The provider initializes and closes it.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	if err := ensureDir(c.config.DataPath); err != nil {
		return nil, err
	}

	format := c.config.WriterType.Format()
	outputFileName := fmt.Sprintf("%s_%s_%s_%d_%s.%s",
		params.Ticker,
		params.StartDate.Format(dateLayout),
		params.EndDate.Format(dateLayout),
		params.Multiplier,
		params.Timespan,
		format)

	return c.newWriter(format, filepath.Join(c.config.DataPath, outputFileName))
}

func (c *Client) newWriter(format writer.Format, outputPath string) (writer.MarketDataWriter, error) {
	if format == writer.FormatParquet {
		return writer.NewDuckDBWriterWithLogger(outputPath, c.logger), nil
	}

	w, err := writer.New(format, outputPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWriter, "unsupported writer", err)
	}

	return w, nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create %s", dir)
		}
	}

	return nil
}
