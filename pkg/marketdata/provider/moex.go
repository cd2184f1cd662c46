package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/internal/types"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
	"github.com/rxtech-lab/argo-moex/pkg/marketdata/writer"
)

const (
	DefaultISSBaseURL = "https://iss.moex.com/iss"
	DefaultEngine     = "stock"
	DefaultMarket     = "shares"

	issDateLayout     = "2006-01-02"
	issDateTimeLayout = "2006-01-02 15:04:05"
	candlesBlock      = "candles"
	securitiesBlock   = "securities"
)

// MSK is the exchange time zone; ISS timestamps carry no offset.
var MSK = time.FixedZone("MSK", 3*60*60)

// ISSBlock is one named table of an ISS JSON response.
type ISSBlock struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// Records returns the rows keyed by column name.
func (b ISSBlock) Records() []map[string]any {
	records := make([]map[string]any, 0, len(b.Data))

	for _, row := range b.Data {
		record := make(map[string]any, len(b.Columns))
		for i, column := range b.Columns {
			if i < len(row) {
				record[column] = row[i]
			}
		}

		records = append(records, record)
	}

	return records
}

func (b ISSBlock) columnIndex(name string) int {
	for i, column := range b.Columns {
		if column == name {
			return i
		}
	}

	return -1
}

// Security is a row of the ISS securities search.
type Security struct {
	SecID        string `json:"secid" yaml:"secid"`
	ShortName    string `json:"shortname" yaml:"shortname"`
	Name         string `json:"name" yaml:"name"`
	ISIN         string `json:"isin" yaml:"isin"`
	PrimaryBoard string `json:"primary_boardid" yaml:"primary_boardid"`
	IsTraded     bool   `json:"is_traded" yaml:"is_traded"`
}

// MoexClient reads candles from the Moscow Exchange ISS API.
type MoexClient struct {
	http   *resty.Client
	engine string
	market string
	board  string
	writer writer.MarketDataWriter
	logger *logger.Logger
}

type MoexOption func(*MoexClient)

func WithBaseURL(baseURL string) MoexOption {
	return func(c *MoexClient) {
		c.http.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
}

func WithEngine(engine string) MoexOption {
	return func(c *MoexClient) {
		c.engine = engine
	}
}

func WithMarket(market string) MoexOption {
	return func(c *MoexClient) {
		c.market = market
	}
}

// WithBoard restricts candles to one trading board (e.g. TQBR). Empty means all boards.
func WithBoard(board string) MoexOption {
	return func(c *MoexClient) {
		c.board = board
	}
}

func WithTimeout(timeout time.Duration) MoexOption {
	return func(c *MoexClient) {
		c.http.SetTimeout(timeout)
	}
}

func WithLogger(log *logger.Logger) MoexOption {
	return func(c *MoexClient) {
		c.logger = log
	}
}

func NewMoexClient(opts ...MoexOption) *MoexClient {
	client := &MoexClient{
		http: resty.New().
			SetBaseURL(DefaultISSBaseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
		engine: DefaultEngine,
		market: DefaultMarket,
		board:  "",
		writer: nil,
		logger: logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *MoexClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download fetches the candles and writes them with the configured writer.
func (c *MoexClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (string, error) {
	return download(ctx, c, c.writer, ticker, startDate, endDate, multiplier, timespan, onProgress)
}

// Fetch reads every page of the candles endpoint. Missing values become NaN and
// timestamps are in MSK.
func (c *MoexClient) Fetch(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) ([]types.MarketData, error) {
	interval, err := ISSInterval(multiplier, timespan)
	if err != nil {
		return nil, err
	}

	path := c.candlesPath(ticker)
	params := map[string]string{
		"from":            startDate.Format(issDateLayout),
		"till":            endDate.Format(issDateLayout),
		"interval":        strconv.Itoa(interval),
		"candles.columns": strings.Join(types.StdColumns, ","),
	}

	var result []types.MarketData

	for start := 0; ; {
		params["start"] = strconv.Itoa(start)

		blocks, err := c.Query(ctx, path, params)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch candles for %s", ticker)
		}

		block, ok := blocks[candlesBlock]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "response for %s has no %s block", ticker, candlesBlock)
		}

		if len(block.Data) == 0 {
			break
		}

		rows, err := parseCandles(ticker, block)
		if err != nil {
			return nil, err
		}

		result = append(result, rows...)
		start += len(block.Data)
	}

	c.logger.Debug("Fetched candles",
		zap.String("ticker", ticker),
		zap.Time("from", startDate),
		zap.Time("till", endDate),
		zap.Int("interval", interval),
		zap.Int("rows", len(result)),
	)

	return result, nil
}

func (c *MoexClient) candlesPath(ticker string) string {
	if c.board != "" {
		return fmt.Sprintf("/engines/%s/markets/%s/boards/%s/securities/%s/candles.json", c.engine, c.market, c.board, ticker)
	}

	return fmt.Sprintf("/engines/%s/markets/%s/securities/%s/candles.json", c.engine, c.market, ticker)
}

// Query performs a GET on any ISS path and decodes every table block of the response.
// The .json suffix is added when missing.
func (c *MoexClient) Query(ctx context.Context, path string, args map[string]string) (map[string]ISSBlock, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("iss.meta", "off").
		SetQueryParams(args).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("iss request %s: %w", path, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("iss request %s: unexpected status %d", path, resp.StatusCode())
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid iss response for %s", path)
	}

	blocks := make(map[string]ISSBlock, len(raw))

	for name, body := range raw {
		var block ISSBlock
		if err := json.Unmarshal(body, &block); err != nil || block.Columns == nil {
			continue
		}

		blocks[name] = block
	}

	return blocks, nil
}

// Securities searches the exchange instrument list by ticker, name or ISIN.
func (c *MoexClient) Securities(ctx context.Context, q string) ([]Security, error) {
	blocks, err := c.Query(ctx, "/securities.json", map[string]string{"q": q})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to search securities for %q", q)
	}

	block, ok := blocks[securitiesBlock]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "response has no %s block", securitiesBlock)
	}

	securities := make([]Security, 0, len(block.Data))
	for _, record := range block.Records() {
		securities = append(securities, Security{
			SecID:        asString(record["secid"]),
			ShortName:    asString(record["shortname"]),
			Name:         asString(record["name"]),
			ISIN:         asString(record["isin"]),
			PrimaryBoard: asString(record["primary_boardid"]),
			IsTraded:     asFloat(record["is_traded"]) == 1,
		})
	}

	return securities, nil
}

// ISSInterval maps a multiplier and timespan to the ISS interval code.
func ISSInterval(multiplier int, timespan models.Timespan) (int, error) {
	switch {
	case timespan == models.Minute && multiplier == 1:
		return 1, nil
	case timespan == models.Minute && multiplier == 10:
		return 10, nil
	case timespan == models.Hour && multiplier == 1:
		return 60, nil
	case timespan == models.Day && multiplier == 1:
		return 24, nil
	case timespan == models.Week && multiplier == 1:
		return 7, nil
	case timespan == models.Month && multiplier == 1:
		return 31, nil
	case timespan == models.Quarter && multiplier == 1:
		return 4, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for MOEX: %d %s", multiplier, timespan)
	}
}

func parseCandles(ticker string, block ISSBlock) ([]types.MarketData, error) {
	beginIdx := block.columnIndex(types.ColumnBegin)
	if beginIdx < 0 {
		return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "candles for %s have no %s column", ticker, types.ColumnBegin)
	}

	rows := make([]types.MarketData, 0, len(block.Data))

	for _, record := range block.Data {
		if beginIdx >= len(record) {
			return nil, errors.Newf(errors.ErrCodeMarketDataParseFailed, "short candle row for %s", ticker)
		}

		begin, err := time.ParseInLocation(issDateTimeLayout, asString(record[beginIdx]), MSK)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid candle time for %s", ticker)
		}

		row := types.MarketData{
			Id:     "",
			Symbol: ticker,
			Time:   begin,
			Open:   math.NaN(),
			High:   math.NaN(),
			Low:    math.NaN(),
			Close:  math.NaN(),
			Volume: math.NaN(),
		}

		for _, column := range types.ValueColumns {
			if idx := block.columnIndex(column); idx >= 0 && idx < len(record) {
				row.SetValue(column, asFloat(record[idx]))
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func asString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// asFloat converts a decoded JSON cell; null and non-numeric cells are NaN.
func asFloat(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return math.NaN()
		}

		return f
	default:
		return math.NaN()
	}
}
