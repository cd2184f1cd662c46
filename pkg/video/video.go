// Package video searches YouTube for videos about an instrument through the Data API v3.
package video

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-moex/internal/logger"
	"github.com/rxtech-lab/argo-moex/pkg/errors"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/youtube/v3"
	DefaultOrder      = OrderRating
	DefaultMaxResults = 15
	// MaxResultsLimit is the largest page the search endpoint returns.
	MaxResultsLimit = 50
)

type Order string

const (
	OrderDate      Order = "date"
	OrderRating    Order = "rating"
	OrderRelevance Order = "relevance"
	OrderTitle     Order = "title"
	OrderViewCount Order = "viewCount"
)

func (o Order) IsValid() bool {
	switch o {
	case OrderDate, OrderRating, OrderRelevance, OrderTitle, OrderViewCount:
		return true
	default:
		return false
	}
}

type Video struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description" yaml:"description"`
	ChannelTitle string    `json:"channel_title" yaml:"channel_title"`
	PublishedAt  time.Time `json:"published_at" yaml:"published_at"`
}

// URL is the watch page of the video.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

type SearchParams struct {
	Query string
	// Order defaults to rating.
	Order Order
	// MaxResults defaults to 15 and is capped at 50.
	MaxResults int
}

type snippet struct {
	PublishedAt  time.Time `json:"publishedAt"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channelTitle"`
}

type searchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string  `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	http   *resty.Client
	apiKey string
	logger *logger.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.logger = log
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "youtube api key is required")
	}

	client := &Client{
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(15 * time.Second),
		apiKey: apiKey,
		logger: logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Search lists videos matching params.Query.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Video, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "search query is required")
	}

	order := params.Order
	if order == "" {
		order = DefaultOrder
	}

	if !order.IsValid() {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown order %q", order)
	}

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	maxResults = min(maxResults, MaxResultsLimit)

	var body searchResponse
	if err := c.get(ctx, "/search", map[string]string{
		"part":       "snippet",
		"type":       "video",
		"q":          params.Query,
		"order":      string(order),
		"maxResults": strconv.Itoa(maxResults),
	}, &body); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(body.Items))
	for _, item := range body.Items {
		if item.ID.VideoID == "" {
			continue
		}

		videos = append(videos, newVideo(item.ID.VideoID, item.Snippet))
	}

	c.logger.Debug("Searched videos", zap.String("query", params.Query), zap.Int("results", len(videos)))

	return videos, nil
}

// Videos fetches the snippets of the given ids. Unknown ids are omitted; when none
// is found the error has ErrCodeVideoNotFound.
func (c *Client) Videos(ctx context.Context, ids ...string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "at least one video id is required")
	}

	var body videosResponse
	if err := c.get(ctx, "/videos", map[string]string{
		"part": "snippet",
		"id":   strings.Join(ids, ","),
	}, &body); err != nil {
		return nil, err
	}

	if len(body.Items) == 0 {
		return nil, errors.Newf(errors.ErrCodeVideoNotFound, "no videos found for %s", strings.Join(ids, ","))
	}

	videos := make([]Video, 0, len(body.Items))
	for _, item := range body.Items {
		videos = append(videos, newVideo(item.ID, item.Snippet))
	}

	return videos, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, result any) error {
	var failure apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("key", c.apiKey).
		SetResult(result).
		SetError(&failure).
		Get(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVideoRequestFailed, err, "youtube request %s failed", path)
	}

	if resp.IsError() {
		message := failure.Error.Message
		if message == "" {
			message = resp.Status()
		}

		return errors.Newf(errors.ErrCodeVideoRequestFailed, "youtube request %s: %d %s", path, resp.StatusCode(), message)
	}

	return nil
}

func newVideo(id string, s snippet) Video {
	return Video{
		ID:           id,
		Title:        s.Title,
		Description:  s.Description,
		ChannelTitle: s.ChannelTitle,
		PublishedAt:  s.PublishedAt,
	}
}

func (v Video) String() string {
	return fmt.Sprintf("%s  %s (%s)", v.PublishedAt.Format("2006-01-02"), v.Title, v.URL())
}
