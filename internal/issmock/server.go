// Package issmock provides a mock MOEX ISS server for testing.
// It serves the candles and securities endpoints from in-memory data.
package issmock

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/rxtech-lab/argo-moex/internal/types"
)

// DefaultPageSize matches the page size of the real ISS candles endpoint.
const DefaultPageSize = 500

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var msk = time.FixedZone("MSK", 3*60*60)

// Request is a recorded candles request.
type Request struct {
	Engine   string
	Market   string
	Board    string
	Ticker   string
	From     string
	Till     string
	Interval int
	Start    int
	Columns  string
	Meta     string
}

// Security is a row served by the securities search.
type Security struct {
	SecID        string
	ShortName    string
	Name         string
	ISIN         string
	PrimaryBoard string
}

// MockISSServer is an in-memory ISS server.
type MockISSServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	candles    map[string]map[int][]types.MarketData
	securities []Security
	requests   []Request
	pageSize   int
	failStatus int
}

func NewMockISSServer() *MockISSServer {
	return &MockISSServer{
		mu:         sync.RWMutex{},
		httpServer: nil,
		listener:   nil,
		candles:    make(map[string]map[int][]types.MarketData),
		securities: nil,
		requests:   nil,
		pageSize:   DefaultPageSize,
		failStatus: 0,
	}
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockISSServer) Start(address string) error {
	if address == "" {
		address = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	return nil
}

// Router returns the ISS routes, for use with httptest.
func (s *MockISSServer) Router() *mux.Router {
	router := mux.NewRouter()
	iss := router.PathPrefix("/iss").Subrouter()

	iss.HandleFunc("/engines/{engine}/markets/{market}/securities/{ticker}/candles.json", s.handleCandles).Methods(http.MethodGet)
	iss.HandleFunc("/engines/{engine}/markets/{market}/boards/{board}/securities/{ticker}/candles.json", s.handleCandles).Methods(http.MethodGet)
	iss.HandleFunc("/securities.json", s.handleSecurities).Methods(http.MethodGet)

	return router
}

// Stop stops the mock server.
func (s *MockISSServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the ISS root URL, e.g. http://127.0.0.1:1234/iss.
func (s *MockISSServer) BaseURL() string {
	if s.listener == nil {
		return ""
	}

	return "http://" + s.listener.Addr().String() + "/iss"
}

// SetCandles replaces the candles served for a ticker at an ISS interval code.
func (s *MockISSServer) SetCandles(ticker string, interval int, rows []types.MarketData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]types.MarketData, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	if s.candles[ticker] == nil {
		s.candles[ticker] = make(map[int][]types.MarketData)
	}

	s.candles[ticker][interval] = sorted
}

func (s *MockISSServer) SetSecurities(securities []Security) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.securities = securities
}

// SetPageSize changes how many candles are returned per page.
func (s *MockISSServer) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pageSize = n
}

// FailWith makes every request answer with the given status. Zero restores normal behaviour.
func (s *MockISSServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failStatus = status
}

// Requests returns the recorded candles requests.
func (s *MockISSServer) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)

	return out
}

func (s *MockISSServer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candles = make(map[string]map[int][]types.MarketData)
	s.securities = nil
	s.requests = nil
	s.pageSize = DefaultPageSize
	s.failStatus = 0
}

// handleCandles handles GET .../securities/{ticker}/candles.json
func (s *MockISSServer) handleCandles(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	query := r.URL.Query()

	interval, err := strconv.Atoi(query.Get("interval"))
	if err != nil {
		interval = 10
	}

	start, _ := strconv.Atoi(query.Get("start"))

	req := Request{
		Engine:   vars["engine"],
		Market:   vars["market"],
		Board:    vars["board"],
		Ticker:   vars["ticker"],
		From:     query.Get("from"),
		Till:     query.Get("till"),
		Interval: interval,
		Start:    start,
		Columns:  query.Get("candles.columns"),
		Meta:     query.Get("iss.meta"),
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	failStatus := s.failStatus
	pageSize := s.pageSize
	rows := s.candles[req.Ticker][interval]
	s.mu.Unlock()

	if failStatus != 0 {
		http.Error(w, "mock failure", failStatus)

		return
	}

	var selected []types.MarketData

	for _, row := range rows {
		day := row.Time.In(msk).Format(dateLayout)
		if (req.From == "" || day >= req.From) && (req.Till == "" || day <= req.Till) {
			selected = append(selected, row)
		}
	}

	if start > len(selected) {
		start = len(selected)
	}

	end := min(start+pageSize, len(selected))
	page := selected[start:end]

	data := make([][]any, 0, len(page))
	for _, row := range page {
		data = append(data, []any{
			row.Time.In(msk).Format(dateTimeLayout),
			nullable(row.Open),
			nullable(row.High),
			nullable(row.Low),
			nullable(row.Close),
			nullable(row.Volume),
		})
	}

	writeJSON(w, map[string]any{
		"candles": map[string]any{
			"columns": types.StdColumns,
			"data":    data,
		},
	})
}

// handleSecurities handles GET /iss/securities.json
func (s *MockISSServer) handleSecurities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	s.mu.RLock()
	failStatus := s.failStatus
	securities := s.securities
	s.mu.RUnlock()

	if failStatus != 0 {
		http.Error(w, "mock failure", failStatus)

		return
	}

	data := make([][]any, 0)

	for i, sec := range securities {
		if q != "" && !matches(sec, q) {
			continue
		}

		data = append(data, []any{i + 1, sec.SecID, sec.ShortName, sec.Name, sec.ISIN, 1, sec.PrimaryBoard})
	}

	writeJSON(w, map[string]any{
		"securities": map[string]any{
			"columns": []string{"id", "secid", "shortname", "name", "isin", "is_traded", "primary_boardid"},
			"data":    data,
		},
	})
}

func matches(sec Security, q string) bool {
	return containsFold(sec.SecID, q) || containsFold(sec.ShortName, q) || containsFold(sec.Name, q) || containsFold(sec.ISIN, q)
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}

	return v
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
