package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/collector"
	"stockdash/internal/forecast"
	"stockdash/internal/model"
	"stockdash/internal/recorder"
)

func init() { gin.SetMode(gin.TestMode) }

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	fetcher *collector.MockFetcher
	rec     *recorder.SQLiteRecorder
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	m := &collector.MockFetcher{
		Bars:    collector.LinearBars(30, 100, 1, day0),
		Profile: &model.CompanyProfile{Symbol: "AAPL", ShortName: "Apple Inc.", LogoURL: "https://logo.clearbit.com/apple.com"},
	}
	env := newEnvWith(t, m, forecast.DefaultConfig())
	env.fetcher = m
	return env
}

func newEnvWith(t *testing.T, f collector.Fetcher, cfg forecast.Config) *testEnv {
	t.Helper()
	svc, err := forecast.NewService(f, cfg, nil)
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	h := NewHandler(Deps{
		Collector:  collector.NewCollector(f, nil),
		Forecast:   forecast.NewJournaled(svc, rec, "http", nil),
		Recorder:   rec,
		MaxHorizon: 60,
	})
	return &testEnv{handler: h, rec: rec}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

type forecastBody struct {
	Symbol    string `json:"symbol"`
	Horizon   int    `json:"horizon"`
	LastIndex int    `json:"last_index"`
	Points    []struct {
		Index int     `json:"index"`
		Price float64 `json:"price"`
	} `json:"points"`
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	w := newEnv(t).do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestForecastPOST(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/forecast", `{"symbol":"aapl","horizon":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[forecastBody](t, w)
	assert.Equal(t, "AAPL", body.Symbol)
	assert.Equal(t, 3, body.Horizon)
	assert.Equal(t, 14, body.LastIndex)
	require.Len(t, body.Points, 3)
	for k, p := range body.Points {
		assert.Equal(t, 15+k, p.Index)
		if k > 0 {
			assert.Greater(t, p.Price, body.Points[k-1].Price)
		}
	}
}

func TestForecastKeepsSubCentPrices(t *testing.T) {
	m := &collector.MockFetcher{Bars: collector.LinearBars(15, 0.00001, 0.000001, day0)}
	env := newEnvWith(t, m, forecast.DefaultConfig())

	w := env.do(t, http.MethodGet, "/api/v1/forecast?symbol=SHIB-USD&horizon=3", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		LastClose float64 `json:"last_close"`
		Points    []struct {
			Price float64 `json:"price"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 0.000024, body.LastClose, 1e-12)
	require.Len(t, body.Points, 3)
	for _, p := range body.Points {
		assert.Greater(t, p.Price, 0.0)
		assert.Less(t, p.Price, 0.0001)
	}
}

type stalledFetcher struct{}

func (stalledFetcher) Name() string { return "stalled" }

func (stalledFetcher) FetchDailyBars(ctx context.Context, _ string, _ int) ([]model.OHLCV, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledFetcher) FetchRange(ctx context.Context, _ string, _ model.DateRange) ([]model.OHLCV, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestForecastProviderTimeout(t *testing.T) {
	cfg := forecast.DefaultConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	env := newEnvWith(t, stalledFetcher{}, cfg)

	w := env.do(t, http.MethodGet, "/api/v1/forecast?symbol=AAPL&horizon=3", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
	body := decode[errorBody](t, w)
	assert.Equal(t, "DATA_UNAVAILABLE", body.Error.Code)

	events, err := env.rec.RecentForecasts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "data_unavailable", events[0].Outcome)
}

func TestForecastGET(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/forecast?symbol=MSFT&horizon=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"symbol":"MSFT"`)
}

func TestForecastErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		setup  func(*collector.MockFetcher)
		status int
		code   string
	}{
		{"zero horizon", http.MethodPost, "/api/v1/forecast", `{"symbol":"AAPL","horizon":0}`, nil, http.StatusBadRequest, "INVALID_HORIZON"},
		{"negative horizon", http.MethodGet, "/api/v1/forecast?symbol=AAPL&horizon=-1", "", nil, http.StatusBadRequest, "INVALID_HORIZON"},
		{"missing horizon", http.MethodGet, "/api/v1/forecast?symbol=AAPL", "", nil, http.StatusBadRequest, "INVALID_HORIZON"},
		{"horizon over cap", http.MethodPost, "/api/v1/forecast", `{"symbol":"AAPL","horizon":61}`, nil, http.StatusBadRequest, "INVALID_HORIZON"},
		{"missing symbol", http.MethodPost, "/api/v1/forecast", `{"horizon":3}`, nil, http.StatusBadRequest, "MISSING_SYMBOL"},
		{"bad json", http.MethodPost, "/api/v1/forecast", `{"symbol":`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"non-numeric horizon", http.MethodGet, "/api/v1/forecast?symbol=AAPL&horizon=abc", "", nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"no data", http.MethodPost, "/api/v1/forecast", `{"symbol":"ZZZZ","horizon":3}`,
			func(m *collector.MockFetcher) { m.Err = collector.ErrNoData }, http.StatusNotFound, "DATA_UNAVAILABLE"},
		{"provider down", http.MethodPost, "/api/v1/forecast", `{"symbol":"AAPL","horizon":3}`,
			func(m *collector.MockFetcher) { m.Err = errors.New("connection refused") }, http.StatusBadGateway, "DATA_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			if tt.setup != nil {
				tt.setup(env.fetcher)
			}
			w := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[errorBody](t, w).Error.Code)
		})
	}
}

func TestForecastDoesNotFetchOnInvalidHorizon(t *testing.T) {
	env := newEnv(t)
	env.do(t, http.MethodPost, "/api/v1/forecast", `{"symbol":"AAPL","horizon":0}`)
	assert.Equal(t, 0, env.fetcher.Calls())
}

func TestRecentForecasts(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast", strings.NewReader(`{"symbol":"AAPL","horizon":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "6f1c1d3e-2f4b-4c1a-9a53-5b1b8f0e7a10")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "6f1c1d3e-2f4b-4c1a-9a53-5b1b8f0e7a10", w.Header().Get("X-Request-ID"))

	w = env.do(t, http.MethodGet, "/api/v1/forecasts/recent?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Forecasts []struct {
			RequestID string `json:"request_id"`
			Outcome   string `json:"outcome"`
			Source    string `json:"source"`
		} `json:"forecasts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Forecasts, 1)
	assert.Equal(t, "6f1c1d3e-2f4b-4c1a-9a53-5b1b8f0e7a10", body.Forecasts[0].RequestID)
	assert.Equal(t, "ok", body.Forecasts[0].Outcome)
	assert.Equal(t, "http", body.Forecasts[0].Source)

	w = env.do(t, http.MethodGet, "/api/v1/forecasts/recent?limit=0", "")
	assert.Equal(t, http.StatusOK, w.Code, "limit=0 falls back to the default")
	w = env.do(t, http.MethodGet, "/api/v1/forecasts/recent?limit=9999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile(t *testing.T) {
	w := newEnv(t).do(t, http.MethodGet, "/api/v1/symbols/aapl/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"short_name":"Apple Inc."`)
}

func TestPrices(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/symbols/AAPL/prices?start=2024-01-05&end=2024-01-07", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Count int `json:"count"`
		Bars  []struct {
			Date  string  `json:"date"`
			Close float64 `json:"close"`
		} `json:"bars"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 3, body.Count)
	assert.Equal(t, "2024-01-05", body.Bars[0].Date)
	assert.Equal(t, 103.0, body.Bars[0].Close)
	assert.Equal(t, "2024-01-07", body.Bars[2].Date)

	w = env.do(t, http.MethodGet, "/api/v1/symbols/AAPL/prices?start=01/05/2024", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DATE_RANGE", decode[errorBody](t, w).Error.Code)

	w = env.do(t, http.MethodGet, "/api/v1/symbols/AAPL/prices?start=2024-02-01&end=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIndicators(t *testing.T) {
	w := newEnv(t).do(t, http.MethodGet, "/api/v1/symbols/AAPL/indicators?span=5&window=10", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		EMASpan   int               `json:"ema_span"`
		EMA       []json.RawMessage `json:"ema"`
		SMAWindow int               `json:"sma_window"`
		SMA       []json.RawMessage `json:"sma"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5, body.EMASpan)
	assert.Len(t, body.EMA, 30)
	assert.Equal(t, 10, body.SMAWindow)
	assert.Len(t, body.SMA, 21)

	w = newEnv(t).do(t, http.MethodGet, "/api/v1/symbols/AAPL/indicators?span=0", "")
	assert.Equal(t, http.StatusOK, w.Code, "span=0 means default")
}

func TestOverview(t *testing.T) {
	env := newEnv(t)
	w := env.do(t, http.MethodGet, "/api/v1/symbols/AAPL/overview", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, `"profile"`)
	assert.Contains(t, body, `"prices"`)
	assert.Contains(t, body, `"ema_span":20`)
}

func TestCORS(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/forecast", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsAndNotFound(t *testing.T) {
	env := newEnv(t)
	env.do(t, http.MethodGet, "/health", "")
	w := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stockdash_http_requests_total")

	w = env.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), testLogger()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
