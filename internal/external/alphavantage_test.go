package external

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/quantdata/internal/logging"
)

var fixedNow = time.Date(2022, 7, 11, 12, 0, 0, 0, time.UTC)

func avServer(t *testing.T, got *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = r.URL.Query()
		w.Write([]byte("timestamp,open,high,low,close\n"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAV(srv *httptest.Server) *AlphaVantageClient {
	return NewAlphaVantageClient("ApiKey",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return fixedNow }))
}

func TestAlphaVantage_StockEODFunctionAndSize(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		period   string
		function string
		size     string
	}{
		{"recent daily", fixedNow.AddDate(0, 0, -30), "daily", "TIME_SERIES_DAILY_ADJUSTED", "compact"},
		{"old daily", fixedNow.AddDate(0, 0, -121), "daily", "TIME_SERIES_DAILY_ADJUSTED", "full"},
		{"120 days before today", time.Date(2022, 3, 13, 0, 0, 0, 0, time.UTC), "daily", "TIME_SERIES_DAILY_ADJUSTED", "compact"},
		{"121 days before today", time.Date(2022, 3, 12, 0, 0, 0, 0, time.UTC), "daily", "TIME_SERIES_DAILY_ADJUSTED", "full"},
		{"weekly", fixedNow.AddDate(-2, 0, 0), "weekly", "TIME_SERIES_WEEKLY_ADJUSTED", "full"},
		{"monthly", fixedNow.AddDate(0, 0, -5), "Monthly", "TIME_SERIES_MONTHLY_ADJUSTED", "compact"},
		{"unknown period", fixedNow, "quarterly", "TIME_SERIES_DAILY_ADJUSTED", "compact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q url.Values
			c := newTestAV(avServer(t, &q))

			body, err := c.GetStockEOD(context.Background(), "IBM", tt.start, tt.period)
			require.NoError(t, err)
			assert.NotEmpty(t, body)
			assert.Equal(t, tt.function, q.Get("function"))
			assert.Equal(t, tt.size, q.Get("outputsize"))
			assert.Equal(t, "IBM", q.Get("symbol"))
			assert.Equal(t, "ApiKey", q.Get("apikey"))
			assert.Equal(t, "csv", q.Get("datatype"))
		})
	}
}

func TestAlphaVantage_EmptyPeriod(t *testing.T) {
	var q url.Values
	c := newTestAV(avServer(t, &q))

	_, err := c.GetStockEOD(context.Background(), "IBM", fixedNow, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.GetFxEOD(context.Background(), "GBPUSD", fixedNow, " ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAlphaVantage_StockBar(t *testing.T) {
	var q url.Values
	c := newTestAV(avServer(t, &q))

	_, err := c.GetStockBar(context.Background(), "IBM", 5, 100)
	require.NoError(t, err)
	assert.Equal(t, "TIME_SERIES_INTRADAY", q.Get("function"))
	assert.Equal(t, "5min", q.Get("interval"))
	assert.Equal(t, "compact", q.Get("outputsize"))

	_, err = c.GetStockBar(context.Background(), "IBM", 1, 101)
	require.NoError(t, err)
	assert.Equal(t, "full", q.Get("outputsize"))
}

func TestAlphaVantage_FxTickers(t *testing.T) {
	var q url.Values
	c := newTestAV(avServer(t, &q))

	_, err := c.GetFxEOD(context.Background(), "GBP/USD", fixedNow.AddDate(-1, 0, 0), "daily")
	require.NoError(t, err)
	assert.Equal(t, "FX_DAILY", q.Get("function"))
	assert.Equal(t, "GBP", q.Get("from_symbol"))
	assert.Equal(t, "USD", q.Get("to_symbol"))
	assert.Equal(t, "full", q.Get("outputsize"))

	_, err = c.GetFxBar(context.Background(), "eurjpy", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "FX_INTRADAY", q.Get("function"))
	assert.Equal(t, "EUR", q.Get("from_symbol"))
	assert.Equal(t, "JPY", q.Get("to_symbol"))
	assert.Equal(t, "1min", q.Get("interval"))
	assert.Equal(t, "compact", q.Get("outputsize"))

	_, err = c.GetFxEOD(context.Background(), "GBP/US", fixedNow, "weekly")
	assert.ErrorIs(t, err, ErrInvalidTicker)
}

func TestSplitFxTicker(t *testing.T) {
	from, to, err := SplitFxTicker(" gbp/usd ")
	require.NoError(t, err)
	assert.Equal(t, "GBP", from)
	assert.Equal(t, "USD", to)

	_, _, err = SplitFxTicker("GBPUSDX")
	assert.True(t, errors.Is(err, ErrInvalidTicker))
}

func TestAlphaVantage_TransportFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	var buf bytes.Buffer
	c := NewAlphaVantageClient("ApiKey",
		WithBaseURL(srv.URL),
		WithLogger(logging.NewWithOutput("info", &buf)))

	body, err := c.GetStockQuote(context.Background(), "IBM")
	require.NoError(t, err)
	assert.Empty(t, body)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "Unknown error occurred calling AlphaVantage endpoint for ticker IBM.")
	assert.NotContains(t, buf.String(), "ApiKey")
}

func TestAlphaVantage_RateLimitHonoursContext(t *testing.T) {
	var q url.Values
	srv := avServer(t, &q)
	c := NewAlphaVantageClient("k", WithBaseURL(srv.URL), WithRateLimit(1))

	_, err := c.GetSectorPerformance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SECTOR", q.Get("function"))

	// The second call would wait a minute for a token.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	body, err := c.GetSectorPerformance(ctx)
	require.NoError(t, err)
	assert.Empty(t, body)
}
