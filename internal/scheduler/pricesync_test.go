package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
	"github.com/kjannette/quantdata/internal/stocks"
)

type call struct {
	ticker     string
	start, end time.Time
}

type fakeSource struct {
	mu    sync.Mutex
	bars  map[string][]models.StockData
	fail  map[string]error
	calls []call
}

func (f *fakeSource) GetStockEOD(_ context.Context, ticker string, start, end time.Time, period string) ([]models.StockData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{ticker, start, end})
	if err := f.fail[ticker]; err != nil {
		return nil, err
	}
	return f.bars[ticker], nil
}

type fakeCatalog struct {
	syms  []models.Symbol
	last  map[int]time.Time
	added [][]models.StockData
}

func (f *fakeCatalog) ListSymbols(context.Context) ([]models.Symbol, error) { return f.syms, nil }

func (f *fakeCatalog) LastPriceDate(_ context.Context, id int) (time.Time, bool, error) {
	d, ok := f.last[id]
	return d, ok, nil
}

func (f *fakeCatalog) AddStockPrice(_ context.Context, bars []models.StockData) (stocks.AddResult, error) {
	f.added = append(f.added, bars)
	return stocks.AddResult{Inserted: len(bars)}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Send(_ context.Context, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func d(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func bar(dd int) models.StockData {
	return models.StockData{Date: d(2022, 7, dd), Close: decimal.NewFromInt(140)}
}

func TestSyncNow(t *testing.T) {
	src := &fakeSource{
		bars: map[string][]models.StockData{
			"IBM":  {bar(11), bar(12)},
			"AAPL": {bar(12)},
		},
		fail: map[string]error{"JPM": errors.New("issue getting data from AlphaVantage")},
	}
	cat := &fakeCatalog{
		syms: []models.Symbol{{SymbolID: 1, Ticker: "IBM"}, {SymbolID: 2, Ticker: "AAPL"}, {SymbolID: 3, Ticker: "JPM"}, {SymbolID: 4, Ticker: "XOM"}},
		last: map[int]time.Time{1: d(2022, 7, 8), 4: d(2022, 7, 12)},
	}
	ps, err := NewPriceSync(src, cat, &fakeNotifier{}, PriceSyncConfig{Lookback: 10 * 24 * time.Hour}, logging.NewSilent())
	require.NoError(t, err)
	ps.now = func() time.Time { return time.Date(2022, 7, 12, 23, 0, 0, 0, time.UTC) }

	rep, err := ps.SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Symbols)
	assert.Equal(t, 3, rep.Inserted)
	assert.Equal(t, []string{"JPM"}, rep.Failed)
	assert.Contains(t, rep.String(), "1 failed (JPM)")

	// XOM is already current, so it is never fetched.
	require.Len(t, src.calls, 3)
	assert.Equal(t, call{"IBM", d(2022, 7, 9), d(2022, 7, 12)}, src.calls[0])
	assert.Equal(t, call{"AAPL", d(2022, 7, 2), d(2022, 7, 12)}, src.calls[1])

	require.Len(t, cat.added, 2)
	for _, b := range cat.added[0] {
		assert.Equal(t, "IBM", b.Ticker)
	}
}

func TestNewPriceSync_InvalidSpec(t *testing.T) {
	_, err := NewPriceSync(&fakeSource{}, &fakeCatalog{}, &fakeNotifier{}, PriceSyncConfig{Spec: "every day"}, logging.NewSilent())
	assert.Error(t, err)
}

func TestPriceSync_StartStop(t *testing.T) {
	ps, err := NewPriceSync(&fakeSource{}, &fakeCatalog{}, &fakeNotifier{}, PriceSyncConfig{}, logging.NewSilent())
	require.NoError(t, err)

	assert.False(t, ps.Running())
	ps.Start()
	assert.True(t, ps.Running())
	ps.Start()
	assert.True(t, ps.Running())
	ps.Stop()
	assert.False(t, ps.Running())
	ps.Stop()
}

func TestPriceSync_ScheduledRunNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	cat := &fakeCatalog{syms: []models.Symbol{{SymbolID: 1, Ticker: "IBM"}}}
	src := &fakeSource{bars: map[string][]models.StockData{"IBM": {bar(11)}}}
	ps, err := NewPriceSync(src, cat, notifier, PriceSyncConfig{Spec: "* * * * *"}, logging.NewSilent())
	require.NoError(t, err)

	ps.Start()
	defer ps.Stop()
	ps.runScheduled()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.NotEmpty(t, notifier.msgs)
	assert.Contains(t, notifier.msgs[0], "Price sync: 1 symbols, 1 prices added")
}
