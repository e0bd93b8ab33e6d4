package marketdata

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

func bufferLogger() (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewWithOutput("debug", &buf), &buf
}

// fakeAV returns the same payload for every call and counts calls.
type fakeAV struct {
	payload string
	err     error
	calls   int
}

func (f *fakeAV) next() (string, error) {
	f.calls++
	return f.payload, f.err
}

func (f *fakeAV) GetStockEOD(context.Context, string, time.Time, string) (string, error) {
	return f.next()
}
func (f *fakeAV) GetStockBar(context.Context, string, int, int) (string, error) { return f.next() }
func (f *fakeAV) GetStockQuote(context.Context, string) (string, error)         { return f.next() }
func (f *fakeAV) GetFxEOD(context.Context, string, time.Time, string) (string, error) {
	return f.next()
}
func (f *fakeAV) GetFxBar(context.Context, string, int, int) (string, error) { return f.next() }
func (f *fakeAV) GetSectorPerformance(context.Context) (string, error)       { return f.next() }

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

type fakeIEX struct {
	history *external.IexResponse[[]external.IexHistoricalPrice]
	quote   *external.IexResponse[external.IexQuote]
}

func (f *fakeIEX) GetHistoricalPrices(context.Context, string, string) (*external.IexResponse[[]external.IexHistoricalPrice], error) {
	return f.history, nil
}

func (f *fakeIEX) GetQuote(context.Context, string) (*external.IexResponse[external.IexQuote], error) {
	return f.quote, nil
}

type fakeYahoo struct {
	ticks []external.PriceTick
	freq  external.Frequency
}

func (f *fakeYahoo) GetPriceHistory(_ context.Context, _ string, _ time.Time, freq external.Frequency) ([]external.PriceTick, error) {
	f.freq = freq
	return f.ticks, nil
}

type fakeQuandl struct {
	ds *external.QuandlDataset
}

func (f *fakeQuandl) GetTimeseries(context.Context, string, time.Time, time.Time) (*external.QuandlDataset, error) {
	return f.ds, nil
}

type fakeIsda struct {
	rates []models.IsdaRate
}

func (f *fakeIsda) GetRates(context.Context, string, time.Time) ([]models.IsdaRate, error) {
	return f.rates, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
