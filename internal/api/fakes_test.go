package api

import (
	"context"
	"fmt"
	"time"

	"github.com/kjannette/quantdata/internal/models"
	"github.com/kjannette/quantdata/internal/stocks"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeCatalog struct {
	symbols   map[int]models.Symbol
	index     []models.IndexData
	nextID    int
	added     []models.StockData
	failWith  error
	lastStart time.Time
	lastEnd   time.Time
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		symbols: map[int]models.Symbol{
			1: {SymbolID: 1, Ticker: "IBM", Region: "US", Sector: "Information Technology"},
			2: {SymbolID: 2, Ticker: "MSFT", Region: "US", Sector: "Information Technology"},
		},
		nextID: 3,
	}
}

func (f *fakeCatalog) ListSymbols(context.Context) ([]models.Symbol, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []models.Symbol{}
	for id := 1; id < f.nextID; id++ {
		if s, ok := f.symbols[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetSymbol(_ context.Context, id int) (*models.Symbol, error) {
	s, ok := f.symbols[id]
	if !ok {
		return nil, stocks.ErrNotFound
	}
	return &s, nil
}

func (f *fakeCatalog) GetSymbolByTicker(_ context.Context, ticker string) (*models.Symbol, error) {
	for _, s := range f.symbols {
		if s.Ticker == ticker {
			return &s, nil
		}
	}
	return nil, stocks.ErrNotFound
}

func (f *fakeCatalog) GetSymbolAndPrices(_ context.Context, id int, start, end time.Time) (*models.Symbol, error) {
	f.lastStart, f.lastEnd = start, end
	s, ok := f.symbols[id]
	if !ok {
		return nil, stocks.ErrNotFound
	}
	s.Prices = []models.Price{{SymbolID: id, Date: start}}
	return &s, nil
}

func (f *fakeCatalog) CreateSymbol(_ context.Context, sym models.Symbol) (int, error) {
	if sym.Ticker == "" {
		return 0, fmt.Errorf("%w: ticker is required", stocks.ErrInvalidArgument)
	}
	for id, s := range f.symbols {
		if s.Ticker == sym.Ticker {
			return id, nil
		}
	}
	sym.SymbolID = f.nextID
	f.symbols[f.nextID] = sym
	f.nextID++
	return sym.SymbolID, nil
}

func (f *fakeCatalog) UpdateSymbol(_ context.Context, id int, sym models.Symbol) (*models.Symbol, error) {
	if _, ok := f.symbols[id]; !ok {
		return nil, stocks.ErrInvalidArgument
	}
	sym.SymbolID = id
	f.symbols[id] = sym
	return &sym, nil
}

func (f *fakeCatalog) DeleteSymbol(_ context.Context, id int) error {
	if _, ok := f.symbols[id]; !ok {
		return stocks.ErrNotFound
	}
	delete(f.symbols, id)
	return nil
}

func (f *fakeCatalog) ListIndexData(context.Context) ([]models.IndexData, error) {
	return f.index, nil
}

func (f *fakeCatalog) GetIndexData(_ context.Context, start, end time.Time) ([]models.IndexData, error) {
	var out []models.IndexData
	for _, d := range f.index {
		if !d.Date.Before(start) && !d.Date.After(end) {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, stocks.ErrNotFound
	}
	return out, nil
}

func (f *fakeCatalog) AddStockPrice(_ context.Context, bars []models.StockData) (stocks.AddResult, error) {
	if len(bars) == 0 {
		return stocks.AddResult{}, stocks.ErrInvalidArgument
	}
	f.added = append(f.added, bars...)
	return stocks.AddResult{Inserted: len(bars)}, nil
}

type fakeAV struct {
	bars      []models.StockData
	fx        []models.AvFxData
	quote     models.AvStockQuote
	sectors   []models.AvSectorPerformance
	err       error
	gotPeriod string
	gotSize   int
}

func (f *fakeAV) GetStockEOD(_ context.Context, _ string, _, _ time.Time, period string) ([]models.StockData, error) {
	f.gotPeriod = period
	return f.bars, f.err
}

func (f *fakeAV) GetStockBar(_ context.Context, _ string, _, outputSize int) ([]models.StockData, error) {
	f.gotSize = outputSize
	return f.bars, f.err
}

func (f *fakeAV) GetStockQuote(context.Context, string) (models.AvStockQuote, error) {
	return f.quote, f.err
}

func (f *fakeAV) GetFxEOD(context.Context, string, time.Time, string) ([]models.AvFxData, error) {
	return f.fx, f.err
}

func (f *fakeAV) GetFxBar(context.Context, string, int, int) ([]models.AvFxData, error) {
	return f.fx, f.err
}

func (f *fakeAV) GetSectorPerformance(context.Context) ([]models.AvSectorPerformance, error) {
	return f.sectors, f.err
}

type fakeIEX struct {
	bars  []models.StockData
	quote models.IexStockQuote
	err   error
}

func (f *fakeIEX) GetStock(context.Context, string, string) ([]models.StockData, error) {
	return f.bars, f.err
}

func (f *fakeIEX) GetQuote(context.Context, string) (models.IexStockQuote, error) {
	return f.quote, f.err
}

type fakeYahoo struct {
	bars []models.StockData
	err  error
}

func (f *fakeYahoo) GetStockDataWithPrices(context.Context, string, time.Time, time.Time, string) ([]models.StockData, error) {
	return f.bars, f.err
}

type fakeQuandl struct {
	rows []models.QuandlStockData
}

func (f *fakeQuandl) GetQuandlStock(context.Context, string, time.Time, time.Time) ([]models.QuandlStockData, error) {
	return f.rows, nil
}

type fakeIsda struct {
	rates       []models.IsdaRate
	gotCurrency string
}

func (f *fakeIsda) GetIsdaRates(_ context.Context, currency string, _ time.Time) ([]models.IsdaRate, error) {
	f.gotCurrency = currency
	return f.rates, nil
}
