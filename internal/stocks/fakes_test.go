package stocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kjannette/quantdata/internal/models"
)

// memStore is an in-memory implementation of all three stores.
type memStore struct {
	mu      sync.Mutex
	symbols []models.Symbol
	prices  []models.Price
	index   []models.IndexData
	nextID  int
	failErr error

	insertErr   error
	insertCalls int
}

func newMemStore() *memStore { return &memStore{nextID: 1} }

type memSymbols struct{ *memStore }
type memPrices struct{ *memStore }
type memIndex struct{ *memStore }

func (m memSymbols) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.symbols)), m.failErr
}

func (m memSymbols) List(context.Context) ([]models.Symbol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Symbol(nil), m.symbols...), nil
}

func (m memSymbols) GetByID(_ context.Context, id int) (*models.Symbol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.symbols {
		if s.SymbolID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (m memSymbols) GetByTicker(_ context.Context, ticker string) (*models.Symbol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.symbols {
		if s.Ticker == ticker {
			return &s, nil
		}
	}
	return nil, nil
}

func (m memSymbols) Insert(_ context.Context, sym models.Symbol) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sym.SymbolID = m.nextID
	m.nextID++
	m.symbols = append(m.symbols, sym)
	return sym.SymbolID, nil
}

func (m memSymbols) Update(_ context.Context, sym models.Symbol) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.symbols {
		if s.SymbolID == sym.SymbolID {
			m.symbols[i] = sym
			return true, nil
		}
	}
	return false, nil
}

func (m memSymbols) Delete(_ context.Context, id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.symbols {
		if s.SymbolID == id {
			m.symbols = append(m.symbols[:i], m.symbols[i+1:]...)
			kept := m.prices[:0]
			for _, p := range m.prices {
				if p.SymbolID != id {
					kept = append(kept, p)
				}
			}
			m.prices = kept
			return true, nil
		}
	}
	return false, nil
}

func (m memPrices) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.prices)), nil
}

func (m memPrices) Between(_ context.Context, symbolID int, start, end time.Time) ([]models.Price, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Price
	for _, p := range m.prices {
		if p.SymbolID == symbolID && !p.Date.Before(start) && !p.Date.After(end) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m memPrices) ExistingDates(_ context.Context, symbolID int, dates []time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for _, p := range m.prices {
		if p.SymbolID != symbolID {
			continue
		}
		for _, d := range dates {
			if p.Date.Equal(d) {
				out = append(out, p.Date)
				break
			}
		}
	}
	return out, nil
}

func (m memPrices) InsertMany(_ context.Context, prices []models.Price) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	for _, p := range prices {
		p.PriceID = len(m.prices) + 1
		m.prices = append(m.prices, p)
	}
	return len(prices), nil
}

func (m memPrices) LastDate(_ context.Context, symbolID int) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last time.Time
	found := false
	for _, p := range m.prices {
		if p.SymbolID == symbolID && p.Date.After(last) {
			last, found = p.Date, true
		}
	}
	return last, found, nil
}

func (m memIndex) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.index)), nil
}

func (m memIndex) List(context.Context) ([]models.IndexData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.IndexData(nil), m.index...), nil
}

func (m memIndex) Between(_ context.Context, start, end time.Time) ([]models.IndexData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.IndexData
	for _, d := range m.index {
		if !d.Date.Before(start) && !d.Date.After(end) {
			out = append(out, d)
		}
	}
	return out, nil
}
