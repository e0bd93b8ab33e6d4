package stocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

// SymbolStore persists symbols. Lookups return nil, nil when the row is absent.
type SymbolStore interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]models.Symbol, error)
	GetByID(ctx context.Context, id int) (*models.Symbol, error)
	GetByTicker(ctx context.Context, ticker string) (*models.Symbol, error)
	Insert(ctx context.Context, sym models.Symbol) (int, error)
	Update(ctx context.Context, sym models.Symbol) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type PriceStore interface {
	Count(ctx context.Context) (int64, error)
	Between(ctx context.Context, symbolID int, start, end time.Time) ([]models.Price, error)
	ExistingDates(ctx context.Context, symbolID int, dates []time.Time) ([]time.Time, error)
	InsertMany(ctx context.Context, prices []models.Price) (int, error)
	LastDate(ctx context.Context, symbolID int) (time.Time, bool, error)
}

type IndexDataStore interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]models.IndexData, error)
	Between(ctx context.Context, start, end time.Time) ([]models.IndexData, error)
}

type Service struct {
	symbols SymbolStore
	prices  PriceStore
	index   IndexDataStore
	logger  *logging.Logger
}

func NewService(symbols SymbolStore, prices PriceStore, index IndexDataStore, logger *logging.Logger) *Service {
	return &Service{
		symbols: symbols,
		prices:  prices,
		index:   index,
		logger:  logger.Component("stocks"),
	}
}

// CheckReady verifies every table the catalog depends on can be queried.
func (s *Service) CheckReady(ctx context.Context) error {
	checks := []struct {
		name  string
		count func(context.Context) (int64, error)
	}{
		{"Symbols", s.symbols.Count},
		{"Prices", s.prices.Count},
		{"IndexData", s.index.Count},
	}
	for _, c := range checks {
		n, err := c.count(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msgf("No %s available.", c.name)
			return fmt.Errorf("%w: %s: %v", ErrNotReady, c.name, err)
		}
		s.logger.Debug().Int64("rows", n).Msgf("%s table reachable", c.name)
	}
	s.logger.Info().Msg("Data checked and ready.")
	return nil
}

func (s *Service) ListSymbols(ctx context.Context) ([]models.Symbol, error) {
	syms, err := s.symbols.List(ctx)
	if err != nil {
		return nil, err
	}
	if syms == nil {
		syms = []models.Symbol{}
	}
	return syms, nil
}

func (s *Service) GetSymbol(ctx context.Context, id int) (*models.Symbol, error) {
	sym, err := s.symbols.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, fmt.Errorf("%w: symbol with id %d", ErrNotFound, id)
	}
	return sym, nil
}

func (s *Service) GetSymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidArgument)
	}
	sym, err := s.symbols.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, fmt.Errorf("%w: symbol %s", ErrNotFound, ticker)
	}
	return sym, nil
}

// GetSymbolAndPrices returns the symbol with its prices dated start..end inclusive.
func (s *Service) GetSymbolAndPrices(ctx context.Context, id int, start, end time.Time) (*models.Symbol, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrInvalidArgument)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidArgument,
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	sym, err := s.GetSymbol(ctx, id)
	if err != nil {
		return nil, err
	}
	prices, err := s.prices.Between(ctx, id, dayOf(start), dayOf(end))
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no prices for %s between %s and %s", ErrNotFound, sym.Ticker,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	sym.Prices = prices
	return sym, nil
}

// CreateSymbol inserts the symbol unless its ticker already exists, and
// returns the symbol id either way.
func (s *Service) CreateSymbol(ctx context.Context, sym models.Symbol) (int, error) {
	sym.Ticker = normalizeTicker(sym.Ticker)
	if sym.Ticker == "" {
		return 0, fmt.Errorf("%w: ticker is required", ErrInvalidArgument)
	}

	existing, err := s.symbols.GetByTicker(ctx, sym.Ticker)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.SymbolID, nil
	}

	id, err := s.symbols.Insert(ctx, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol %s: %w", sym.Ticker, err)
	}
	s.logger.Info().Str("ticker", sym.Ticker).Int("symbolId", id).Msg("Symbol created")
	return id, nil
}

func (s *Service) UpdateSymbol(ctx context.Context, id int, sym models.Symbol) (*models.Symbol, error) {
	sym.SymbolID = id
	sym.Ticker = normalizeTicker(sym.Ticker)
	if sym.Ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", ErrInvalidArgument)
	}

	other, err := s.symbols.GetByTicker(ctx, sym.Ticker)
	if err != nil {
		return nil, err
	}
	if other != nil && other.SymbolID != id {
		return nil, fmt.Errorf("%w: ticker %s belongs to symbol %d", ErrInvalidArgument, sym.Ticker, other.SymbolID)
	}

	ok, err := s.symbols.Update(ctx, sym)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no symbol with id %d", ErrInvalidArgument, id)
	}
	sym.Prices = nil
	return &sym, nil
}

// DeleteSymbol removes the symbol and, through the foreign key, its prices.
func (s *Service) DeleteSymbol(ctx context.Context, id int) error {
	ok, err := s.symbols.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: symbol with id %d", ErrNotFound, id)
	}
	s.logger.Info().Int("symbolId", id).Msg("Symbol deleted")
	return nil
}

func (s *Service) ListIndexData(ctx context.Context) ([]models.IndexData, error) {
	data, err := s.index.List(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []models.IndexData{}
	}
	return data, nil
}

func (s *Service) GetIndexData(ctx context.Context, start, end time.Time) ([]models.IndexData, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidArgument,
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	data, err := s.index.Between(ctx, dayOf(start), dayOf(end))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no index data between %s and %s", ErrNotFound,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return data, nil
}

// AddResult reports how many bars were stored and how many already existed.
type AddResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// AddStockPrice stores bars for known tickers. Bars whose (symbol, date)
// already exists, in the store or earlier in the payload, are skipped.
func (s *Service) AddStockPrice(ctx context.Context, bars []models.StockData) (AddResult, error) {
	if len(bars) == 0 {
		return AddResult{}, fmt.Errorf("%w: no stock data supplied", ErrInvalidArgument)
	}

	byTicker := map[string][]models.StockData{}
	var order []string
	for _, b := range bars {
		t := normalizeTicker(b.Ticker)
		if t == "" {
			return AddResult{}, fmt.Errorf("%w: stock data without a ticker", ErrInvalidArgument)
		}
		if _, seen := byTicker[t]; !seen {
			order = append(order, t)
		}
		byTicker[t] = append(byTicker[t], b)
	}

	symbolIDs := make(map[string]int, len(order))
	for _, t := range order {
		sym, err := s.symbols.GetByTicker(ctx, t)
		if err != nil {
			return AddResult{}, err
		}
		if sym == nil {
			return AddResult{}, fmt.Errorf("%w: unknown ticker %s", ErrInvalidArgument, t)
		}
		symbolIDs[t] = sym.SymbolID
	}

	// All tickers go to the store in one InsertMany so a failure stores nothing.
	var res AddResult
	var fresh []models.Price
	for _, t := range order {
		ps, err := s.newPrices(ctx, symbolIDs[t], byTicker[t])
		if err != nil {
			return AddResult{}, err
		}
		res.Skipped += len(byTicker[t]) - len(ps)
		fresh = append(fresh, ps...)
	}
	if len(fresh) == 0 {
		return res, nil
	}

	n, err := s.prices.InsertMany(ctx, fresh)
	if err != nil {
		return AddResult{}, fmt.Errorf("insert prices: %w", err)
	}
	res.Inserted = n
	res.Skipped += len(fresh) - n
	s.logger.Info().Strs("tickers", order).Int("inserted", n).Int("skipped", res.Skipped).Msg("Stock prices added")
	return res, nil
}

// newPrices converts bars to prices, dropping any date already stored for the
// symbol or repeated within bars.
func (s *Service) newPrices(ctx context.Context, symbolID int, bars []models.StockData) ([]models.Price, error) {
	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = dayOf(b.Date)
	}
	existing, err := s.prices.ExistingDates(ctx, symbolID, dates)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(existing)+len(bars))
	for _, d := range existing {
		seen[d.Format(time.DateOnly)] = true
	}

	var out []models.Price
	for i, b := range bars {
		key := dates[i].Format(time.DateOnly)
		if seen[key] {
			continue
		}
		seen[key] = true
		p := b.ToPrice(symbolID)
		p.Date = dates[i]
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// LastPriceDate returns the most recent stored price date for a symbol.
func (s *Service) LastPriceDate(ctx context.Context, symbolID int) (time.Time, bool, error) {
	return s.prices.LastDate(ctx, symbolID)
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
