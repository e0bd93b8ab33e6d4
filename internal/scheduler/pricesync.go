package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
	"github.com/kjannette/quantdata/internal/stocks"
)

const (
	DefaultSpec     = "30 22 * * 1-5"
	defaultLookback = 100 * 24 * time.Hour
)

// PriceSource supplies daily bars, normally the AlphaVantage service.
type PriceSource interface {
	GetStockEOD(ctx context.Context, ticker string, start, end time.Time, period string) ([]models.StockData, error)
}

// Catalog is the part of the stock service the sync reads and writes.
type Catalog interface {
	ListSymbols(ctx context.Context) ([]models.Symbol, error)
	LastPriceDate(ctx context.Context, symbolID int) (time.Time, bool, error)
	AddStockPrice(ctx context.Context, bars []models.StockData) (stocks.AddResult, error)
}

type Notifier interface {
	Send(ctx context.Context, msg string)
}

type PriceSyncConfig struct {
	Spec     string         // standard 5-field cron expression
	Lookback time.Duration  // history fetched for symbols with no stored prices
	Location *time.Location // zone the spec is evaluated in
}

// Report summarises one sync run.
type Report struct {
	Symbols  int
	Inserted int
	Skipped  int
	Failed   []string
}

func (r Report) String() string {
	s := fmt.Sprintf("Price sync: %d symbols, %d prices added, %d already stored", r.Symbols, r.Inserted, r.Skipped)
	if len(r.Failed) > 0 {
		s += fmt.Sprintf(", %d failed (%s)", len(r.Failed), strings.Join(r.Failed, ", "))
	}
	return s
}

// PriceSync tops up stored daily prices on a cron schedule.
type PriceSync struct {
	source   PriceSource
	catalog  Catalog
	notifier Notifier
	cfg      PriceSyncConfig
	schedule cron.Schedule
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	syncMu  sync.Mutex
}

func NewPriceSync(source PriceSource, catalog Catalog, notifier Notifier, cfg PriceSyncConfig, logger *logging.Logger) (*PriceSync, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	schedule, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid price sync schedule %q: %w", cfg.Spec, err)
	}
	return &PriceSync{
		source:   source,
		catalog:  catalog,
		notifier: notifier,
		cfg:      cfg,
		schedule: schedule,
		logger:   logger.Component("price-sync"),
		now:      time.Now,
	}, nil
}

func (s *PriceSync) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn().Msg("Already running")
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(cron.WithLocation(s.cfg.Location))
	s.cron.Schedule(s.schedule, cron.FuncJob(s.runScheduled))
	s.cron.Start()
	s.running = true

	s.logger.Info().Str("spec", s.cfg.Spec).Time("next", s.schedule.Next(s.now().In(s.cfg.Location))).Msg("Started")
}

// Stop cancels an in-flight run and waits for it to return.
func (s *PriceSync) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	s.logger.Info().Msg("Stopped")
}

func (s *PriceSync) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *PriceSync) runScheduled() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	rep, err := s.SyncNow(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled price sync failed")
		s.notifier.Send(ctx, fmt.Sprintf("Price sync failed: %v", err))
		return
	}
	s.notifier.Send(ctx, rep.String())
}

// SyncNow fetches bars newer than each symbol's last stored date and stores
// them. A symbol that fails is recorded in the report and the run continues.
func (s *PriceSync) SyncNow(ctx context.Context) (Report, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	syms, err := s.catalog.ListSymbols(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list symbols: %w", err)
	}

	today := day(s.now())
	rep := Report{}
	for _, sym := range syms {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Symbols++

		inserted, skipped, err := s.syncSymbol(ctx, sym, today)
		if err != nil {
			s.logger.Error().Err(err).Str("ticker", sym.Ticker).Msg("Price sync failed for symbol")
			rep.Failed = append(rep.Failed, sym.Ticker)
			continue
		}
		rep.Inserted += inserted
		rep.Skipped += skipped
	}

	s.logger.Info().
		Int("symbols", rep.Symbols).
		Int("inserted", rep.Inserted).
		Int("skipped", rep.Skipped).
		Int("failed", len(rep.Failed)).
		Msg("Price sync complete")
	return rep, nil
}

func (s *PriceSync) syncSymbol(ctx context.Context, sym models.Symbol, today time.Time) (int, int, error) {
	last, ok, err := s.catalog.LastPriceDate(ctx, sym.SymbolID)
	if err != nil {
		return 0, 0, fmt.Errorf("last price date: %w", err)
	}
	start := today.Add(-s.cfg.Lookback)
	if ok {
		start = day(last).AddDate(0, 0, 1)
	}
	if start.After(today) {
		return 0, 0, nil
	}

	bars, err := s.source.GetStockEOD(ctx, sym.Ticker, start, today, "daily")
	if err != nil {
		return 0, 0, err
	}
	if len(bars) == 0 {
		return 0, 0, nil
	}
	for i := range bars {
		bars[i].Ticker = sym.Ticker
	}

	res, err := s.catalog.AddStockPrice(ctx, bars)
	if err != nil {
		return 0, 0, err
	}
	return res.Inserted, res.Skipped, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
