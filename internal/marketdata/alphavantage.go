package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/quantdata/internal/cache"
	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

// AlphaVantageAPI is the raw payload source, normally *external.AlphaVantageClient.
type AlphaVantageAPI interface {
	GetStockEOD(ctx context.Context, ticker string, start time.Time, period string) (string, error)
	GetStockBar(ctx context.Context, ticker string, interval, outputSize int) (string, error)
	GetStockQuote(ctx context.Context, ticker string) (string, error)
	GetFxEOD(ctx context.Context, ticker string, start time.Time, period string) (string, error)
	GetFxBar(ctx context.Context, ticker string, interval, outputSize int) (string, error)
	GetSectorPerformance(ctx context.Context) (string, error)
}

var _ AlphaVantageAPI = (*external.AlphaVantageClient)(nil)

type AlphaVantageService struct {
	api        AlphaVantageAPI
	classifier ResponseClassifier
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *logging.Logger
	now        func() time.Time
}

type AlphaVantageOption func(*AlphaVantageService)

// WithCache stores classified-valid history payloads for ttl.
func WithCache(c cache.Cache, ttl time.Duration) AlphaVantageOption {
	return func(s *AlphaVantageService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithClassifier(c ResponseClassifier) AlphaVantageOption {
	return func(s *AlphaVantageService) {
		s.classifier = c
	}
}

func NewAlphaVantageService(api AlphaVantageAPI, logger *logging.Logger, opts ...AlphaVantageOption) *AlphaVantageService {
	s := &AlphaVantageService{
		api:        api,
		classifier: NewAlphaVantageClassifier(logger),
		cache:      cache.Nop{},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStockEOD returns bars dated start..end inclusive, oldest first.
func (s *AlphaVantageService) GetStockEOD(ctx context.Context, ticker string, start, end time.Time, period string) ([]models.StockData, error) {
	key := fmt.Sprintf("av:eod:%s:%s:%s:%s", strings.ToUpper(ticker), start.Format(time.DateOnly),
		strings.ToLower(period), s.now().Format(time.DateOnly))
	payload, ok, err := s.load(ctx, key, func(ctx context.Context) (string, error) {
		return s.api.GetStockEOD(ctx, ticker, start, period)
	})
	if err != nil || !ok {
		return []models.StockData{}, err
	}

	out := []models.StockData{}
	for _, row := range csvRows(payload, s.rowError) {
		sd, err := parseEODRow(ticker, row)
		if err != nil {
			s.rowError(err)
			continue
		}
		if sd.Date.Before(start) || sd.Date.After(end) {
			continue
		}
		out = append(out, sd)
	}
	sortStockData(out)
	return out, nil
}

// GetStockBar returns intraday bars, oldest first.
func (s *AlphaVantageService) GetStockBar(ctx context.Context, ticker string, interval, outputSize int) ([]models.StockData, error) {
	payload, ok, err := s.load(ctx, "", func(ctx context.Context) (string, error) {
		return s.api.GetStockBar(ctx, ticker, interval, outputSize)
	})
	if err != nil || !ok {
		return []models.StockData{}, err
	}

	out := []models.StockData{}
	for _, row := range csvRows(payload, s.rowError) {
		sd, err := parseBarRow(ticker, row)
		if err != nil {
			s.rowError(err)
			continue
		}
		out = append(out, sd)
	}
	sortStockData(out)
	return out, nil
}

// GetStockQuote returns the latest quote, or a zero quote when the payload is
// empty or unparseable.
func (s *AlphaVantageService) GetStockQuote(ctx context.Context, ticker string) (models.AvStockQuote, error) {
	payload, ok, err := s.load(ctx, "", func(ctx context.Context) (string, error) {
		return s.api.GetStockQuote(ctx, ticker)
	})
	if err != nil || !ok {
		return models.AvStockQuote{}, err
	}

	for _, row := range csvRows(payload, s.rowError) {
		q, err := s.parseQuoteRow(row)
		if err != nil {
			s.rowError(err)
			continue
		}
		return q, nil
	}
	return models.AvStockQuote{}, nil
}

func (s *AlphaVantageService) GetFxEOD(ctx context.Context, ticker string, start time.Time, period string) ([]models.AvFxData, error) {
	key := fmt.Sprintf("av:fxeod:%s:%s:%s:%s", external.SanitizeFxTicker(ticker), start.Format(time.DateOnly),
		strings.ToLower(period), s.now().Format(time.DateOnly))
	payload, ok, err := s.load(ctx, key, func(ctx context.Context) (string, error) {
		return s.api.GetFxEOD(ctx, ticker, start, period)
	})
	if err != nil || !ok {
		return []models.AvFxData{}, err
	}
	return s.parseFx(ticker, payload), nil
}

func (s *AlphaVantageService) GetFxBar(ctx context.Context, ticker string, interval, outputSize int) ([]models.AvFxData, error) {
	payload, ok, err := s.load(ctx, "", func(ctx context.Context) (string, error) {
		return s.api.GetFxBar(ctx, ticker, interval, outputSize)
	})
	if err != nil || !ok {
		return []models.AvFxData{}, err
	}
	return s.parseFx(ticker, payload), nil
}

var sectorRanks = []string{
	"Rank A: Real-Time Performance",
	"Rank B: 1 Day Performance",
	"Rank C: 5 Day Performance",
	"Rank D: 1 Month Performance",
	"Rank E: 3 Month Performance",
	"Rank F: Year-to-Date (YTD) Performance",
	"Rank G: 1 Year Performance",
	"Rank H: 3 Year Performance",
	"Rank I: 5 Year Performance",
	"Rank J: 10 Year Performance",
}

// GetSectorPerformance returns one record per ranking window present in the payload.
func (s *AlphaVantageService) GetSectorPerformance(ctx context.Context) ([]models.AvSectorPerformance, error) {
	key := "av:sector:" + s.now().Format("2006-01-02T15")
	payload, ok, err := s.load(ctx, key, s.api.GetSectorPerformance)
	if err != nil || !ok {
		return []models.AvSectorPerformance{}, err
	}

	var doc map[string]map[string]string
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode AlphaVantage sector performance")
		return []models.AvSectorPerformance{}, nil
	}

	out := []models.AvSectorPerformance{}
	for _, rank := range sectorRanks {
		sec, ok := doc[rank]
		if !ok {
			continue
		}
		out = append(out, models.AvSectorPerformance{
			Rank:                  rank,
			CommunicationServices: sec["Communication Services"],
			ConsumerDiscretionary: sec["Consumer Discretionary"],
			ConsumerStaples:       sec["Consumer Staples"],
			Energy:                sec["Energy"],
			Financials:            sec["Financials"],
			HealthCare:            sec["Health Care"],
			Industrials:           sec["Industrials"],
			InformationTechnology: sec["Information Technology"],
			Materials:             sec["Materials"],
			RealEstate:            sec["Real Estate"],
			Utilities:             sec["Utilities"],
		})
	}
	return out, nil
}

// load returns a classified-valid payload, from the cache when key is set and
// present. ok=false with a nil error means there is nothing to parse.
func (s *AlphaVantageService) load(ctx context.Context, key string, fetch func(context.Context) (string, error)) (string, bool, error) {
	if key != "" {
		v, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		} else if hit {
			return v, true, nil
		}
	}

	payload, err := fetch(ctx)
	if err != nil {
		return "", false, err
	}
	ok, err := s.classifier.Classify(payload)
	if err != nil || !ok {
		return "", false, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return payload, true, nil
}

func (s *AlphaVantageService) rowError(err error) {
	s.logger.Error().Err(err).Msg("Failed to process AlphaVantage row")
}

func (s *AlphaVantageService) parseFx(ticker, payload string) []models.AvFxData {
	ticker = external.SanitizeFxTicker(ticker)
	out := []models.AvFxData{}
	for _, row := range csvRows(payload, s.rowError) {
		fx, err := parseFxRow(ticker, row)
		if err != nil {
			s.rowError(err)
			continue
		}
		out = append(out, fx)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// timestamp,open,high,low,close,adjusted_close,volume[,dividend_amount,...]
func parseEODRow(ticker string, row []string) (models.StockData, error) {
	if len(row) == 0 {
		return models.StockData{}, errShortRow
	}
	date, err := parseAvTime(row[0])
	if err != nil {
		return models.StockData{}, err
	}
	v, err := decimals(row, 1, 2, 3, 4, 5, 6)
	if err != nil {
		return models.StockData{}, err
	}
	return models.StockData{
		Ticker: ticker, Date: date,
		Open: v[0], High: v[1], Low: v[2], Close: v[3], CloseAdj: v[4], Volume: v[5],
	}, nil
}

// timestamp,open,high,low,close,volume
func parseBarRow(ticker string, row []string) (models.StockData, error) {
	if len(row) == 0 {
		return models.StockData{}, errShortRow
	}
	date, err := parseAvTime(row[0])
	if err != nil {
		return models.StockData{}, err
	}
	v, err := decimals(row, 1, 2, 3, 4, 5)
	if err != nil {
		return models.StockData{}, err
	}
	return models.StockData{
		Ticker: ticker, Date: date,
		Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: v[4],
	}, nil
}

// timestamp,open,high,low,close
func parseFxRow(ticker string, row []string) (models.AvFxData, error) {
	if len(row) == 0 {
		return models.AvFxData{}, errShortRow
	}
	date, err := parseAvTime(row[0])
	if err != nil {
		return models.AvFxData{}, err
	}
	v, err := decimals(row, 1, 2, 3, 4)
	if err != nil {
		return models.AvFxData{}, err
	}
	return models.AvFxData{
		Ticker: ticker, Date: date,
		Open: v[0], High: v[1], Low: v[2], Close: v[3],
	}, nil
}

var hundred = decimal.NewFromInt(100)

// symbol,open,high,low,price,volume,latestDay,previousClose,change,changePercent
func (s *AlphaVantageService) parseQuoteRow(row []string) (models.AvStockQuote, error) {
	if len(row) < 10 {
		return models.AvStockQuote{}, fmt.Errorf("%w: quote has %d columns", errShortRow, len(row))
	}
	v, err := decimals(row, 1, 2, 3, 4, 5, 7, 8)
	if err != nil {
		return models.AvStockQuote{}, err
	}
	pct, err := decimal.NewFromString(strings.TrimRight(strings.TrimSpace(row[9]), "% "))
	if err != nil {
		return models.AvStockQuote{}, fmt.Errorf("change percent: %w", err)
	}
	return models.AvStockQuote{
		Ticker:        row[0],
		TimeStamp:     s.now(),
		Open:          v[0],
		High:          v[1],
		Low:           v[2],
		Price:         v[3],
		Volume:        v[4],
		PrevClose:     v[5],
		Change:        v[6],
		ChangePercent: pct.Div(hundred),
	}, nil
}

func sortStockData(s []models.StockData) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}
