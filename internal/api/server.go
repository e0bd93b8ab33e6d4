package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
	"github.com/kjannette/quantdata/internal/stocks"
)

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Pinger interface {
	Ping(ctx context.Context) error
}

type StockCatalog interface {
	ListSymbols(ctx context.Context) ([]models.Symbol, error)
	GetSymbol(ctx context.Context, id int) (*models.Symbol, error)
	GetSymbolByTicker(ctx context.Context, ticker string) (*models.Symbol, error)
	GetSymbolAndPrices(ctx context.Context, id int, start, end time.Time) (*models.Symbol, error)
	CreateSymbol(ctx context.Context, sym models.Symbol) (int, error)
	UpdateSymbol(ctx context.Context, id int, sym models.Symbol) (*models.Symbol, error)
	DeleteSymbol(ctx context.Context, id int) error
	ListIndexData(ctx context.Context) ([]models.IndexData, error)
	GetIndexData(ctx context.Context, start, end time.Time) ([]models.IndexData, error)
	AddStockPrice(ctx context.Context, bars []models.StockData) (stocks.AddResult, error)
}

type AlphaVantage interface {
	GetStockEOD(ctx context.Context, ticker string, start, end time.Time, period string) ([]models.StockData, error)
	GetStockBar(ctx context.Context, ticker string, interval, outputSize int) ([]models.StockData, error)
	GetStockQuote(ctx context.Context, ticker string) (models.AvStockQuote, error)
	GetFxEOD(ctx context.Context, ticker string, start time.Time, period string) ([]models.AvFxData, error)
	GetFxBar(ctx context.Context, ticker string, interval, outputSize int) ([]models.AvFxData, error)
	GetSectorPerformance(ctx context.Context) ([]models.AvSectorPerformance, error)
}

type IEX interface {
	GetStock(ctx context.Context, ticker, chartRange string) ([]models.StockData, error)
	GetQuote(ctx context.Context, ticker string) (models.IexStockQuote, error)
}

type Yahoo interface {
	GetStockDataWithPrices(ctx context.Context, ticker string, start, end time.Time, period string) ([]models.StockData, error)
}

type Quandl interface {
	GetQuandlStock(ctx context.Context, ticker string, start, end time.Time) ([]models.QuandlStockData, error)
}

type Isda interface {
	GetIsdaRates(ctx context.Context, currency string, date time.Time) ([]models.IsdaRate, error)
}

// Deps are the services behind the routes. Provider routes are only
// registered for non-nil providers.
type Deps struct {
	DB           Pinger
	Stocks       StockCatalog
	AlphaVantage AlphaVantage
	IEX          IEX
	Yahoo        Yahoo
	Quandl       Quandl
	Isda         Isda
	Hub          http.Handler
}

type Options struct {
	Port            int
	APIKey          string
	CORSAllowOrigin string
	Logger          *logging.Logger
}

type Server struct {
	deps       Deps
	apiKey     string
	logger     *logging.Logger
	handler    http.Handler
	httpServer *http.Server
}

func NewServer(deps Deps, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewSilent()
	}
	s := &Server{
		deps:   deps,
		apiKey: opts.APIKey,
		logger: logger.Component("api"),
	}

	mux := http.NewServeMux()

	if deps.Stocks != nil {
		mux.HandleFunc("GET /api/Stocks", s.handleListSymbols)
		mux.HandleFunc("GET /api/Stocks/{id}", s.handleGetSymbol)
		mux.HandleFunc("GET /api/Stocks/symbol/{ticker}", s.handleGetSymbolByTicker)
		mux.HandleFunc("GET /api/Stocks/prices/{id}", s.handleGetSymbolAndPrices)
		mux.HandleFunc("POST /api/Stocks/symbol", s.handleCreateSymbol)
		mux.HandleFunc("PUT /api/Stocks/symbol/{id}", s.handleUpdateSymbol)
		mux.HandleFunc("DELETE /api/Stocks/symbol/{id}", s.handleDeleteSymbol)
		mux.HandleFunc("GET /api/Stocks/index-data", s.handleListIndexData)
		mux.HandleFunc("GET /api/Stocks/index-data/{start}/{end}", s.handleGetIndexData)
		mux.HandleFunc("POST /api/Stocks/add-stock-price", s.handleAddStockPrice)
	}

	if deps.AlphaVantage != nil {
		mux.HandleFunc("GET /api/AVEod/{ticker}/{start}/{end}/{period}", s.handleAvStockEOD)
		mux.HandleFunc("GET /api/AVBar/{ticker}/{interval}/{outputSize}", s.handleAvStockBar)
		mux.HandleFunc("GET /api/AVQuote/{ticker}", s.handleAvQuote)
		mux.HandleFunc("GET /api/AvFxEOD/{ticker}/{start}/{period}", s.handleAvFxEOD)
		mux.HandleFunc("GET /api/AvFxBar/{ticker}/{interval}/{outputSize}", s.handleAvFxBar)
		mux.HandleFunc("GET /api/AvSectorPerformance", s.handleAvSectorPerformance)
	}

	if deps.IEX != nil {
		mux.HandleFunc("GET /api/IexStock/{ticker}/{range}", s.handleIexStock)
		mux.HandleFunc("GET /api/IexQuote/{ticker}", s.handleIexQuote)
	}

	if deps.Yahoo != nil {
		mux.HandleFunc("GET /api/YahooStock/{ticker}/{start}/{end}/{period}", s.handleYahooStock)
	}

	if deps.Quandl != nil {
		mux.HandleFunc("GET /api/QuandlStock/{ticker}/{start}/{end}", s.handleQuandlStock)
	}

	if deps.Isda != nil {
		mux.HandleFunc("GET /api/IsdaRate/{currency}/{date}", s.handleIsdaRate)
	}

	if deps.Hub != nil {
		mux.Handle("GET /stockDataHub", deps.Hub)
	}

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins(opts.CORSAllowOrigin),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})

	var handler http.Handler = mux
	handler = s.authMiddleware(handler)
	handler = c.Handler(handler)
	handler = loggingMiddleware(s.logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("REST API server started")
	if s.apiKey != "" {
		s.logger.Info().Msg("Authentication: enabled (Bearer token)")
	} else {
		s.logger.Info().Msg("Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func corsOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse(time.DateOnly, date)
	return err == nil
}

// pathDate parses a YYYY-MM-DD path value.
func pathDate(r *http.Request, name string) (time.Time, bool) {
	v := r.PathValue(name)
	if !validateDate(v) {
		return time.Time{}, false
	}
	t, _ := time.Parse(time.DateOnly, v)
	return t, true
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
