package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kjannette/quantdata/internal/external"
)

// GET /api/IexStock/{ticker}/{range}
func (s *Server) handleIexStock(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ticker is invalid")
		return
	}
	chartRange := r.PathValue("range")
	if !external.ValidChartRange(chartRange) {
		writeError(w, http.StatusBadRequest, "Range is invalid")
		return
	}

	bars, err := s.deps.IEX.GetStock(r.Context(), ticker, chartRange)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get IEX data")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Ticker: %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, bars)
}

// GET /api/IexQuote/{ticker}
func (s *Server) handleIexQuote(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ticker is invalid")
		return
	}
	q, err := s.deps.IEX.GetQuote(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get IEX quote")
		return
	}
	if q.Ticker == "" {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Ticker: %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// GET /api/YahooStock/{ticker}/{start}/{end}/{period}
func (s *Server) handleYahooStock(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ticker is invalid")
		return
	}
	start, ok := pathDate(r, "start")
	if !ok {
		writeError(w, http.StatusBadRequest, "Start Date is invalid")
		return
	}
	end, ok := pathDate(r, "end")
	if !ok {
		writeError(w, http.StatusBadRequest, "End Date is invalid")
		return
	}

	bars, err := s.deps.Yahoo.GetStockDataWithPrices(r.Context(), ticker, start, end, r.PathValue("period"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get Yahoo data")
		return
	}
	writeJSON(w, http.StatusOK, bars)
}

// GET /api/QuandlStock/{ticker}/{start}/{end}
func (s *Server) handleQuandlStock(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ticker is invalid")
		return
	}
	start, ok := pathDate(r, "start")
	if !ok {
		writeError(w, http.StatusBadRequest, "Start Date is invalid")
		return
	}
	end, ok := pathDate(r, "end")
	if !ok {
		writeError(w, http.StatusBadRequest, "End Date is invalid")
		return
	}

	rows, err := s.deps.Quandl.GetQuandlStock(r.Context(), ticker, start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get Quandl data")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Quandl Ticker: '%s' between '%s' and '%s' dates.",
			ticker, r.PathValue("start"), r.PathValue("end")))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/IsdaRate/{currency}/{date}
func (s *Server) handleIsdaRate(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(strings.TrimSpace(r.PathValue("currency")))
	if len(currency) != 3 {
		writeError(w, http.StatusBadRequest, "Currency is invalid")
		return
	}
	date, ok := pathDate(r, "date")
	if !ok {
		writeError(w, http.StatusBadRequest, "Date is invalid")
		return
	}

	rates, err := s.deps.Isda.GetIsdaRates(r.Context(), currency, date)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get ISDA rates")
		return
	}
	if len(rates) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for currency '%s' for %s", currency, r.PathValue("date")))
		return
	}
	writeJSON(w, http.StatusOK, rates)
}
