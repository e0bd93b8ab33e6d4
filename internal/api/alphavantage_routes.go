package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

func pathPositiveInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	return n, err == nil && n > 0
}

func pathTicker(r *http.Request) (string, bool) {
	t := strings.TrimSpace(r.PathValue("ticker"))
	return t, t != ""
}

// GET /api/AVEod/{ticker}/{start}/{end}/{period}
func (s *Server) handleAvStockEOD(w http.ResponseWriter, r *http.Request) {
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
	period := strings.TrimSpace(r.PathValue("period"))
	if period == "" {
		writeError(w, http.StatusBadRequest, "Period is invalid")
		return
	}

	bars, err := s.deps.AlphaVantage.GetStockEOD(r.Context(), ticker, start, end, period)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get AlphaVantage EOD data")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Ticker: %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, bars)
}

// GET /api/AVBar/{ticker}/{interval}/{outputSize}
func (s *Server) handleAvStockBar(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ticker is invalid")
		return
	}
	interval, ok := pathPositiveInt(r, "interval")
	if !ok {
		writeError(w, http.StatusBadRequest, "Interval is invalid")
		return
	}
	outputSize, ok := pathPositiveInt(r, "outputSize")
	if !ok {
		writeError(w, http.StatusBadRequest, "Output size is invalid")
		return
	}

	bars, err := s.deps.AlphaVantage.GetStockBar(r.Context(), ticker, interval, outputSize)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get AlphaVantage bar data")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Ticker: %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, bars)
}

// GET /api/AVQuote/{ticker}
func (s *Server) handleAvQuote(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ticker is invalid")
		return
	}
	q, err := s.deps.AlphaVantage.GetStockQuote(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get AlphaVantage quote")
		return
	}
	if q.Ticker == "" {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Ticker: %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// GET /api/AvFxEOD/{ticker}/{start}/{period}
func (s *Server) handleAvFxEOD(w http.ResponseWriter, r *http.Request) {
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
	period := strings.TrimSpace(r.PathValue("period"))
	if period == "" {
		writeError(w, http.StatusBadRequest, "Period is invalid")
		return
	}

	bars, err := s.deps.AlphaVantage.GetFxEOD(r.Context(), ticker, start, period)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get AlphaVantage FX data")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Ticker: %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, bars)
}

// GET /api/AvFxBar/{ticker}/{interval}/{outputSize}
func (s *Server) handleAvFxBar(w http.ResponseWriter, r *http.Request) {
	ticker, ok := pathTicker(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ticker is invalid")
		return
	}
	interval, ok := pathPositiveInt(r, "interval")
	if !ok {
		writeError(w, http.StatusBadRequest, "Interval is invalid")
		return
	}
	outputSize, ok := pathPositiveInt(r, "outputSize")
	if !ok {
		writeError(w, http.StatusBadRequest, "Output size is invalid")
		return
	}

	bars, err := s.deps.AlphaVantage.GetFxBar(r.Context(), ticker, interval, outputSize)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get AlphaVantage FX bar data")
		return
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No data for Ticker: %s", ticker))
		return
	}
	writeJSON(w, http.StatusOK, bars)
}

// GET /api/AvSectorPerformance
func (s *Server) handleAvSectorPerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := s.deps.AlphaVantage.GetSectorPerformance(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get sector performance")
		return
	}
	if len(perf) == 0 {
		writeError(w, http.StatusNotFound, "No sector performance data")
		return
	}
	writeJSON(w, http.StatusOK, perf)
}
