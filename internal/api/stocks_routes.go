package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kjannette/quantdata/internal/models"
)

const maxBodyBytes = 8 << 20

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GET /api/Stocks
func (s *Server) handleListSymbols(w http.ResponseWriter, r *http.Request) {
	syms, err := s.deps.Stocks.ListSymbols(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list symbols")
		return
	}
	writeJSON(w, http.StatusOK, syms)
}

// GET /api/Stocks/{id}
func (s *Server) handleGetSymbol(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Id is invalid")
		return
	}
	sym, err := s.deps.Stocks.GetSymbol(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get symbol")
		return
	}
	writeJSON(w, http.StatusOK, sym)
}

// GET /api/Stocks/symbol/{ticker}
func (s *Server) handleGetSymbolByTicker(w http.ResponseWriter, r *http.Request) {
	sym, err := s.deps.Stocks.GetSymbolByTicker(r.Context(), r.PathValue("ticker"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get symbol")
		return
	}
	writeJSON(w, http.StatusOK, sym)
}

// GET /api/Stocks/prices/{id}?start=YYYY-MM-DD&end=YYYY-MM-DD
func (s *Server) handleGetSymbolAndPrices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Id is invalid")
		return
	}
	q := r.URL.Query()
	startStr, endStr := q.Get("start"), q.Get("end")
	if !validateDate(startStr) {
		writeError(w, http.StatusBadRequest, "Start Date is invalid")
		return
	}
	if !validateDate(endStr) {
		writeError(w, http.StatusBadRequest, "End Date is invalid")
		return
	}
	start, _ := time.Parse(time.DateOnly, startStr)
	end, _ := time.Parse(time.DateOnly, endStr)

	sym, err := s.deps.Stocks.GetSymbolAndPrices(r.Context(), id, start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get prices")
		return
	}
	writeJSON(w, http.StatusOK, sym)
}

// POST /api/Stocks/symbol
func (s *Server) handleCreateSymbol(w http.ResponseWriter, r *http.Request) {
	var sym models.Symbol
	if !decodeBody(w, r, &sym) {
		return
	}
	id, err := s.deps.Stocks.CreateSymbol(r.Context(), sym)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to create symbol")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"symbolId": id})
}

// PUT /api/Stocks/symbol/{id}
func (s *Server) handleUpdateSymbol(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Id is invalid")
		return
	}
	var sym models.Symbol
	if !decodeBody(w, r, &sym) {
		return
	}
	updated, err := s.deps.Stocks.UpdateSymbol(r.Context(), id, sym)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to update symbol")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DELETE /api/Stocks/symbol/{id}
func (s *Server) handleDeleteSymbol(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Id is invalid")
		return
	}
	if err := s.deps.Stocks.DeleteSymbol(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "failed to delete symbol")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/Stocks/index-data
func (s *Server) handleListIndexData(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Stocks.ListIndexData(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list index data")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/Stocks/index-data/{start}/{end}
func (s *Server) handleGetIndexData(w http.ResponseWriter, r *http.Request) {
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
	rows, err := s.deps.Stocks.GetIndexData(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get index data")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// POST /api/Stocks/add-stock-price
func (s *Server) handleAddStockPrice(w http.ResponseWriter, r *http.Request) {
	var bars []models.StockData
	if !decodeBody(w, r, &bars) {
		return
	}
	res, err := s.deps.Stocks.AddStockPrice(r.Context(), bars)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to add stock prices")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
