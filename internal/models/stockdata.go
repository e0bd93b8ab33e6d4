package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockData is a normalized bar returned by any provider. It is never persisted
// directly; AddStockPrice converts it to Price rows.
type StockData struct {
	Ticker   string          `json:"ticker"`
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	CloseAdj decimal.Decimal `json:"closeAdj"`
	Volume   decimal.Decimal `json:"volume"`
}

// ToPrice converts the bar to a Price row for the given symbol.
func (s StockData) ToPrice(symbolID int) Price {
	return Price{
		SymbolID: symbolID,
		Date:     s.Date,
		Open:     s.Open,
		High:     s.High,
		Low:      s.Low,
		Close:    s.Close,
		CloseAdj: s.CloseAdj,
		Volume:   s.Volume,
	}
}

// Stream frame statuses.
const (
	StreamStarting  = "Starting"
	StreamStreaming = "Streaming"
	StreamFinished  = "Finished"
)

// StockOutput is one frame pushed by the stock data hub.
type StockOutput struct {
	Status          string     `json:"status"`
	Stock           *StockData `json:"stock,omitempty"`
	TotalDataPoints int        `json:"totalDataPoints"`
}
