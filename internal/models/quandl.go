package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuandlStockData is one row of the WIKI end-of-day dataset.
type QuandlStockData struct {
	Ticker     string          `json:"ticker"`
	Date       time.Time       `json:"date"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	Volume     decimal.Decimal `json:"volume"`
	ExDividend decimal.Decimal `json:"exDividend"`
	SplitRatio decimal.Decimal `json:"splitRatio"`
	OpenAdj    decimal.Decimal `json:"openAdj"`
	HighAdj    decimal.Decimal `json:"highAdj"`
	LowAdj     decimal.Decimal `json:"lowAdj"`
	CloseAdj   decimal.Decimal `json:"closeAdj"`
	VolumeAdj  decimal.Decimal `json:"volumeAdj"`
}
