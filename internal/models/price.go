package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is a tradable instrument. Ticker is the natural key.
type Symbol struct {
	SymbolID int     `json:"symbolId"`
	Ticker   string  `json:"ticker"`
	Region   string  `json:"region"`
	Sector   string  `json:"sector"`
	Prices   []Price `json:"prices,omitempty"`
}

// Price is one stored daily bar for a symbol.
type Price struct {
	PriceID  int             `json:"priceId"`
	SymbolID int             `json:"symbolId"`
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	CloseAdj decimal.Decimal `json:"closeAdj"`
	Volume   decimal.Decimal `json:"volume"`
}

// IndexData holds the daily credit spread and index levels loaded at seed time.
type IndexData struct {
	ID       int             `json:"id"`
	Date     time.Time       `json:"date"`
	IGSpread decimal.Decimal `json:"igSpread"`
	HYSpread decimal.Decimal `json:"hySpread"`
	SPX      decimal.Decimal `json:"spx"`
	VIX      decimal.Decimal `json:"vix"`
}
