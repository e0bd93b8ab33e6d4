package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type IexStockQuote struct {
	Ticker           string          `json:"ticker"`
	IexOpen          decimal.Decimal `json:"iexOpen"`
	IexOpenTime      time.Time       `json:"iexOpenTime"`
	IexClose         decimal.Decimal `json:"iexClose"`
	IexCloseTime     time.Time       `json:"iexCloseTime"`
	LatestPrice      decimal.Decimal `json:"latestPrice"`
	LatestTime       time.Time       `json:"latestTime"`
	LatestUpdate     time.Time       `json:"latestUpdate"`
	LatestVolume     decimal.Decimal `json:"latestVolume"`
	DelayedPrice     decimal.Decimal `json:"delayedPrice"`
	DelayedPriceTime time.Time       `json:"delayedPriceTime"`
	PreviousClose    decimal.Decimal `json:"previousClose"`
	IexRealtimePrice decimal.Decimal `json:"iexRealtimePrice"`
	IexRealtimeSize  decimal.Decimal `json:"iexRealtimeSize"`
	IexLastUpdated   time.Time       `json:"iexLastUpdated"`
	IexBidPrice      decimal.Decimal `json:"iexBidPrice"`
	IexBidSize       decimal.Decimal `json:"iexBidSize"`
	IexAskPrice      decimal.Decimal `json:"iexAskPrice"`
	IexAskSize       decimal.Decimal `json:"iexAskSize"`
	Change           decimal.Decimal `json:"change"`
	ChangePercent    decimal.Decimal `json:"changePercent"`
	MarketCap        decimal.Decimal `json:"marketCap"`
	PeRatio          decimal.Decimal `json:"peRatio"`
	Week52High       decimal.Decimal `json:"week52High"`
	Week52Low        decimal.Decimal `json:"week52Low"`
	YtdChange        decimal.Decimal `json:"ytdChange"`
}
