package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AvFxData struct {
	Ticker string          `json:"ticker"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

type AvStockQuote struct {
	Ticker        string          `json:"ticker"`
	TimeStamp     time.Time       `json:"timeStamp"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Price         decimal.Decimal `json:"price"`
	Volume        decimal.Decimal `json:"volume"`
	PrevClose     decimal.Decimal `json:"prevClose"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// AvSectorPerformance is one ranking window (real-time, 1 day, ... 10 year)
// with the percentage move of each S&P sector as reported.
type AvSectorPerformance struct {
	Rank                  string `json:"rank"`
	CommunicationServices string `json:"communicationServices"`
	ConsumerDiscretionary string `json:"consumerDiscretionary"`
	ConsumerStaples       string `json:"consumerStaples"`
	Energy                string `json:"energy"`
	Financials            string `json:"financials"`
	HealthCare            string `json:"healthCare"`
	Industrials           string `json:"industrials"`
	InformationTechnology string `json:"informationTechnology"`
	Materials             string `json:"materials"`
	RealEstate            string `json:"realEstate"`
	Utilities             string `json:"utilities"`
}
