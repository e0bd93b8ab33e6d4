package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IsdaRate is one curve point of the ISDA standard interest rate curve.
// Deposit points leave the swap-only conventions empty.
type IsdaRate struct {
	Currency                 string          `json:"currency"`
	EffectiveAsOf            time.Time       `json:"effectiveAsOf"`
	BadDayConvention         string          `json:"badDayConvention"`
	Calendar                 string          `json:"calendar"`
	SnapTime                 time.Time       `json:"snapTime"`
	SpotDate                 time.Time       `json:"spotDate"`
	Maturity                 time.Time       `json:"maturity"`
	DayCountConvention       string          `json:"dayCountConvention"`
	FixedDayCountConvention  string          `json:"fixedDayCountConvention,omitempty"`
	FloatingPaymentFrequency string          `json:"floatingPaymentFrequency,omitempty"`
	FixedPaymentFrequency    string          `json:"fixedPaymentFrequency,omitempty"`
	Tenor                    string          `json:"tenor"`
	Rate                     decimal.Decimal `json:"rate"`
}
