// Package marketdata turns raw provider payloads into normalized records.
package marketdata

import "errors"

var (
	// ErrPremiumEndpoint means the provider gates the request behind a paid plan.
	ErrPremiumEndpoint = errors.New("request requires premium subscription to AlphaVantage")
	// ErrProviderFailure means the provider rejected the request outright.
	ErrProviderFailure = errors.New("issue getting data from AlphaVantage")
	// ErrMissingTimestamp means a provider record lacked a required time field.
	ErrMissingTimestamp = errors.New("required timestamp is missing")
	// ErrNoHistory means the provider returned no price history for a ticker.
	ErrNoHistory = errors.New("no price history")
)
