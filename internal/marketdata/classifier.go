package marketdata

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/kjannette/quantdata/internal/logging"
)

// ResponseClassifier decides whether a raw provider payload can be parsed.
// ok=false with a nil error means the payload is empty and the caller should
// return an empty result.
type ResponseClassifier interface {
	Classify(payload string) (ok bool, err error)
}

// MarkerRule rejects payloads containing Marker.
type MarkerRule struct {
	Marker string
	Err    error
	// LogLevel and LogMsg, when set, are logged before rejecting.
	LogLevel zerolog.Level
	LogMsg   string
}

// MarkerClassifier applies rules in order after the empty check.
type MarkerClassifier struct {
	rules  []MarkerRule
	logger *logging.Logger
}

func NewMarkerClassifier(logger *logging.Logger, rules ...MarkerRule) *MarkerClassifier {
	return &MarkerClassifier{rules: rules, logger: logger}
}

func (c *MarkerClassifier) Classify(payload string) (bool, error) {
	if strings.TrimSpace(payload) == "" {
		c.logger.Info().Msg("Response is invalid (either null, empty, or whitespace)")
		return false, nil
	}
	for _, r := range c.rules {
		if !strings.Contains(payload, r.Marker) {
			continue
		}
		if r.LogMsg != "" {
			c.logger.WithLevel(r.LogLevel).Msg(r.LogMsg)
		}
		return false, r.Err
	}
	return true, nil
}

const (
	avPremiumMarker       = "This is a premium endpoint"
	avInvalidAPIKeyMarker = "parameter apikey is invalid or missing"
)

// NewAlphaVantageClassifier recognises AlphaVantage's premium and invalid key
// notices, which arrive with HTTP 200.
func NewAlphaVantageClassifier(logger *logging.Logger) *MarkerClassifier {
	return NewMarkerClassifier(logger,
		MarkerRule{Marker: avPremiumMarker, Err: ErrPremiumEndpoint},
		MarkerRule{
			Marker:   avInvalidAPIKeyMarker,
			Err:      ErrProviderFailure,
			LogLevel: zerolog.ErrorLevel,
			LogMsg:   "Error calling AlphaVantage. API key may be invalid.",
		},
	)
}
