package api

import (
	"errors"
	"net/http"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/marketdata"
	"github.com/kjannette/quantdata/internal/stocks"
)

// writeServiceError maps a service error to a status code. Provider failures
// keep their message; anything else is logged and reported as fallback.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, stocks.ErrInvalidArgument),
		errors.Is(err, external.ErrInvalidTicker),
		errors.Is(err, external.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stocks.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, marketdata.ErrPremiumEndpoint),
		errors.Is(err, marketdata.ErrProviderFailure),
		errors.Is(err, marketdata.ErrMissingTimestamp),
		errors.Is(err, marketdata.ErrNoHistory):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Provider error")
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
