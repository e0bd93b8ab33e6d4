package marketdata

import (
	"context"
	"time"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

type IsdaAPI interface {
	GetRates(ctx context.Context, currency string, date time.Time) ([]models.IsdaRate, error)
}

var _ IsdaAPI = (*external.IsdaClient)(nil)

type IsdaService struct {
	api    IsdaAPI
	logger *logging.Logger
}

func NewIsdaService(api IsdaAPI, logger *logging.Logger) *IsdaService {
	return &IsdaService{api: api, logger: logger}
}

func (s *IsdaService) GetIsdaRates(ctx context.Context, currency string, date time.Time) ([]models.IsdaRate, error) {
	rates, err := s.api.GetRates(ctx, currency, date)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = []models.IsdaRate{}
	}
	s.logger.Debug().Str("currency", currency).Int("points", len(rates)).Msg("ISDA rates loaded")
	return rates, nil
}
