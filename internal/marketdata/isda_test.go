package marketdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

func TestGetIsdaRates(t *testing.T) {
	rates := []models.IsdaRate{{Currency: "USD", Tenor: "1M", Rate: d("0.0173")}}
	svc := NewIsdaService(&fakeIsda{rates: rates}, logging.NewSilent())

	got, err := svc.GetIsdaRates(context.Background(), "USD", day(2022, 7, 11))
	require.NoError(t, err)
	assert.Equal(t, rates, got)

	svc = NewIsdaService(&fakeIsda{}, logging.NewSilent())
	got, err = svc.GetIsdaRates(context.Background(), "USD", day(2022, 7, 11))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
