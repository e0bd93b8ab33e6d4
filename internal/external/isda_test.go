package external

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const isdaFixture = `<?xml version="1.0" encoding="utf-8"?>
<interestRateCurve>
  <effectiveasof>2022-07-11</effectiveasof>
  <currency>USD</currency>
  <baddayconvention>M</baddayconvention>
  <deposits>
    <daycountconvention>ACT/360</daycountconvention>
    <snaptime>2022-07-08T15:00:00.000Z</snaptime>
    <spotdate>2022-07-13</spotdate>
    <calendars><calendar>none</calendar></calendars>
    <curvepoint><tenor>1M</tenor><maturitydate>2022-08-15</maturitydate><parrate>0.0173</parrate></curvepoint>
    <curvepoint><tenor>3M</tenor><maturitydate>2022-10-13</maturitydate><parrate>0.0241</parrate></curvepoint>
  </deposits>
  <swaps>
    <fixeddaycountconvention>30/360</fixeddaycountconvention>
    <floatingdaycountconvention>ACT/360</floatingdaycountconvention>
    <fixedpaymentfrequency>6M</fixedpaymentfrequency>
    <floatingpaymentfrequency>3M</floatingpaymentfrequency>
    <snaptime>2022-07-08T15:00:00.000Z</snaptime>
    <spotdate>2022-07-13</spotdate>
    <calendars><calendar>none</calendar></calendars>
    <curvepoint><tenor>2Y</tenor><maturitydate>2024-07-15</maturitydate><parrate>0.03012</parrate></curvepoint>
  </swaps>
</interestRateCurve>`

func TestParseIsdaXML(t *testing.T) {
	rates, err := ParseIsdaXML("usd", strings.NewReader(isdaFixture))
	require.NoError(t, err)
	require.Len(t, rates, 3)

	dep := rates[0]
	assert.Equal(t, "USD", dep.Currency)
	assert.Equal(t, "1M", dep.Tenor)
	assert.Equal(t, "0.0173", dep.Rate.String())
	assert.Equal(t, "ACT/360", dep.DayCountConvention)
	assert.Equal(t, "none", dep.Calendar)
	assert.Equal(t, "M", dep.BadDayConvention)
	assert.Equal(t, time.Date(2022, 7, 11, 0, 0, 0, 0, time.UTC), dep.EffectiveAsOf)
	assert.Equal(t, time.Date(2022, 8, 15, 0, 0, 0, 0, time.UTC), dep.Maturity)
	assert.Equal(t, time.Date(2022, 7, 8, 15, 0, 0, 0, time.UTC), dep.SnapTime)
	assert.Empty(t, dep.FixedDayCountConvention)

	swap := rates[2]
	assert.Equal(t, "2Y", swap.Tenor)
	assert.Equal(t, "30/360", swap.FixedDayCountConvention)
	assert.Equal(t, "ACT/360", swap.DayCountConvention)
	assert.Equal(t, "6M", swap.FixedPaymentFrequency)
	assert.Equal(t, "3M", swap.FloatingPaymentFrequency)
}

func TestParseIsdaXML_ShortConventionNames(t *testing.T) {
	doc := strings.NewReplacer(
		"fixeddaycountconvention", "fixeddayconvention",
		"floatingdaycountconvention", "floatingcountconvention",
	).Replace(isdaFixture)

	rates, err := ParseIsdaXML("USD", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "30/360", rates[2].FixedDayCountConvention)
	assert.Equal(t, "ACT/360", rates[2].DayCountConvention)
}

func TestParseIsdaXML_BadRate(t *testing.T) {
	doc := strings.Replace(isdaFixture, "0.0241", "n/a", 1)
	_, err := ParseIsdaXML("USD", strings.NewReader(doc))
	assert.Error(t, err)
}

func zipFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("InterestRates_USD_20220711.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(isdaFixture))
	require.NoError(t, err)
	_, err = zw.Create("README.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIsda_GetRates(t *testing.T) {
	archive := zipFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/InterestRates_USD_20220711.zip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	c := NewIsdaClient(WithBaseURL(srv.URL))
	rates, err := c.GetRates(context.Background(), "usd", time.Date(2022, 7, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, rates, 3)

	rates, err = c.GetRates(context.Background(), "EUR", time.Date(2022, 7, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, rates)
}
