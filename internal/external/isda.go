package external

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/quantdata/internal/models"
)

const IsdaBaseURL = "https://www.markit.com/news"

type IsdaClient struct {
	base
}

func NewIsdaClient(opts ...Option) *IsdaClient {
	return &IsdaClient{base: newBase(IsdaBaseURL, opts)}
}

// GetRates downloads the published curve archive for a currency and date and
// returns every deposit and swap point. Failures are logged and yield no rates.
func (c *IsdaClient) GetRates(ctx context.Context, currency string, date time.Time) ([]models.IsdaRate, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	u := fmt.Sprintf("%s/InterestRates_%s_%s.zip", c.baseURL, currency, date.Format("20060102"))

	body, err := c.get(ctx, u)
	if err != nil {
		c.logger.Error().Err(err).Str("currency", currency).Msg("Error downloading ISDA rates")
		return nil, nil
	}

	rates, err := ReadIsdaArchive(currency, body)
	if err != nil {
		c.logger.Error().Err(err).Str("currency", currency).Msg("Error reading ISDA rates archive")
		return nil, nil
	}
	return rates, nil
}

// ReadIsdaArchive parses every XML entry of a Markit zip archive.
func ReadIsdaArchive(currency string, archive []byte) ([]models.IsdaRate, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var out []models.IsdaRate
	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		rates, err := ParseIsdaXML(currency, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Name, err)
		}
		out = append(out, rates...)
	}
	return out, nil
}

type isdaCurve struct {
	EffectiveAsOf    string      `xml:"effectiveasof"`
	Currency         string      `xml:"currency"`
	BadDayConvention string      `xml:"baddayconvention"`
	Deposits         isdaSection `xml:"deposits"`
	Swaps            isdaSection `xml:"swaps"`
}

type isdaSection struct {
	DayCountConvention string   `xml:"daycountconvention"`
	Calendars          []string `xml:"calendars>calendar"`
	SnapTime           string   `xml:"snaptime"`
	SpotDate           string   `xml:"spotdate"`

	// Markit has published the swap conventions under both spellings.
	FloatingDayCount      string `xml:"floatingdaycountconvention"`
	FloatingDayCountShort string `xml:"floatingcountconvention"`
	FixedDayCount         string `xml:"fixeddaycountconvention"`
	FixedDayCountShort    string `xml:"fixeddayconvention"`

	FloatingPaymentFrequency string `xml:"floatingpaymentfrequency"`
	FixedPaymentFrequency    string `xml:"fixedpaymentfrequency"`

	Points []isdaPoint `xml:"curvepoint"`
}

type isdaPoint struct {
	Tenor        string `xml:"tenor"`
	MaturityDate string `xml:"maturitydate"`
	ParRate      string `xml:"parrate"`
}

// ParseIsdaXML reads one interest rate curve document.
func ParseIsdaXML(currency string, r io.Reader) ([]models.IsdaRate, error) {
	var doc isdaCurve
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}
	if doc.Currency != "" {
		currency = doc.Currency
	}

	effective, err := parseIsdaDate(doc.EffectiveAsOf)
	if err != nil {
		return nil, fmt.Errorf("effectiveasof: %w", err)
	}

	var out []models.IsdaRate
	for _, sec := range []struct {
		s    isdaSection
		swap bool
	}{{doc.Deposits, false}, {doc.Swaps, true}} {
		rates, err := sec.s.rates(currency, effective, doc.BadDayConvention, sec.swap)
		if err != nil {
			return nil, err
		}
		out = append(out, rates...)
	}
	return out, nil
}

func (s isdaSection) rates(currency string, effective time.Time, badDay string, swap bool) ([]models.IsdaRate, error) {
	if len(s.Points) == 0 {
		return nil, nil
	}

	snap, err := parseIsdaTime(s.SnapTime)
	if err != nil {
		return nil, fmt.Errorf("snaptime: %w", err)
	}
	spot, err := parseIsdaDate(s.SpotDate)
	if err != nil {
		return nil, fmt.Errorf("spotdate: %w", err)
	}

	tmpl := models.IsdaRate{
		Currency:           currency,
		EffectiveAsOf:      effective,
		BadDayConvention:   badDay,
		Calendar:           strings.Join(s.Calendars, ","),
		SnapTime:           snap,
		SpotDate:           spot,
		DayCountConvention: s.DayCountConvention,
	}
	if swap {
		tmpl.DayCountConvention = firstNonEmpty(s.FloatingDayCount, s.FloatingDayCountShort, s.DayCountConvention)
		tmpl.FixedDayCountConvention = firstNonEmpty(s.FixedDayCount, s.FixedDayCountShort)
		tmpl.FloatingPaymentFrequency = s.FloatingPaymentFrequency
		tmpl.FixedPaymentFrequency = s.FixedPaymentFrequency
	}

	out := make([]models.IsdaRate, 0, len(s.Points))
	for _, p := range s.Points {
		maturity, err := parseIsdaDate(p.MaturityDate)
		if err != nil {
			return nil, fmt.Errorf("maturitydate %s: %w", p.Tenor, err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(p.ParRate))
		if err != nil {
			return nil, fmt.Errorf("parrate %s: %w", p.Tenor, err)
		}
		r := tmpl
		r.Tenor = p.Tenor
		r.Maturity = maturity
		r.Rate = rate
		out = append(out, r)
	}
	return out, nil
}

func parseIsdaDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(s))
}

func parseIsdaTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(s, "Z"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
