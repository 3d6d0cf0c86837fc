package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"metior/internal/domain"
	"metior/internal/fetch"

	"go.opentelemetry.io/otel/trace"
)

const fredBaseURL = "https://api.stlouisfed.org/fred"

// Monthly money-supply series move slowly; daily FX series less so.
const (
	fredM2TTL = 12 * time.Hour
	fredFXTTL = time.Hour
)

// FREDProvider reads money-supply and FX observations from the St. Louis Fed
// API. It is the only source for M2 figures and the primary FX source, so
// one API key covers both concerns.
type FREDProvider struct {
	fetcher *fetch.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
}

func NewFREDProvider(fetcher *fetch.Client, apiKey string, tracer trace.Tracer) *FREDProvider {
	return &FREDProvider{
		fetcher: fetcher,
		baseURL: fredBaseURL,
		apiKey:  apiKey,
		tracer:  tracer,
		limiter: NewRateLimiter(600 * time.Millisecond),
	}
}

// MoneySupply returns the latest M2 observation for a fiat component,
// converted to local-currency units via the spec's unit scale.
func (p *FREDProvider) MoneySupply(ctx context.Context, spec domain.FiatSpec) (float64, string, error) {
	_, span := p.tracer.Start(ctx, "fred.money-supply")
	defer span.End()

	value, date, err := p.latestObservation(ctx, spec.M2Series, fredM2TTL)
	if err != nil {
		return 0, "", fmt.Errorf("fred M2 %s (%s): %w", spec.Symbol, spec.M2Series, err)
	}
	return value * spec.M2UnitScale, date, nil
}

// FXRate returns the USD value of one unit of the spec's currency. Series
// quoted local-units-per-USD (spec.InvertFX) are inverted here so callers
// always see USD-per-unit.
func (p *FREDProvider) FXRate(ctx context.Context, spec domain.FiatSpec) (FXQuote, error) {
	_, span := p.tracer.Start(ctx, "fred.fx-rate")
	defer span.End()

	if spec.FXSeries == "" {
		return FXQuote{Symbol: spec.Symbol, USDPerUnit: 1, Source: "fred"}, nil
	}

	rate, date, err := p.latestObservation(ctx, spec.FXSeries, fredFXTTL)
	if err != nil {
		return FXQuote{}, fmt.Errorf("fred FX %s (%s): %w", spec.Symbol, spec.FXSeries, err)
	}
	if rate <= 0 {
		return FXQuote{}, fmt.Errorf("fred FX %s: non-positive rate %v", spec.Symbol, rate)
	}
	if spec.InvertFX {
		rate = 1 / rate
	}
	return FXQuote{Symbol: spec.Symbol, USDPerUnit: rate, ObservedAt: date, Source: "fred"}, nil
}

// latestObservation fetches the newest parseable value of a series. FRED
// publishes missing points as ".", so a few rows are requested and the first
// numeric one wins.
func (p *FREDProvider) latestObservation(ctx context.Context, seriesID string, ttl time.Duration) (float64, string, error) {
	if p.apiKey == "" {
		return 0, "", fmt.Errorf("FRED API key not configured")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, "", err
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", p.apiKey)
	params.Set("file_type", "json")
	params.Set("sort_order", "desc")
	params.Set("limit", "5")

	var payload struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	err := p.fetcher.JSON(ctx, p.baseURL+"/series/observations", fetch.Options{
		Params:   params,
		CacheKey: "fred:" + seriesID,
		TTL:      ttl,
	}, &payload)
	if err != nil {
		return 0, "", err
	}

	for _, obs := range payload.Observations {
		raw := strings.TrimSpace(obs.Value)
		if raw == "" || raw == "." {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		return v, obs.Date, nil
	}
	return 0, "", fmt.Errorf("series %s has no usable observations", seriesID)
}
