package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"metior/internal/domain"
	"metior/internal/fetch"

	"go.opentelemetry.io/otel/trace"
)

const frankfurterBaseURL = "https://api.frankfurter.app"

// FrankfurterProvider reads reference FX rates from the ECB-backed
// Frankfurter API. Fallback FX source; no key and no inversion bookkeeping,
// asking for from=<unit>&to=USD always yields USD-per-unit.
type FrankfurterProvider struct {
	fetcher *fetch.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFrankfurterProvider(fetcher *fetch.Client, tracer trace.Tracer) *FrankfurterProvider {
	return &FrankfurterProvider{fetcher: fetcher, baseURL: frankfurterBaseURL, tracer: tracer}
}

func (p *FrankfurterProvider) FXRate(ctx context.Context, spec domain.FiatSpec) (FXQuote, error) {
	_, span := p.tracer.Start(ctx, "frankfurter.fx-rate")
	defer span.End()

	if spec.Symbol == "USD" {
		return FXQuote{Symbol: "USD", USDPerUnit: 1, Source: "frankfurter"}, nil
	}

	params := url.Values{}
	params.Set("from", spec.Symbol)
	params.Set("to", "USD")

	var payload struct {
		Date  string             `json:"date"`
		Rates map[string]float64 `json:"rates"`
	}
	err := p.fetcher.JSON(ctx, p.baseURL+"/latest", fetch.Options{
		Params:   params,
		CacheKey: "frankfurter:" + spec.Symbol,
		TTL:      time.Hour,
	}, &payload)
	if err != nil {
		return FXQuote{}, fmt.Errorf("frankfurter FX %s: %w", spec.Symbol, err)
	}

	rate, ok := payload.Rates["USD"]
	if !ok || rate <= 0 {
		return FXQuote{}, fmt.Errorf("frankfurter FX %s: no USD rate in response", spec.Symbol)
	}
	return FXQuote{Symbol: spec.Symbol, USDPerUnit: rate, ObservedAt: payload.Date, Source: "frankfurter"}, nil
}
