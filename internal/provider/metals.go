package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"metior/internal/fetch"

	"go.opentelemetry.io/otel/trace"
)

const (
	goldAPIBaseURL = "https://api.gold-api.com"
	stooqBaseURL   = "https://stooq.com"
)

// GoldAPIProvider reads spot prices (USD per troy ounce) from gold-api.com.
// Primary metals source.
type GoldAPIProvider struct {
	fetcher *fetch.Client
	baseURL string
	tracer  trace.Tracer
}

func NewGoldAPIProvider(fetcher *fetch.Client, tracer trace.Tracer) *GoldAPIProvider {
	return &GoldAPIProvider{fetcher: fetcher, baseURL: goldAPIBaseURL, tracer: tracer}
}

func (p *GoldAPIProvider) Spot(ctx context.Context, code string) (float64, string, error) {
	_, span := p.tracer.Start(ctx, "goldapi.spot")
	defer span.End()

	var payload struct {
		Price     float64 `json:"price"`
		UpdatedAt string  `json:"updatedAt"`
	}
	err := p.fetcher.JSON(ctx, p.baseURL+"/price/"+code, fetch.Options{
		CacheKey: "goldapi:" + code,
		TTL:      time.Hour,
	}, &payload)
	if err != nil {
		return 0, "", fmt.Errorf("gold-api spot %s: %w", code, err)
	}
	if payload.Price <= 0 {
		return 0, "", fmt.Errorf("gold-api spot %s: non-positive price %v", code, payload.Price)
	}
	date := payload.UpdatedAt
	if len(date) >= 10 {
		date = date[:10]
	}
	return payload.Price, date, nil
}

// StooqProvider reads spot prices from Stooq's CSV quote endpoint. Fallback
// metals source.
type StooqProvider struct {
	fetcher *fetch.Client
	baseURL string
	tracer  trace.Tracer
}

func NewStooqProvider(fetcher *fetch.Client, tracer trace.Tracer) *StooqProvider {
	return &StooqProvider{fetcher: fetcher, baseURL: stooqBaseURL, tracer: tracer}
}

// Spot fetches e.g. xauusd as "symbol,date,time,open,high,low,close,volume".
func (p *StooqProvider) Spot(ctx context.Context, code string) (float64, string, error) {
	_, span := p.tracer.Start(ctx, "stooq.spot")
	defer span.End()

	pair := strings.ToLower(code) + "usd"
	url := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", p.baseURL, pair)
	body, err := p.fetcher.Get(ctx, url, fetch.Options{
		CacheKey: "stooq:" + pair,
		TTL:      time.Hour,
	})
	if err != nil {
		return 0, "", fmt.Errorf("stooq spot %s: %w", code, err)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) < 2 {
		return 0, "", fmt.Errorf("stooq spot %s: short response", code)
	}
	fields := strings.Split(lines[1], ",")
	if len(fields) < 7 {
		return 0, "", fmt.Errorf("stooq spot %s: malformed row %q", code, lines[1])
	}
	price, err := strconv.ParseFloat(fields[6], 64)
	if err != nil || price <= 0 {
		return 0, "", fmt.Errorf("stooq spot %s: bad close %q", code, fields[6])
	}
	return price, fields[1], nil
}
