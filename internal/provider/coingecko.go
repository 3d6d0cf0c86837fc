package provider

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"metior/internal/domain"
	"metior/internal/fetch"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches crypto market capitalizations from the CoinGecko
// free API. Caps arrive pre-aggregated in USD, so no price-times-supply step
// happens client-side. Rate limited for the free tier.
type CoinGeckoProvider struct {
	fetcher *fetch.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

func NewCoinGeckoProvider(fetcher *fetch.Client, tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		fetcher: fetcher,
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(7500 * time.Millisecond),
	}
}

// FetchMarketCaps fetches USD market caps for the whole crypto universe in a
// single batched call.
func (p *CoinGeckoProvider) FetchMarketCaps(ctx context.Context) ([]CapObservation, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-market-caps")
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ids := make([]string, 0, len(domain.CryptoID))
	for _, id := range domain.CryptoID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_last_updated_at", "true")

	// Response shape: {"bitcoin": {"usd": 97000, "usd_market_cap": 2.26e12, "last_updated_at": 1759900000}, ...}
	var raw map[string]map[string]float64
	err := p.fetcher.JSON(ctx, p.baseURL+"/simple/price", fetch.Options{
		Params:   params,
		CacheKey: "coingecko:caps",
		TTL:      15 * time.Minute,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch market caps: %w", err)
	}

	obs := make([]CapObservation, 0, len(raw))
	for cgID, data := range raw {
		symbol, ok := domain.CryptoIDToSymbol[cgID]
		if !ok {
			continue
		}
		mcap, ok := data["usd_market_cap"]
		if !ok || mcap <= 0 {
			continue
		}
		observed := ""
		if ts, ok := data["last_updated_at"]; ok && ts > 0 {
			observed = time.Unix(int64(ts), 0).UTC().Format("2006-01-02")
		}
		obs = append(obs, CapObservation{
			Symbol:       symbol,
			MarketCapUSD: mcap,
			ObservedAt:   observed,
			Source:       "coingecko",
		})
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("coingecko returned no usable market caps")
	}

	sort.Slice(obs, func(i, j int) bool { return obs[i].Symbol < obs[j].Symbol })
	return obs, nil
}
