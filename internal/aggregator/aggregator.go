// Package aggregator assembles live raw snapshot input from the three
// component categories: fiat money supplies, precious-metal stocks, and
// crypto market caps. Categories resolve concurrently and fail
// independently; the basket shrinks rather than failing, as long as at
// least one component resolves.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"metior/internal/domain"
	"metior/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

// ErrNoComponents is the terminal failure when every category came up empty.
var ErrNoComponents = errors.New("no components available")

type MoneySupplySource interface {
	MoneySupply(ctx context.Context, spec domain.FiatSpec) (float64, string, error)
}

type FXSource interface {
	FXRate(ctx context.Context, spec domain.FiatSpec) (provider.FXQuote, error)
}

type MetalSpotSource interface {
	Spot(ctx context.Context, code string) (float64, string, error)
}

type CryptoCapSource interface {
	FetchMarketCaps(ctx context.Context) ([]provider.CapObservation, error)
}

// Aggregator holds the per-category sources. FX and metal spot each have a
// primary and a fallback; money supply and crypto caps have one source each.
type Aggregator struct {
	tracer trace.Tracer

	m2            MoneySupplySource
	fxPrimary     FXSource
	fxFallback    FXSource
	metalPrimary  MetalSpotSource
	metalFallback MetalSpotSource
	crypto        CryptoCapSource

	now func() time.Time
}

func New(
	tracer trace.Tracer,
	m2 MoneySupplySource,
	fxPrimary, fxFallback FXSource,
	metalPrimary, metalFallback MetalSpotSource,
	crypto CryptoCapSource,
) *Aggregator {
	return &Aggregator{
		tracer:        tracer,
		m2:            m2,
		fxPrimary:     fxPrimary,
		fxFallback:    fxFallback,
		metalPrimary:  metalPrimary,
		metalFallback: metalFallback,
		crypto:        crypto,
		now:           time.Now,
	}
}

// BuildResult carries the assembled raw input plus the non-fatal source
// failures hit along the way, for diagnostics.
type BuildResult struct {
	Input  domain.RawSnapshotInput
	Errors []string
}

// BuildLive resolves all three categories concurrently and assembles raw
// snapshot input dated today (UTC). A failed category is omitted; if every
// category fails, it returns ErrNoComponents.
func (a *Aggregator) BuildLive(ctx context.Context) (BuildResult, error) {
	_, span := a.tracer.Start(ctx, "aggregator.build-live")
	defer span.End()

	type categoryResult struct {
		category domain.Category
		obs      []provider.CapObservation
		errs     []string
	}

	results := make([]categoryResult, 3)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		obs, errs := a.resolveFiat(ctx)
		results[0] = categoryResult{domain.CategoryFiat, obs, errs}
	}()
	go func() {
		defer wg.Done()
		obs, errs := a.resolveMetals(ctx)
		results[1] = categoryResult{domain.CategoryMetal, obs, errs}
	}()
	go func() {
		defer wg.Done()
		obs, errs := a.resolveCrypto(ctx)
		results[2] = categoryResult{domain.CategoryCrypto, obs, errs}
	}()
	wg.Wait()

	var all []provider.CapObservation
	result := BuildResult{}
	for _, r := range results {
		result.Errors = append(result.Errors, r.errs...)
		if len(r.obs) == 0 {
			log.Printf("live aggregation: category %s unavailable, omitting", r.category)
			continue
		}
		all = append(all, r.obs...)
	}

	if len(all) == 0 {
		return result, fmt.Errorf("%w: %d source errors", ErrNoComponents, len(result.Errors))
	}

	// Presentation order: heaviest component first. Cosmetic; normalization
	// is order-independent.
	sort.Slice(all, func(i, j int) bool { return all[i].MarketCapUSD > all[j].MarketCapUSD })

	raw := domain.RawSnapshotInput{Date: a.now().UTC().Format("2006-01-02")}
	for _, o := range all {
		raw.Components = append(raw.Components, domain.RawComponent{
			Symbol:       o.Symbol,
			MarketCapUSD: o.MarketCapUSD,
			CapPresent:   true,
		})
	}
	result.Input = raw
	return result, nil
}

// resolveFiat builds cap = M2(local units) × FX(USD per unit) per currency.
// A currency that fails is skipped; the category survives if any resolve.
func (a *Aggregator) resolveFiat(ctx context.Context) ([]provider.CapObservation, []string) {
	_, span := a.tracer.Start(ctx, "aggregator.resolve-fiat")
	defer span.End()

	var obs []provider.CapObservation
	var errs []string
	for _, spec := range domain.FiatUniverse {
		m2, m2Date, err := a.m2.MoneySupply(ctx, spec)
		if err != nil {
			errs = append(errs, fmt.Sprintf("fiat:%s:m2: %v", spec.Symbol, err))
			continue
		}
		quote, err := a.fxQuote(ctx, spec, &errs)
		if err != nil {
			continue
		}
		obs = append(obs, provider.CapObservation{
			Symbol:       spec.Symbol,
			MarketCapUSD: m2 * quote.USDPerUnit,
			ObservedAt:   olderDate(m2Date, quote.ObservedAt),
			Source:       "fred+" + quote.Source,
		})
	}
	return obs, errs
}

func (a *Aggregator) fxQuote(ctx context.Context, spec domain.FiatSpec, errs *[]string) (provider.FXQuote, error) {
	quote, err := a.fxPrimary.FXRate(ctx, spec)
	if err == nil {
		return quote, nil
	}
	*errs = append(*errs, fmt.Sprintf("fiat:%s:fx-primary: %v", spec.Symbol, err))
	if a.fxFallback == nil {
		return provider.FXQuote{}, err
	}
	quote, err = a.fxFallback.FXRate(ctx, spec)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("fiat:%s:fx-fallback: %v", spec.Symbol, err))
		return provider.FXQuote{}, err
	}
	return quote, nil
}

// resolveMetals builds cap = above-ground stock (oz) × spot (USD/oz).
func (a *Aggregator) resolveMetals(ctx context.Context) ([]provider.CapObservation, []string) {
	_, span := a.tracer.Start(ctx, "aggregator.resolve-metals")
	defer span.End()

	var obs []provider.CapObservation
	var errs []string
	for _, spec := range domain.MetalUniverse {
		price, date, source, err := a.metalSpot(ctx, spec.SpotCode, &errs)
		if err != nil {
			continue
		}
		obs = append(obs, provider.CapObservation{
			Symbol:       spec.Symbol,
			MarketCapUSD: spec.StockOz * price,
			ObservedAt:   date,
			Source:       source,
		})
	}
	return obs, errs
}

func (a *Aggregator) metalSpot(ctx context.Context, code string, errs *[]string) (float64, string, string, error) {
	price, date, err := a.metalPrimary.Spot(ctx, code)
	if err == nil {
		return price, date, "gold-api", nil
	}
	*errs = append(*errs, fmt.Sprintf("metal:%s:primary: %v", code, err))
	if a.metalFallback == nil {
		return 0, "", "", err
	}
	price, date, err = a.metalFallback.Spot(ctx, code)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("metal:%s:fallback: %v", code, err))
		return 0, "", "", err
	}
	return price, date, "stooq", nil
}

func (a *Aggregator) resolveCrypto(ctx context.Context) ([]provider.CapObservation, []string) {
	_, span := a.tracer.Start(ctx, "aggregator.resolve-crypto")
	defer span.End()

	obs, err := a.crypto.FetchMarketCaps(ctx)
	if err != nil {
		return nil, []string{fmt.Sprintf("crypto: %v", err)}
	}
	return obs, nil
}

// olderDate picks the older of two YYYY-MM-DD strings so a component's
// observation date never overstates freshness.
func olderDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if b < a {
		return b
	}
	return a
}
