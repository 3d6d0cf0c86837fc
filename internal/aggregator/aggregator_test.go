package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"metior/internal/domain"
	"metior/internal/numeraire"
	"metior/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

type stubM2 struct {
	values map[string]float64
	err    error
}

func (s *stubM2) MoneySupply(_ context.Context, spec domain.FiatSpec) (float64, string, error) {
	if s.err != nil {
		return 0, "", s.err
	}
	v, ok := s.values[spec.Symbol]
	if !ok {
		return 0, "", fmt.Errorf("no series for %s", spec.Symbol)
	}
	return v, "2025-10-01", nil
}

type stubFX struct {
	rates map[string]float64
	err   error
	calls int
}

func (s *stubFX) FXRate(_ context.Context, spec domain.FiatSpec) (provider.FXQuote, error) {
	s.calls++
	if s.err != nil {
		return provider.FXQuote{}, s.err
	}
	r, ok := s.rates[spec.Symbol]
	if !ok {
		return provider.FXQuote{}, fmt.Errorf("no rate for %s", spec.Symbol)
	}
	return provider.FXQuote{Symbol: spec.Symbol, USDPerUnit: r, ObservedAt: "2025-10-07", Source: "stub"}, nil
}

type stubSpot struct {
	prices map[string]float64
	err    error
	calls  int
}

func (s *stubSpot) Spot(_ context.Context, code string) (float64, string, error) {
	s.calls++
	if s.err != nil {
		return 0, "", s.err
	}
	p, ok := s.prices[code]
	if !ok {
		return 0, "", fmt.Errorf("no spot for %s", code)
	}
	return p, "2025-10-08", nil
}

type stubCrypto struct {
	obs []provider.CapObservation
	err error
}

func (s *stubCrypto) FetchMarketCaps(context.Context) ([]provider.CapObservation, error) {
	return s.obs, s.err
}

func noopTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func allSourcesUp() (*stubM2, *stubFX, *stubSpot, *stubCrypto) {
	m2 := &stubM2{values: map[string]float64{"USD": 21.5e12, "EUR": 15e12, "JPY": 1250e12, "CHF": 1.1e12}}
	fx := &stubFX{rates: map[string]float64{"USD": 1, "EUR": 1.12, "JPY": 1.0 / 150.0, "CHF": 1.14}}
	spot := &stubSpot{prices: map[string]float64{"XAU": 3200, "XAG": 38}}
	crypto := &stubCrypto{obs: []provider.CapObservation{
		{Symbol: "BTC", MarketCapUSD: 2.26e12, Source: "coingecko"},
		{Symbol: "ETH", MarketCapUSD: 3.0e11, Source: "coingecko"},
	}}
	return m2, fx, spot, crypto
}

func TestBuildLiveFullBasket(t *testing.T) {
	m2, fx, spot, crypto := allSourcesUp()
	a := New(noopTracer(), m2, fx, nil, spot, nil, crypto)

	result, err := a.BuildLive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Input.Components) != 8 {
		t.Fatalf("expected 8 components, got %d", len(result.Input.Components))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected source errors: %v", result.Errors)
	}

	// Caps must be price × quantity per category.
	caps := map[string]float64{}
	for _, c := range result.Input.Components {
		caps[c.Symbol] = c.MarketCapUSD
	}
	if caps["USD"] != 21.5e12 {
		t.Fatalf("USD cap: %v", caps["USD"])
	}
	wantJPY := 1250e12 * (1.0 / 150.0)
	if math.Abs(caps["JPY"]-wantJPY)/wantJPY >= numeraire.EpsRelative {
		t.Fatalf("JPY cap should use inverted rate: %v", caps["JPY"])
	}
	if caps["XAU"] != 6.9e9*3200 {
		t.Fatalf("XAU cap: %v", caps["XAU"])
	}
	if caps["BTC"] != 2.26e12 {
		t.Fatalf("BTC cap: %v", caps["BTC"])
	}

	// Heaviest first.
	for i := 1; i < len(result.Input.Components); i++ {
		if result.Input.Components[i].MarketCapUSD > result.Input.Components[i-1].MarketCapUSD {
			t.Fatalf("components not sorted by descending cap: %+v", result.Input.Components)
		}
	}
}

func TestBuildLiveOmitsFailedCategory(t *testing.T) {
	m2, fx, _, crypto := allSourcesUp()
	deadSpot := &stubSpot{err: errors.New("metals api down")}
	a := New(noopTracer(), m2, fx, nil, deadSpot, nil, crypto)

	result, err := a.BuildLive(context.Background())
	if err != nil {
		t.Fatalf("partial availability must not fail: %v", err)
	}
	for _, c := range result.Input.Components {
		if c.Symbol == "XAU" || c.Symbol == "XAG" {
			t.Fatalf("metals should be omitted, got %+v", result.Input.Components)
		}
	}
	if len(result.Input.Components) != 6 {
		t.Fatalf("expected fiat+crypto basket, got %d components", len(result.Input.Components))
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected source errors to be reported")
	}

	// The reduced basket still normalizes to weights summing to 1.
	snap, err := numeraire.Normalize(result.Input)
	if err != nil {
		t.Fatalf("reduced basket fails normalization: %v", err)
	}
	sumW := 0.0
	for _, c := range snap.Components {
		sumW += c.Weight
	}
	if math.Abs(sumW-1) >= numeraire.EpsWeightSum {
		t.Fatalf("reduced weights sum %v", sumW)
	}
}

func TestBuildLiveAllCategoriesFailed(t *testing.T) {
	a := New(noopTracer(),
		&stubM2{err: errors.New("fred down")},
		&stubFX{err: errors.New("fx down")}, nil,
		&stubSpot{err: errors.New("metals down")}, nil,
		&stubCrypto{err: errors.New("coingecko down")},
	)

	_, err := a.BuildLive(context.Background())
	if !errors.Is(err, ErrNoComponents) {
		t.Fatalf("expected ErrNoComponents, got %v", err)
	}
}

func TestBuildLiveFXFallback(t *testing.T) {
	m2, _, spot, crypto := allSourcesUp()
	primary := &stubFX{err: errors.New("frankfurter down")}
	fallback := &stubFX{rates: map[string]float64{"USD": 1, "EUR": 1.12, "JPY": 1.0 / 150.0, "CHF": 1.14}}
	a := New(noopTracer(), m2, primary, fallback, spot, nil, crypto)

	result, err := a.BuildLive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Input.Components) != 8 {
		t.Fatalf("fallback FX should keep fiat alive, got %d components", len(result.Input.Components))
	}
	if fallback.calls == 0 {
		t.Fatal("fallback source was never consulted")
	}
	if len(result.Errors) == 0 {
		t.Fatal("primary failures should still be recorded")
	}
}

func TestBuildLiveMetalFallback(t *testing.T) {
	m2, fx, _, crypto := allSourcesUp()
	primary := &stubSpot{err: errors.New("gold-api down")}
	fallback := &stubSpot{prices: map[string]float64{"XAU": 3190, "XAG": 37.8}}
	a := New(noopTracer(), m2, fx, nil, primary, fallback, crypto)

	result, err := a.BuildLive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	caps := map[string]float64{}
	for _, c := range result.Input.Components {
		caps[c.Symbol] = c.MarketCapUSD
	}
	if caps["XAU"] != 6.9e9*3190 {
		t.Fatalf("expected fallback spot in XAU cap, got %v", caps["XAU"])
	}
}

func TestBuildLiveSkipsSingleBadCurrency(t *testing.T) {
	m2, fx, spot, crypto := allSourcesUp()
	delete(m2.values, "CHF")
	a := New(noopTracer(), m2, fx, nil, spot, nil, crypto)

	result, err := a.BuildLive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range result.Input.Components {
		if c.Symbol == "CHF" {
			t.Fatal("CHF should be skipped when its M2 is unavailable")
		}
	}
	if len(result.Input.Components) != 7 {
		t.Fatalf("expected 7 components, got %d", len(result.Input.Components))
	}
}
