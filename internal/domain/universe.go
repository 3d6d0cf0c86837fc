package domain

// Category identifies how a component's USD cap is derived.
type Category string

const (
	CategoryFiat   Category = "fiat"
	CategoryMetal  Category = "metal"
	CategoryCrypto Category = "crypto"
)

// FiatSpec describes how to build a fiat component's cap: a broad money
// supply in local units times the USD value of one local unit.
type FiatSpec struct {
	Symbol string
	Name   string
	// M2Series is the FRED series for broad money, quoted in local units
	// scaled by M2UnitScale (M2SL is billions, the MYAGM2 series are raw).
	M2Series    string
	M2UnitScale float64
	// FXSeries is the FRED daily FX series; empty for USD itself.
	FXSeries string
	// InvertFX is set for series quoted as local units per USD (DEXJPUS,
	// DEXSZUS); the rate must be inverted before multiplying.
	InvertFX bool
}

// FiatUniverse lists the fiat money supplies in the basket.
var FiatUniverse = []FiatSpec{
	{Symbol: "USD", Name: "US dollar M2", M2Series: "M2SL", M2UnitScale: 1e9},
	{Symbol: "EUR", Name: "Euro area M2", M2Series: "MYAGM2EZM196N", M2UnitScale: 1, FXSeries: "DEXUSEU"},
	{Symbol: "JPY", Name: "Japan M2", M2Series: "MYAGM2JPM189S", M2UnitScale: 1, FXSeries: "DEXJPUS", InvertFX: true},
	{Symbol: "CHF", Name: "Switzerland M2", M2Series: "MYAGM2CHM189S", M2UnitScale: 1, FXSeries: "DEXSZUS", InvertFX: true},
}

// MetalSpec describes a precious-metal component: above-ground stock in troy
// ounces (USGS estimates, revised rarely) times spot USD per ounce.
type MetalSpec struct {
	Symbol   string
	Name     string
	StockOz  float64
	SpotCode string
}

var MetalUniverse = []MetalSpec{
	{Symbol: "XAU", Name: "Gold", StockOz: 6.9e9, SpotCode: "XAU"},
	{Symbol: "XAG", Name: "Silver", StockOz: 6.0e10, SpotCode: "XAG"},
}

// CryptoID maps basket symbols to CoinGecko API identifiers. Crypto caps
// arrive already aggregated in USD, no price-times-quantity step client-side.
var CryptoID = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
}

// CryptoIDToSymbol is the reverse mapping.
var CryptoIDToSymbol map[string]string

func init() {
	CryptoIDToSymbol = make(map[string]string, len(CryptoID))
	for sym, id := range CryptoID {
		CryptoIDToSymbol[id] = sym
	}
}

// BasketSymbols lists every symbol the live aggregator can produce, grouped
// by category in presentation order.
var BasketSymbols = []string{
	"USD", "EUR", "JPY", "CHF",
	"XAU", "XAG",
	"BTC", "ETH",
}

// CategoryOf returns the category for a basket symbol, or "" if unknown.
func CategoryOf(symbol string) Category {
	for _, f := range FiatUniverse {
		if f.Symbol == symbol {
			return CategoryFiat
		}
	}
	for _, m := range MetalUniverse {
		if m.Symbol == symbol {
			return CategoryMetal
		}
	}
	if _, ok := CryptoID[symbol]; ok {
		return CategoryCrypto
	}
	return ""
}
