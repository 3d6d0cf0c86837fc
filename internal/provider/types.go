package provider

// CapObservation is one component's USD capitalization as resolved from an
// external source, with enough provenance to audit it. ObservedAt is the
// source's own observation date (YYYY-MM-DD); no staleness policy is enforced
// on it here, it is carried for logging and future filtering.
type CapObservation struct {
	Symbol       string
	MarketCapUSD float64
	ObservedAt   string
	Source       string
}

// FXQuote is the USD value of one unit of a foreign currency, already
// oriented USD-per-unit regardless of how the source quotes the pair.
type FXQuote struct {
	Symbol     string
	USDPerUnit float64
	ObservedAt string
	Source     string
}
