package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kappa converts aggregate world capitalization (USD) into the MEO unit
// price. Fixed for the lifetime of the index; any change is a version bump.
const Kappa = 1e-6

// Component is one monetary species in the basket: a fiat money supply, a
// precious-metal stock, or a crypto asset, valued in USD.
type Component struct {
	Symbol       string  `json:"symbol"`
	MarketCapUSD float64 `json:"mc_usd"`
	Weight       float64 `json:"w"`
}

// Snapshot is an immutable, dated valuation of the whole basket. Weights are
// always derived from caps, never taken from external input.
type Snapshot struct {
	Date          string      `json:"date"`
	WorldTotalUSD float64     `json:"m_world_usd"`
	UnitPriceUSD  float64     `json:"meo_usd"`
	Components    []Component `json:"weights"`
}

// RawComponent is one unvalidated basket entry. The wire format is loose:
// the symbol may arrive under "symbol" or "s", and the cap may be a JSON
// number or a numeric string.
type RawComponent struct {
	Symbol       string
	MarketCapUSD float64
	// CapPresent distinguishes an explicit cap from a missing field so that
	// validation can name the right problem.
	CapPresent bool
	// RawCap keeps the original encoding for error messages.
	RawCap string
}

func (c *RawComponent) UnmarshalJSON(data []byte) error {
	var wire struct {
		Symbol string          `json:"symbol"`
		S      string          `json:"s"`
		MCUSD  json.RawMessage `json:"mc_usd"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.Symbol = strings.TrimSpace(wire.Symbol)
	if c.Symbol == "" {
		c.Symbol = strings.TrimSpace(wire.S)
	}

	if len(wire.MCUSD) == 0 || string(wire.MCUSD) == "null" {
		return nil
	}
	c.CapPresent = true
	c.RawCap = strings.Trim(string(wire.MCUSD), `"`)

	v, err := strconv.ParseFloat(c.RawCap, 64)
	if err != nil {
		// An unparseable cap surfaces as NaN so validation rejects it with
		// the original encoding in the message.
		c.MarketCapUSD = math.NaN()
		return nil
	}
	c.MarketCapUSD = v
	return nil
}

// RawSnapshotInput is the unvalidated input to normalization. The claimed
// total and price, when present, are cross-checked against the recomputed
// values and never trusted directly.
type RawSnapshotInput struct {
	Date             string         `json:"date"`
	ClaimedTotalUSD  *float64       `json:"m_world_usd,omitempty"`
	ClaimedUnitPrice *float64       `json:"meo_usd,omitempty"`
	Components       []RawComponent `json:"weights"`
}

func (r RawSnapshotInput) String() string {
	return fmt.Sprintf("snapshot %s (%d components)", r.Date, len(r.Components))
}
