// Package numeraire holds the snapshot math: derive weights and the MEO unit
// price from component caps and enforce the index identities.
//
//	M_world  = Σ mc_j
//	P_meo    = Kappa · M_world
//	w_j      = mc_j / M_world,  Σ w_j = 1
package numeraire

import (
	"math"
	"regexp"

	"metior/internal/domain"
)

const (
	// EpsWeightSum bounds |Σw − 1| for a valid snapshot.
	EpsWeightSum = 1e-9
	// EpsRelative bounds the relative error between recomputed and claimed
	// totals or prices.
	EpsRelative = 1e-6
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Normalize validates raw input and produces a snapshot with derived weights,
// world total, and unit price. It is a pure function: on any failure no
// partial snapshot is returned, and the error names exactly what was violated.
func Normalize(raw domain.RawSnapshotInput) (*domain.Snapshot, error) {
	if !datePattern.MatchString(raw.Date) {
		return nil, &MalformedInputError{Field: "date", Value: raw.Date, Reason: "expected YYYY-MM-DD"}
	}
	if len(raw.Components) == 0 {
		return nil, &MalformedInputError{Field: "weights", Reason: "component list is empty"}
	}

	comps := make([]domain.Component, 0, len(raw.Components))
	for _, rc := range raw.Components {
		if rc.Symbol == "" {
			return nil, &MalformedInputError{Field: "symbol", Value: rc.RawCap, Reason: "component missing symbol"}
		}
		if !rc.CapPresent {
			return nil, &MalformedInputError{Field: "mc_usd", Symbol: rc.Symbol, Reason: "cap missing"}
		}
		if math.IsNaN(rc.MarketCapUSD) || math.IsInf(rc.MarketCapUSD, 0) {
			return nil, &MalformedInputError{Field: "mc_usd", Symbol: rc.Symbol, Value: rc.RawCap, Reason: "cap is not a finite number"}
		}
		if rc.MarketCapUSD < 0 {
			return nil, &MalformedInputError{Field: "mc_usd", Symbol: rc.Symbol, Value: rc.RawCap, Reason: "cap is negative"}
		}
		comps = append(comps, domain.Component{Symbol: rc.Symbol, MarketCapUSD: rc.MarketCapUSD})
	}

	worldTotal := sumCaps(comps)
	unitPrice := domain.Kappa * worldTotal

	// Zero world total is a representable degenerate state: every weight is
	// zero and the weight-sum identity does not apply.
	if worldTotal > 0 {
		for i := range comps {
			comps[i].Weight = comps[i].MarketCapUSD / worldTotal
		}
		sumW := 0.0
		for _, c := range comps {
			sumW += c.Weight
		}
		if dev := math.Abs(sumW - 1); dev > EpsWeightSum {
			return nil, &InvariantViolationError{
				Invariant: invariantWeightSum,
				Computed:  sumW,
				Deviation: dev,
				Tolerance: EpsWeightSum,
			}
		}
	}

	if err := checkClaimed(invariantWorldCap, worldTotal, raw.ClaimedTotalUSD); err != nil {
		return nil, err
	}
	if err := checkClaimed(invariantUnitPrice, unitPrice, raw.ClaimedUnitPrice); err != nil {
		return nil, err
	}

	return &domain.Snapshot{
		Date:          raw.Date,
		WorldTotalUSD: worldTotal,
		UnitPriceUSD:  unitPrice,
		Components:    comps,
	}, nil
}

// FromCaps builds a validated snapshot directly from symbol/cap pairs.
func FromCaps(date string, caps []domain.Component) (*domain.Snapshot, error) {
	raw := domain.RawSnapshotInput{Date: date, Components: make([]domain.RawComponent, 0, len(caps))}
	for _, c := range caps {
		raw.Components = append(raw.Components, domain.RawComponent{
			Symbol:       c.Symbol,
			MarketCapUSD: c.MarketCapUSD,
			CapPresent:   true,
		})
	}
	return Normalize(raw)
}

// sumCaps uses Kahan compensated summation. The basket is small, but the
// caps span eleven orders of magnitude and the claimed-total check is a
// strict relative comparison.
func sumCaps(comps []domain.Component) float64 {
	sum, comp := 0.0, 0.0
	for _, c := range comps {
		y := c.MarketCapUSD - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum
}

func checkClaimed(invariant string, computed float64, claimed *float64) error {
	if claimed == nil {
		return nil
	}
	var rel float64
	switch {
	case computed != 0:
		rel = math.Abs(*claimed-computed) / math.Abs(computed)
	case *claimed == 0:
		rel = 0
	default:
		rel = math.Inf(1)
	}
	if rel > EpsRelative {
		return &InvariantViolationError{
			Invariant: invariant,
			Computed:  computed,
			Claimed:   *claimed,
			Deviation: rel,
			Tolerance: EpsRelative,
		}
	}
	return nil
}
