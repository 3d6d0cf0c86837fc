package numeraire

import "fmt"

// MalformedInputError reports a structural problem in raw snapshot input:
// bad date, empty component list, missing symbol, or a cap that is not a
// finite non-negative number. It always names the first offending entry.
type MalformedInputError struct {
	Field  string
	Symbol string
	Value  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("malformed snapshot input: %s for %q: %s (got %q)", e.Field, e.Symbol, e.Reason, e.Value)
	}
	if e.Value != "" {
		return fmt.Sprintf("malformed snapshot input: %s: %s (got %q)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("malformed snapshot input: %s: %s", e.Field, e.Reason)
}

// InvariantViolationError reports computed quantities that fail the snapshot
// identities: weight sum, claimed total, or claimed price out of tolerance.
// Both sides of the comparison are carried so a consumer can render an exact
// audit diagnostic. These are never silently corrected.
type InvariantViolationError struct {
	Invariant string
	Computed  float64
	Claimed   float64
	Deviation float64
	Tolerance float64
}

func (e *InvariantViolationError) Error() string {
	if e.Invariant == invariantWeightSum {
		return fmt.Sprintf("snapshot invariant %s: sum = %.12g (expected 1 ± %g)", e.Invariant, e.Computed, e.Tolerance)
	}
	return fmt.Sprintf("snapshot invariant %s: computed %.12g vs claimed %.12g, rel err %.3e > %g",
		e.Invariant, e.Computed, e.Claimed, e.Deviation, e.Tolerance)
}

const (
	invariantWeightSum = "weight-sum"
	invariantWorldCap  = "world-total"
	invariantUnitPrice = "unit-price"
)
