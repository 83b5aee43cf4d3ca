package action

// Risk is a closed risk-tier enumeration with a defined total order
// low < medium < high. Keeping the type closed lets the policy engine fail
// closed on anything it does not recognise.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// rank maps a tier onto the total order. Unknown tiers rank above high so
// that unrecognised input is always treated as the most dangerous.
func (r Risk) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return 3
}

// Exceeds reports whether r is strictly above other in the tier order.
func (r Risk) Exceeds(other Risk) bool {
	return r.rank() > other.rank()
}

// Known reports whether r is one of the three recognised tiers.
func (r Risk) Known() bool {
	return r.rank() <= RiskHigh.rank()
}
