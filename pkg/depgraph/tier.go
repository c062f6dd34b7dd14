package depgraph

// Tier is a coarse risk classification derived from a risk score.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// Tier thresholds, inclusive.
const (
	criticalThreshold = 100
	highThreshold     = 50
	mediumThreshold   = 20
)

// TierFor classifies a risk score.
func TierFor(score float64) Tier {
	switch {
	case score >= criticalThreshold:
		return TierCritical
	case score >= highThreshold:
		return TierHigh
	case score >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Color returns the hex colour visualizations use for the tier.
func (t Tier) Color() string {
	switch t {
	case TierCritical:
		return "#dc2626"
	case TierHigh:
		return "#f59e0b"
	case TierMedium:
		return "#facc15"
	default:
		return "#22c55e"
	}
}
