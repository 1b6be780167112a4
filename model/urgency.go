package model

// UrgencyTier is the coarse severity classification derived from query text.
type UrgencyTier string

const (
	UrgencyLow       UrgencyTier = "low"
	UrgencyMedium    UrgencyTier = "medium"
	UrgencyHigh      UrgencyTier = "high"
	UrgencyEmergency UrgencyTier = "emergency"
)

// rank orders tiers from low to emergency for comparisons.
var urgencyRank = map[UrgencyTier]int{
	UrgencyLow:       0,
	UrgencyMedium:    1,
	UrgencyHigh:      2,
	UrgencyEmergency: 3,
}

// AtLeast reports whether the tier is at or above the given tier.
func (u UrgencyTier) AtLeast(other UrgencyTier) bool {
	return urgencyRank[u] >= urgencyRank[other]
}
