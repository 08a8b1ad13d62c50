package views

// Tier is one rung of the loyalty reward ladder.
type Tier struct {
	ThresholdPoints  int64
	PercentOff       int
	MinPurchaseCents int64
	ExpiryDays       int
}

// HighestTier returns the single highest rung whose threshold the balance
// reaches. At most one tier fires per evaluation regardless of how many
// thresholds the balance crosses; ladder order does not matter.
func HighestTier(points int64, ladder []Tier) (Tier, bool) {
	var best Tier
	found := false
	for _, tier := range ladder {
		if tier.ThresholdPoints <= 0 || tier.ThresholdPoints > points {
			continue
		}
		if !found || tier.ThresholdPoints > best.ThresholdPoints {
			best = tier
			found = true
		}
	}
	return best, found
}
