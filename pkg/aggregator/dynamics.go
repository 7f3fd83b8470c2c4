package aggregator

import (
	"math"

	"client-features/pkg/models"
)

// ApplyDynamics overwrites the half-over-half trend ratios of customers
// with enough history: more than one purchase and a first purchase older
// than thresholdDays. Everyone else keeps the neutral 1.0 default, which
// reads as "too little history to judge", not as a flat trend.
//
// An empty or zero-valued first half makes the ratio undefined; it is set
// to NaN instead of raising, so one degenerate customer cannot abort the
// batch.
func ApplyDynamics(clients []models.ClientSummary, thresholdDays int) {
	for i := range clients {
		c := &clients[i]
		if c.TotalPurchases <= 1 || c.DaysFirstPurchase <= thresholdDays {
			continue
		}
		c.ValueRatioP2P1 = ratio(c.ValueSecondHalf, c.ValueFirstHalf)
		c.NPurchasesRatioP2P1 = ratio(float64(c.NPurchasesSecondHalf), float64(c.NPurchasesFirstHalf))
	}
}

func ratio(second, first float64) float64 {
	if first == 0 {
		return math.NaN()
	}
	return round2(second / first)
}
