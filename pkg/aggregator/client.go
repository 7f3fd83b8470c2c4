package aggregator

import (
	"fmt"
	"math"
	"sort"

	"client-features/pkg/models"
	"client-features/pkg/taxonomy"
)

// Aggregate reduces all order summaries of one customer, already enriched
// with elapsed days, into a single ClientSummary. Orders must be non-empty
// and share one customer id.
func Aggregate(orders []models.OrderSummary) (models.ClientSummary, error) {
	if len(orders) == 0 {
		return models.ClientSummary{}, fmt.Errorf("no orders")
	}
	first := orders[0]
	for _, o := range orders[1:] {
		if o.CustomerID != first.CustomerID {
			return models.ClientSummary{}, fmt.Errorf("mixed customer ids: %s and %s", first.CustomerID, o.CustomerID)
		}
	}

	c := models.ClientSummary{
		CustomerID:     first.CustomerID,
		TotalPurchases: len(orders),
		ItemsMin:       first.NItems,
		ItemsMax:       first.NItems,
		ReviewScoreMin: first.ReviewScoreMean,
		ReviewScoreMax: first.ReviewScoreMean,
		// Neutral defaults; the dynamics pass overwrites them for
		// customers with enough history.
		ValueRatioP2P1:      1,
		NPurchasesRatioP2P1: 1,
	}

	var (
		itemsSum   int
		reviewSum  float64
		delays     []float64
		dayCounts  = map[string]int{}
		weekCounts = map[string]int{}
	)
	for _, o := range orders {
		c.MonetaryValueSum += o.OrderCost
		itemsSum += o.NItems
		if o.NItems < c.ItemsMin {
			c.ItemsMin = o.NItems
		}
		if o.NItems > c.ItemsMax {
			c.ItemsMax = o.NItems
		}
		reviewSum += o.ReviewScoreMean
		if o.ReviewScoreMean < c.ReviewScoreMin {
			c.ReviewScoreMin = o.ReviewScoreMean
		}
		if o.ReviewScoreMean > c.ReviewScoreMax {
			c.ReviewScoreMax = o.ReviewScoreMean
		}

		if o.CostMinusPayment > 0 {
			c.PaidLessThanDue = true
		}
		if !o.Delivered {
			c.HasNonDeliveredOrder = true
		}
		if o.PaymentInstallments > 1 {
			c.HasInstallments = true
		}
		if o.DeliveryDelayDays != nil {
			delays = append(delays, float64(*o.DeliveryDelayDays))
		}

		for i := range o.ValueByCategory {
			c.ValueByCategory[i] += o.ValueByCategory[i]
		}
		c.FreightValue += o.FreightValue
		for i := range o.ValueByPaymentType {
			c.ValueByPaymentType[i] += o.ValueByPaymentType[i]
		}

		dayCounts[o.DayMoment]++
		weekCounts[o.WeekMoment]++
	}

	c.MonetaryValueSum = round2(c.MonetaryValueSum)
	c.MonetaryValueMeanPerOrder = round2(c.MonetaryValueSum / float64(len(orders)))
	c.ItemsMean = float64(itemsSum) / float64(len(orders))
	c.ReviewScoreMean = reviewSum / float64(len(orders))
	for i := range c.ValueByCategory {
		c.ValueByCategory[i] = round2(c.ValueByCategory[i])
	}
	c.FreightValue = round2(c.FreightValue)
	for i := range c.ValueByPaymentType {
		c.ValueByPaymentType[i] = round2(c.ValueByPaymentType[i])
	}

	// Orders without delivery data stay missing, never zero.
	if len(delays) > 0 {
		mn, mean, mx := floatStats(delays)
		c.DeliveryDaysMin, c.DeliveryDaysMean, c.DeliveryDaysMax = &mn, &mean, &mx
	}

	// Preferences need more than one purchase and a strict majority; a
	// tie stays unknown to avoid a spurious signal from weak evidence.
	if len(orders) > 1 {
		c.PreferredDayMoment = majorityLabel(dayCounts)
		c.PreferredWeekMoment = majorityLabel(weekCounts)
	}
	c.PreferredCategory = dominantSlot(c.ValueByCategory[:], categoryLabel)
	c.PreferredPaymentType = dominantSlot(c.ValueByPaymentType[:], paymentLabel)

	fillHalves(&c, orders)

	return c, nil
}

func categoryLabel(i int) string { return taxonomy.Category(i).String() }
func paymentLabel(i int) string  { return taxonomy.PaymentType(i).String() }

// fillHalves splits the customer's active period in two around its
// midpoint: older orders (elapsed ≥ middle) form the first half, recent
// ones the second.
func fillHalves(c *models.ClientSummary, orders []models.OrderSummary) {
	c.DaysLastPurchase = orders[0].ElapsedDays
	c.DaysFirstPurchase = orders[0].ElapsedDays
	for _, o := range orders[1:] {
		if o.ElapsedDays < c.DaysLastPurchase {
			c.DaysLastPurchase = o.ElapsedDays
		}
		if o.ElapsedDays > c.DaysFirstPurchase {
			c.DaysFirstPurchase = o.ElapsedDays
		}
	}
	c.DaysMiddle = float64(c.DaysFirstPurchase) / 2

	for _, o := range orders {
		if float64(o.ElapsedDays) >= c.DaysMiddle {
			c.NPurchasesFirstHalf++
			c.ValueFirstHalf += o.OrderCost
		} else {
			c.NPurchasesSecondHalf++
			c.ValueSecondHalf += o.OrderCost
		}
	}
	c.ValueFirstHalf = round2(c.ValueFirstHalf)
	c.ValueSecondHalf = round2(c.ValueSecondHalf)
}

// majorityLabel returns the bucket with a strict majority over the runner
// up, or "" on a tie.
func majorityLabel(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) == 1 {
		return labels[0]
	}
	if counts[labels[0]] > counts[labels[1]] {
		return labels[0]
	}
	return ""
}

// dominantSlot returns the label of the strictly largest value slot, or ""
// when the vector is all zero or its maximum is tied.
func dominantSlot(values []float64, label func(int) string) string {
	best, tied := 0, false
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best, tied = i, false
		} else if values[i] == values[best] {
			tied = true
		}
	}
	if tied || values[best] <= 0 {
		return ""
	}
	return label(best)
}

func floatStats(vals []float64) (min, mean, max float64) {
	min, max = vals[0], vals[0]
	var sum float64
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, sum / float64(len(vals)), max
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
