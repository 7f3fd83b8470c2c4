package summarizer

import (
	"fmt"
	"math"
	"time"

	"client-features/pkg/models"
	"client-features/pkg/taxonomy"
)

const deliveredStatus = "delivered"

// Summarize reduces all line rows of one order into a single OrderSummary.
// Rows must be non-empty and share one order id. Order-level constants
// (status, timestamps) are taken from the first row; rows disagreeing on
// them yield data-quality warnings, never an error.
func Summarize(rows []models.OrderLineRow, tax *taxonomy.Taxonomy) (models.OrderSummary, []string, error) {
	if len(rows) == 0 {
		return models.OrderSummary{}, nil, fmt.Errorf("no rows")
	}
	first := rows[0]
	for _, r := range rows[1:] {
		if r.OrderID != first.OrderID {
			return models.OrderSummary{}, nil, fmt.Errorf("mixed order ids: %s and %s", first.OrderID, r.OrderID)
		}
	}
	if first.PurchaseTime.IsZero() {
		return models.OrderSummary{}, nil, fmt.Errorf("order %s: missing purchase timestamp", first.OrderID)
	}

	warnings := checkConstants(rows)

	s := models.OrderSummary{
		OrderID:      first.OrderID,
		CustomerID:   first.CustomerID,
		Status:       first.Status,
		Delivered:    first.Status == deliveredStatus,
		PurchaseTime: first.PurchaseTime,
		DeliveryTime: first.DeliveryTime,
	}

	// Items appear once per payment leg and review, so collapse to one
	// entry per item id (first wins) before any cost arithmetic.
	type item struct {
		category string
		price    float64
		freight  float64
	}
	items := map[int]item{}
	for _, r := range rows {
		if r.ItemID > s.NItems {
			s.NItems = r.ItemID
		}
		if _, seen := items[r.ItemID]; !seen {
			items[r.ItemID] = item{category: r.Category, price: r.Price, freight: r.FreightValue}
		}
	}
	var cost, freight float64
	for _, it := range items {
		cost += it.price + it.freight
		freight += it.freight
		s.ValueByCategory[tax.NormalizeCategory(it.category)] += it.price
	}
	for i := range s.ValueByCategory {
		s.ValueByCategory[i] = round2(s.ValueByCategory[i])
	}
	s.OrderCost = round2(cost)
	s.FreightValue = round2(freight)

	// Same for payment legs: retries duplicate a sequence number, so
	// collapse by payment_sequential (first wins) before summing by type.
	type payment struct {
		ptype string
		value float64
	}
	payments := map[int]payment{}
	for _, r := range rows {
		if r.PaymentInstallments > s.PaymentInstallments {
			s.PaymentInstallments = r.PaymentInstallments
		}
		if _, seen := payments[r.PaymentSequential]; !seen {
			payments[r.PaymentSequential] = payment{ptype: r.PaymentType, value: r.PaymentValue}
		}
	}
	var paid float64
	for _, p := range payments {
		paid += p.value
		s.ValueByPaymentType[tax.NormalizePaymentType(p.ptype)] += p.value
	}
	for i := range s.ValueByPaymentType {
		s.ValueByPaymentType[i] = round2(s.ValueByPaymentType[i])
	}
	s.CostMinusPayment = round2(s.OrderCost - paid)

	s.ReviewScoreMin, s.ReviewScoreMean, s.ReviewScoreMax = reviewScores(rows)

	s.HourOfPurchase = first.PurchaseTime.Hour()
	s.WeekdayOfPurchase = taxonomy.WeekdayIndex(first.PurchaseTime)
	s.DayMoment = taxonomy.DayMomentOf(s.HourOfPurchase)
	s.WeekMoment = taxonomy.WeekMomentOf(s.WeekdayOfPurchase)

	if first.DeliveryTime != nil {
		delay := wholeDays(first.DeliveryTime.Sub(first.PurchaseTime))
		s.DeliveryDelayDays = &delay
	}

	return s, warnings, nil
}

// checkConstants reports rows that disagree with the first row on fields
// assumed constant within an order.
func checkConstants(rows []models.OrderLineRow) []string {
	first := rows[0]
	var warnings []string
	for i, r := range rows[1:] {
		switch {
		case r.Status != first.Status:
			warnings = append(warnings, fmt.Sprintf(
				"order %s: row %d status %q differs from %q", first.OrderID, i+2, r.Status, first.Status))
		case !r.PurchaseTime.Equal(first.PurchaseTime):
			warnings = append(warnings, fmt.Sprintf(
				"order %s: row %d purchase time differs", first.OrderID, i+2))
		case !sameDelivery(r.DeliveryTime, first.DeliveryTime):
			warnings = append(warnings, fmt.Sprintf(
				"order %s: row %d delivery time differs", first.OrderID, i+2))
		}
	}
	return warnings
}

func sameDelivery(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func reviewScores(rows []models.OrderLineRow) (min, mean, max float64) {
	min, max = rows[0].ReviewScore, rows[0].ReviewScore
	var sum float64
	for _, r := range rows {
		if r.ReviewScore < min {
			min = r.ReviewScore
		}
		if r.ReviewScore > max {
			max = r.ReviewScore
		}
		sum += r.ReviewScore
	}
	return min, sum / float64(len(rows)), max
}

func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
