package summarizer

import (
	"math"
	"testing"
	"time"

	"client-features/pkg/models"
	"client-features/pkg/taxonomy"
)

var purchaseMonday = time.Date(2023, 6, 5, 9, 30, 0, 0, time.UTC) // Monday morning

func lineRow(orderID string, itemID int, category string, price, freight float64) models.OrderLineRow {
	return models.OrderLineRow{
		OrderID:           orderID,
		CustomerID:        "c1",
		ItemID:            itemID,
		Category:          category,
		Price:             price,
		FreightValue:      freight,
		PaymentSequential: 1,
		PaymentType:       "credit_card",
		PaymentValue:      0,
		Status:            "delivered",
		PurchaseTime:      purchaseMonday,
		ReviewScore:       4,
	}
}

func TestSummarize_CategoryVectorAndCost(t *testing.T) {
	rows := []models.OrderLineRow{
		lineRow("o1", 1, "home", 50, 5),
		lineRow("o1", 2, "toys", 20, 5),
	}
	rows[0].PaymentValue = 80
	rows[1].PaymentValue = 80 // duplicate of payment sequential 1

	s, warnings, err := Summarize(rows, taxonomy.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if s.ValueByCategory[taxonomy.CategoryHome] != 50 {
		t.Fatalf("home spend = %v, want 50", s.ValueByCategory[taxonomy.CategoryHome])
	}
	if s.ValueByCategory[taxonomy.CategoryToys] != 20 {
		t.Fatalf("toys spend = %v, want 20", s.ValueByCategory[taxonomy.CategoryToys])
	}
	var catSum float64
	for _, v := range s.ValueByCategory {
		catSum += v
	}
	if catSum != 70 {
		t.Fatalf("category vector sums to %v, want 70", catSum)
	}
	if s.FreightValue != 10 {
		t.Fatalf("freight = %v, want 10", s.FreightValue)
	}
	if s.OrderCost != 80 {
		t.Fatalf("order cost = %v, want 80", s.OrderCost)
	}
	// Invariant: category spend plus freight equals total cost.
	if math.Abs(catSum+s.FreightValue-s.OrderCost) > 0.005 {
		t.Fatalf("invariant broken: %v + %v != %v", catSum, s.FreightValue, s.OrderCost)
	}
	if s.NItems != 2 {
		t.Fatalf("n items = %d, want 2", s.NItems)
	}
}

func TestSummarize_PaymentDedupBySequential(t *testing.T) {
	rows := []models.OrderLineRow{
		lineRow("o1", 1, "home", 50, 0),
		lineRow("o1", 1, "home", 50, 0),
		lineRow("o1", 1, "home", 50, 0),
	}
	// Sequence 1 appears twice (retry); only the first counts.
	rows[0].PaymentSequential, rows[0].PaymentType, rows[0].PaymentValue = 1, "credit_card", 40
	rows[1].PaymentSequential, rows[1].PaymentType, rows[1].PaymentValue = 1, "credit_card", 40
	rows[2].PaymentSequential, rows[2].PaymentType, rows[2].PaymentValue = 2, "voucher", 10

	s, _, err := Summarize(rows, taxonomy.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.ValueByPaymentType[taxonomy.PaymentCreditCard]; got != 40 {
		t.Fatalf("credit card value = %v, want 40", got)
	}
	if got := s.ValueByPaymentType[taxonomy.PaymentVoucher]; got != 10 {
		t.Fatalf("voucher value = %v, want 10", got)
	}
	// cost = 50, paid = 50 → delta 0
	if s.CostMinusPayment != 0 {
		t.Fatalf("cost minus payment = %v, want 0", s.CostMinusPayment)
	}
}

func TestSummarize_ReviewScores(t *testing.T) {
	rows := []models.OrderLineRow{
		lineRow("o1", 1, "home", 10, 0),
		lineRow("o1", 1, "home", 10, 0),
	}
	rows[0].ReviewScore = 2
	rows[1].ReviewScore = 5

	s, _, err := Summarize(rows, taxonomy.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ReviewScoreMin != 2 || s.ReviewScoreMax != 5 || s.ReviewScoreMean != 3.5 {
		t.Fatalf("review min/mean/max = %v/%v/%v, want 2/3.5/5",
			s.ReviewScoreMin, s.ReviewScoreMean, s.ReviewScoreMax)
	}
}

func TestSummarize_TimingFields(t *testing.T) {
	delivered := purchaseMonday.Add(84 * time.Hour) // 3.5 days later
	rows := []models.OrderLineRow{lineRow("o1", 1, "home", 10, 0)}
	rows[0].DeliveryTime = &delivered

	s, _, err := Summarize(rows, taxonomy.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.HourOfPurchase != 9 || s.WeekdayOfPurchase != 0 {
		t.Fatalf("hour/weekday = %d/%d, want 9/0", s.HourOfPurchase, s.WeekdayOfPurchase)
	}
	if s.DayMoment != "morning" || s.WeekMoment != taxonomy.WeekMomentMonThu {
		t.Fatalf("moments = %q/%q", s.DayMoment, s.WeekMoment)
	}
	if s.DeliveryDelayDays == nil || *s.DeliveryDelayDays != 3 {
		t.Fatalf("delivery delay = %v, want 3", s.DeliveryDelayDays)
	}
	if !s.Delivered {
		t.Fatal("expected delivered order")
	}
}

func TestSummarize_UndeliveredHasNilDelay(t *testing.T) {
	rows := []models.OrderLineRow{lineRow("o1", 1, "home", 10, 0)}
	rows[0].Status = "shipped"

	s, _, err := Summarize(rows, taxonomy.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DeliveryDelayDays != nil {
		t.Fatalf("delay for undelivered order = %v, want nil", *s.DeliveryDelayDays)
	}
	if s.Delivered {
		t.Fatal("shipped order marked delivered")
	}
}

func TestSummarize_InconsistentStatusWarns(t *testing.T) {
	rows := []models.OrderLineRow{
		lineRow("o1", 1, "home", 10, 0),
		lineRow("o1", 2, "home", 10, 0),
	}
	rows[1].Status = "canceled"

	s, warnings, err := Summarize(rows, taxonomy.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	// First row wins.
	if s.Status != "delivered" {
		t.Fatalf("status = %q, want delivered", s.Status)
	}
}

func TestSummarize_Errors(t *testing.T) {
	tax := taxonomy.Default()
	if _, _, err := Summarize(nil, tax); err == nil {
		t.Fatal("expected error for empty input, got nil")
	}

	mixed := []models.OrderLineRow{lineRow("o1", 1, "home", 10, 0), lineRow("o2", 1, "home", 10, 0)}
	if _, _, err := Summarize(mixed, tax); err == nil {
		t.Fatal("expected error for mixed order ids, got nil")
	}

	missing := []models.OrderLineRow{lineRow("o1", 1, "home", 10, 0)}
	missing[0].PurchaseTime = time.Time{}
	if _, _, err := Summarize(missing, tax); err == nil {
		t.Fatal("expected error for missing purchase timestamp, got nil")
	}
}
