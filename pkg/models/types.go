package models

import (
	"time"

	"client-features/pkg/taxonomy"
)

/*
LOAD → raw input rows as read from the denormalized source table or CSV.
*/

// OrderLineRow is one line item of one order: the join of an order item
// with its payment leg and review. Many rows share the same OrderID.
type OrderLineRow struct {
	OrderID             string
	CustomerID          string
	ItemID              int // 1-based item index within the order
	Category            string
	Price               float64
	FreightValue        float64
	PaymentSequential   int
	PaymentType         string
	PaymentValue        float64
	PaymentInstallments int // 0 when the source has no installments column
	Status              string
	PurchaseTime        time.Time
	DeliveryTime        *time.Time // nil when the order was not delivered
	ReviewScore         float64
}

/*
COMPUTE → fixed-schema summary records, one per order then one per client.
*/

// OrderSummary aggregates all line rows of one order.
type OrderSummary struct {
	OrderID    string
	CustomerID string

	Status    string
	Delivered bool

	PurchaseTime time.Time
	DeliveryTime *time.Time

	NItems              int
	OrderCost           float64
	FreightValue        float64
	CostMinusPayment    float64
	ReviewScoreMin      float64
	ReviewScoreMean     float64
	ReviewScoreMax      float64
	PaymentInstallments int

	HourOfPurchase    int
	WeekdayOfPurchase int // Monday = 0
	DayMoment         string
	WeekMoment        string

	// DeliveryDelayDays is nil when the order was never delivered; nil
	// must stay missing in downstream aggregates, never become zero.
	DeliveryDelayDays *int

	ValueByCategory    [taxonomy.NumCategories]float64
	ValueByPaymentType [taxonomy.NumPaymentTypes]float64

	// ElapsedDays is whole days between purchase and the observation
	// time. Filled by the pipeline's enrichment pass, not at creation.
	ElapsedDays int
}

// ClientSummary aggregates all order summaries of one customer.
type ClientSummary struct {
	CustomerID string

	MonetaryValueSum          float64
	MonetaryValueMeanPerOrder float64
	TotalPurchases            int

	ItemsMin  int
	ItemsMean float64
	ItemsMax  int

	ReviewScoreMin  float64
	ReviewScoreMean float64
	ReviewScoreMax  float64

	PaidLessThanDue      bool
	HasNonDeliveredOrder bool
	HasInstallments      bool

	// Delivery-delay aggregates over delivered orders only; nil when the
	// customer has none.
	DeliveryDaysMin  *float64
	DeliveryDaysMean *float64
	DeliveryDaysMax  *float64

	// Preference fields are empty ("unknown") unless a strict majority
	// among at least two purchases favors one bucket.
	PreferredWeekMoment  string
	PreferredDayMoment   string
	PreferredCategory    string
	PreferredPaymentType string

	ValueByCategory    [taxonomy.NumCategories]float64
	FreightValue       float64
	ValueByPaymentType [taxonomy.NumPaymentTypes]float64

	DaysLastPurchase  int
	DaysFirstPurchase int
	DaysMiddle        float64

	NPurchasesFirstHalf  int
	NPurchasesSecondHalf int
	ValueFirstHalf       float64
	ValueSecondHalf      float64

	// Half-over-half trend ratios (second half ÷ first half). The 1.0
	// default means "insufficient history to judge a trend", not "flat".
	// NaN marks a ratio whose first half was empty or zero-valued.
	ValueRatioP2P1      float64
	NPurchasesRatioP2P1 float64
}

// Report collects per-entity failures and data-quality warnings of one
// batch run. Skipped entities never abort the batch.
type Report struct {
	RowsRead          int
	OrdersSummarized  int
	ClientsSummarized int
	SkippedOrders     []EntityError
	SkippedClients    []EntityError
	Warnings          []string
}

// EntityError ties a skipped order or customer id to its cause.
type EntityError struct {
	ID  string
	Err error
}

/*
CONFIG → global parameters of a batch run.
*/

// Config carries the parameters passed to the pipeline.
type Config struct {
	Now                    time.Time // observation time, UTC; injected for determinism
	OldClientThresholdDays int       // minimum history before trend ratios are computed
	Verbose                bool
}
