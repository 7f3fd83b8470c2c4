package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"client-features/pkg/models"
	"client-features/pkg/taxonomy"

	_ "modernc.org/sqlite"
)

// Sink persists order and client summaries into a SQLite database so
// downstream modeling and plotting consumers can query them.
type Sink struct {
	db *sql.DB
}

const orderScalarDDL = `
CREATE TABLE IF NOT EXISTS order_summaries (
	order_id             TEXT PRIMARY KEY,
	customer_id          TEXT NOT NULL,
	status               TEXT NOT NULL,
	delivered            INTEGER NOT NULL,
	purchase_time        TEXT NOT NULL,
	delivery_time        TEXT,
	n_items              INTEGER NOT NULL,
	order_cost           REAL NOT NULL,
	freight_value        REAL NOT NULL,
	cost_minus_payment   REAL NOT NULL,
	review_score_min     REAL NOT NULL,
	review_score_mean    REAL NOT NULL,
	review_score_max     REAL NOT NULL,
	payment_installments INTEGER NOT NULL,
	hour_of_purchase     INTEGER NOT NULL,
	weekday_of_purchase  INTEGER NOT NULL,
	day_moment           TEXT NOT NULL,
	week_moment          TEXT NOT NULL,
	delivery_delay_days  INTEGER,
	elapsed_days         INTEGER NOT NULL%s
);
CREATE INDEX IF NOT EXISTS idx_order_summaries_customer ON order_summaries(customer_id);
`

const clientScalarDDL = `
CREATE TABLE IF NOT EXISTS client_summaries (
	customer_id                   TEXT PRIMARY KEY,
	monetary_value_sum            REAL NOT NULL,
	monetary_value_mean_per_order REAL NOT NULL,
	total_purchases               INTEGER NOT NULL,
	items_min                     INTEGER NOT NULL,
	items_mean                    REAL NOT NULL,
	items_max                     INTEGER NOT NULL,
	review_score_min              REAL NOT NULL,
	review_score_mean             REAL NOT NULL,
	review_score_max              REAL NOT NULL,
	paid_less_than_due            INTEGER NOT NULL,
	has_non_delivered_order       INTEGER NOT NULL,
	has_installments              INTEGER NOT NULL,
	days_delivery_min             REAL,
	days_delivery_mean            REAL,
	days_delivery_max             REAL,
	preferred_week_moment         TEXT NOT NULL,
	preferred_day_moment          TEXT NOT NULL,
	preferred_category            TEXT NOT NULL,
	preferred_payment_type        TEXT NOT NULL,
	freight_value                 REAL NOT NULL,
	days_last_purchase            INTEGER NOT NULL,
	days_first_purchase           INTEGER NOT NULL,
	days_middle                   REAL NOT NULL,
	n_purchases_first_half        INTEGER NOT NULL,
	n_purchases_second_half       INTEGER NOT NULL,
	value_spent_first_half        REAL NOT NULL,
	value_spent_second_half       REAL NOT NULL,
	value_ratio_p2_p1             REAL,
	n_purchases_ratio_p2_p1       REAL%s
);
`

// vectorColumnsDDL renders one REAL column per vocabulary slot, using the
// static column names carried by the enums.
func vectorColumnsDDL() string {
	var b strings.Builder
	for _, c := range taxonomy.Categories() {
		fmt.Fprintf(&b, ",\n\t%s REAL NOT NULL DEFAULT 0", c.Column())
	}
	for _, p := range taxonomy.PaymentTypes() {
		fmt.Fprintf(&b, ",\n\t%s REAL NOT NULL DEFAULT 0", p.Column())
	}
	return b.String()
}

// OpenSink opens (or creates) the SQLite output database and ensures the
// summary tables exist.
func OpenSink(path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	vec := vectorColumnsDDL()
	schema := fmt.Sprintf(orderScalarDDL, vec) + fmt.Sprintf(clientScalarDDL, vec)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Sink{db: db}, nil
}

func (s *Sink) Close() error { return s.db.Close() }

// DB exposes the underlying handle, mainly for tests.
func (s *Sink) DB() *sql.DB { return s.db }

// WriteSummaries replaces the stored summaries with the given batch inside
// one transaction, so a failed write never leaves a half-written output.
func (s *Sink) WriteSummaries(ctx context.Context, orders []models.OrderSummary, clients []models.ClientSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_summaries`); err != nil {
		return fmt.Errorf("clear order_summaries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM client_summaries`); err != nil {
		return fmt.Errorf("clear client_summaries: %w", err)
	}

	orderStmt, orderCols := insertStatement("order_summaries", []string{
		"order_id", "customer_id", "status", "delivered", "purchase_time",
		"delivery_time", "n_items", "order_cost", "freight_value",
		"cost_minus_payment", "review_score_min", "review_score_mean",
		"review_score_max", "payment_installments", "hour_of_purchase",
		"weekday_of_purchase", "day_moment", "week_moment",
		"delivery_delay_days", "elapsed_days",
	})
	for _, o := range orders {
		args := []any{
			o.OrderID, o.CustomerID, o.Status, o.Delivered,
			o.PurchaseTime.Format(time.RFC3339),
			nullTime(o.DeliveryTime),
			o.NItems, o.OrderCost, o.FreightValue, o.CostMinusPayment,
			o.ReviewScoreMin, o.ReviewScoreMean, o.ReviewScoreMax,
			o.PaymentInstallments, o.HourOfPurchase, o.WeekdayOfPurchase,
			o.DayMoment, o.WeekMoment,
			nullInt(o.DeliveryDelayDays), o.ElapsedDays,
		}
		for _, v := range o.ValueByCategory {
			args = append(args, v)
		}
		for _, v := range o.ValueByPaymentType {
			args = append(args, v)
		}
		if _, err := tx.ExecContext(ctx, orderStmt, args...); err != nil {
			return fmt.Errorf("insert order %s (%d cols): %w", o.OrderID, orderCols, err)
		}
	}

	clientStmt, clientCols := insertStatement("client_summaries", []string{
		"customer_id", "monetary_value_sum", "monetary_value_mean_per_order",
		"total_purchases", "items_min", "items_mean", "items_max",
		"review_score_min", "review_score_mean", "review_score_max",
		"paid_less_than_due", "has_non_delivered_order", "has_installments",
		"days_delivery_min", "days_delivery_mean", "days_delivery_max",
		"preferred_week_moment", "preferred_day_moment",
		"preferred_category", "preferred_payment_type", "freight_value",
		"days_last_purchase", "days_first_purchase", "days_middle",
		"n_purchases_first_half", "n_purchases_second_half",
		"value_spent_first_half", "value_spent_second_half",
		"value_ratio_p2_p1", "n_purchases_ratio_p2_p1",
	})
	for _, c := range clients {
		args := []any{
			c.CustomerID, c.MonetaryValueSum, c.MonetaryValueMeanPerOrder,
			c.TotalPurchases, c.ItemsMin, c.ItemsMean, c.ItemsMax,
			c.ReviewScoreMin, c.ReviewScoreMean, c.ReviewScoreMax,
			c.PaidLessThanDue, c.HasNonDeliveredOrder, c.HasInstallments,
			nullFloat(c.DeliveryDaysMin), nullFloat(c.DeliveryDaysMean), nullFloat(c.DeliveryDaysMax),
			c.PreferredWeekMoment, c.PreferredDayMoment,
			c.PreferredCategory, c.PreferredPaymentType, c.FreightValue,
			c.DaysLastPurchase, c.DaysFirstPurchase, c.DaysMiddle,
			c.NPurchasesFirstHalf, c.NPurchasesSecondHalf,
			c.ValueFirstHalf, c.ValueSecondHalf,
			nullNaN(c.ValueRatioP2P1), nullNaN(c.NPurchasesRatioP2P1),
		}
		for _, v := range c.ValueByCategory {
			args = append(args, v)
		}
		for _, v := range c.ValueByPaymentType {
			args = append(args, v)
		}
		if _, err := tx.ExecContext(ctx, clientStmt, args...); err != nil {
			return fmt.Errorf("insert client %s (%d cols): %w", c.CustomerID, clientCols, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// insertStatement builds the INSERT for the scalar columns followed by the
// vector columns in vocabulary order, and returns the total column count.
func insertStatement(table string, scalars []string) (string, int) {
	cols := append([]string{}, scalars...)
	for _, c := range taxonomy.Categories() {
		cols = append(cols, c.Column())
	}
	for _, p := range taxonomy.PaymentTypes() {
		cols = append(cols, p.Column())
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), marks), len(cols)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullNaN stores the undefined-ratio sentinel as SQL NULL.
func nullNaN(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
