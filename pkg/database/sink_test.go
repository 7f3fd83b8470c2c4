package database

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"client-features/pkg/models"
	"client-features/pkg/taxonomy"

	"github.com/stretchr/testify/require"
)

func TestSink_WriteSummaries(t *testing.T) {
	sink, err := OpenSink(filepath.Join(t.TempDir(), "out.db"))
	require.NoError(t, err)
	defer sink.Close()

	order := models.OrderSummary{
		OrderID:      "o1",
		CustomerID:   "c1",
		Status:       "shipped",
		PurchaseTime: time.Date(2023, 6, 5, 9, 30, 0, 0, time.UTC),
		NItems:       1,
		OrderCost:    80,
		DayMoment:    "morning",
		WeekMoment:   taxonomy.WeekMomentMonThu,
		ElapsedDays:  10,
	}
	order.ValueByCategory[taxonomy.CategoryHome] = 80

	client := models.ClientSummary{
		CustomerID:          "c1",
		MonetaryValueSum:    80,
		TotalPurchases:      1,
		ValueRatioP2P1:      math.NaN(), // undefined ratio → stored as NULL
		NPurchasesRatioP2P1: 1,
	}
	client.ValueByCategory[taxonomy.CategoryHome] = 80

	ctx := context.Background()
	require.NoError(t, sink.WriteSummaries(ctx, []models.OrderSummary{order}, []models.ClientSummary{client}))

	var n int
	require.NoError(t, sink.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM order_summaries`).Scan(&n))
	require.Equal(t, 1, n)

	var home float64
	require.NoError(t, sink.DB().QueryRowContext(ctx,
		`SELECT value_home FROM order_summaries WHERE order_id = 'o1'`).Scan(&home))
	require.Equal(t, 80.0, home)

	// Undelivered order: delivery columns are NULL.
	var delay *int
	require.NoError(t, sink.DB().QueryRowContext(ctx,
		`SELECT delivery_delay_days FROM order_summaries WHERE order_id = 'o1'`).Scan(&delay))
	require.Nil(t, delay)

	var ratio *float64
	require.NoError(t, sink.DB().QueryRowContext(ctx,
		`SELECT value_ratio_p2_p1 FROM client_summaries WHERE customer_id = 'c1'`).Scan(&ratio))
	require.Nil(t, ratio)

	// A rewrite replaces the batch instead of stacking a second copy.
	require.NoError(t, sink.WriteSummaries(ctx, []models.OrderSummary{order}, []models.ClientSummary{client}))
	require.NoError(t, sink.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM client_summaries`).Scan(&n))
	require.Equal(t, 1, n)
}
