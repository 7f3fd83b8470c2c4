package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"client-features/pkg/aggregator"
	"client-features/pkg/models"
	"client-features/pkg/summarizer"
	"client-features/pkg/taxonomy"

	"github.com/schollz/progressbar/v3"
)

// Run executes the whole feature-engineering batch: line rows are grouped
// by order id and summarized, order summaries are enriched with elapsed
// days relative to cfg.Now, grouped by customer id and aggregated, and the
// trend ratios of old customers are filled in.
//
// A malformed order or customer is skipped and listed in the report; the
// rest of the batch still goes through. Output slices are sorted by id so
// a rerun with the same input and the same Now is byte-identical.
func Run(ctx context.Context, rows []models.OrderLineRow, tax *taxonomy.Taxonomy, cfg models.Config) ([]models.OrderSummary, []models.ClientSummary, models.Report, error) {
	report := models.Report{RowsRead: len(rows)}

	byOrder := map[string][]models.OrderLineRow{}
	for _, r := range rows {
		byOrder[r.OrderID] = append(byOrder[r.OrderID], r)
	}
	orderIDs := sortedKeys(byOrder)

	orders := make([]models.OrderSummary, 0, len(orderIDs))
	for _, id := range orderIDs {
		if err := ctx.Err(); err != nil {
			return nil, nil, report, err
		}
		s, warnings, err := summarizer.Summarize(byOrder[id], tax)
		if err != nil {
			report.SkippedOrders = append(report.SkippedOrders, models.EntityError{ID: id, Err: err})
			continue
		}
		report.Warnings = append(report.Warnings, warnings...)
		s.ElapsedDays = wholeDays(cfg.Now.Sub(s.PurchaseTime))
		orders = append(orders, s)
	}
	report.OrdersSummarized = len(orders)
	if cfg.Verbose {
		log.Printf("[INFO] orders summarized=%d skipped=%d warnings=%d",
			len(orders), len(report.SkippedOrders), len(report.Warnings))
	}

	byCustomer := map[string][]models.OrderSummary{}
	for _, o := range orders {
		byCustomer[o.CustomerID] = append(byCustomer[o.CustomerID], o)
	}
	customerIDs := sortedKeys(byCustomer)

	bar := progressbar.Default(int64(len(customerIDs)))
	clients := make([]models.ClientSummary, 0, len(customerIDs))
	for _, id := range customerIDs {
		if err := ctx.Err(); err != nil {
			return nil, nil, report, err
		}
		c, err := aggregator.Aggregate(byCustomer[id])
		if err != nil {
			report.SkippedClients = append(report.SkippedClients, models.EntityError{ID: id, Err: err})
			_ = bar.Add(1)
			continue
		}
		clients = append(clients, c)
		_ = bar.Add(1)
	}
	report.ClientsSummarized = len(clients)

	aggregator.ApplyDynamics(clients, cfg.OldClientThresholdDays)

	if cfg.Verbose {
		log.Printf("[INFO] clients summarized=%d skipped=%d (threshold=%dd, now=%s)",
			len(clients), len(report.SkippedClients),
			cfg.OldClientThresholdDays, cfg.Now.Format("2006-01-02"))
	}
	return orders, clients, report, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}

// Describe renders the report as a short human-readable block, one line
// per skipped entity.
func Describe(r models.Report) string {
	out := fmt.Sprintf("rows=%d orders=%d clients=%d skipped_orders=%d skipped_clients=%d warnings=%d",
		r.RowsRead, r.OrdersSummarized, r.ClientsSummarized,
		len(r.SkippedOrders), len(r.SkippedClients), len(r.Warnings))
	for _, e := range r.SkippedOrders {
		out += fmt.Sprintf("\nskipped order %s: %v", e.ID, e.Err)
	}
	for _, e := range r.SkippedClients {
		out += fmt.Sprintf("\nskipped client %s: %v", e.ID, e.Err)
	}
	return out
}
