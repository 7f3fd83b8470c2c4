package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"client-features/pkg/models"
	"client-features/pkg/taxonomy"

	"github.com/agnivade/levenshtein"
)

const timestampLayout = "2006-01-02 15:04:05"

// ErrMissingColumn marks a header row that lacks a column the pipeline
// depends on. Ingestion fails fast instead of silently defaulting.
var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{
	"order_id",
	"customer_unique_id",
	"order_item_id",
	"product_category_name",
	"price",
	"freight_value",
	"payment_sequential",
	"payment_type",
	"payment_value",
	"order_status",
	"order_purchase_timestamp",
	"order_delivered_customer_date",
	"review_score",
}

// payment_installments is optional: the denormalized export does not
// always carry it, in which case installments default to zero.
const installmentsColumn = "payment_installments"

// ReadCSV loads the denormalized order-line table from a CSV file.
func ReadCSV(path string) ([]models.OrderLineRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read loads order-line rows from CSV data with a header row. Column
// positions are resolved by name, so column order does not matter.
func Read(r io.Reader) ([]models.OrderLineRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	pos := map[string]int{}
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := pos[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	installmentsAt, hasInstallments := pos[installmentsColumn]

	var rows []models.OrderLineRow
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return rows, fmt.Errorf("read csv row %d: %w", line, err)
		}

		row := models.OrderLineRow{
			OrderID:     strings.TrimSpace(rec[pos["order_id"]]),
			CustomerID:  strings.TrimSpace(rec[pos["customer_unique_id"]]),
			Category:    strings.TrimSpace(rec[pos["product_category_name"]]),
			PaymentType: strings.TrimSpace(rec[pos["payment_type"]]),
			Status:      strings.TrimSpace(rec[pos["order_status"]]),
		}
		if row.ItemID, err = parseInt(rec[pos["order_item_id"]]); err != nil {
			return rows, fmt.Errorf("row %d: order_item_id: %w", line, err)
		}
		if row.Price, err = parseFloat(rec[pos["price"]]); err != nil {
			return rows, fmt.Errorf("row %d: price: %w", line, err)
		}
		if row.FreightValue, err = parseFloat(rec[pos["freight_value"]]); err != nil {
			return rows, fmt.Errorf("row %d: freight_value: %w", line, err)
		}
		if row.PaymentSequential, err = parseInt(rec[pos["payment_sequential"]]); err != nil {
			return rows, fmt.Errorf("row %d: payment_sequential: %w", line, err)
		}
		if row.PaymentValue, err = parseFloat(rec[pos["payment_value"]]); err != nil {
			return rows, fmt.Errorf("row %d: payment_value: %w", line, err)
		}
		if row.ReviewScore, err = parseFloat(rec[pos["review_score"]]); err != nil {
			return rows, fmt.Errorf("row %d: review_score: %w", line, err)
		}
		if row.PurchaseTime, err = parseTimestamp(rec[pos["order_purchase_timestamp"]]); err != nil {
			return rows, fmt.Errorf("row %d: order_purchase_timestamp: %w", line, err)
		}
		if delivered := strings.TrimSpace(rec[pos["order_delivered_customer_date"]]); delivered != "" {
			t, err := parseTimestamp(delivered)
			if err != nil {
				return rows, fmt.Errorf("row %d: order_delivered_customer_date: %w", line, err)
			}
			row.DeliveryTime = &t
		}
		if hasInstallments {
			if row.PaymentInstallments, err = parseInt(rec[installmentsAt]); err != nil {
				return rows, fmt.Errorf("row %d: payment_installments: %w", line, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(timestampLayout, strings.TrimSpace(s), time.UTC)
}

const suggestionMaxDistance = 3

// ScanQuality reports raw category labels that only resolve through the
// catch-all, with the nearest curated label as a likely-typo suggestion.
// Warnings only: normalization itself never fails.
func ScanQuality(rows []models.OrderLineRow, tax *taxonomy.Taxonomy) []string {
	counts := map[string]int{}
	for _, r := range rows {
		if !tax.IsMappedCategory(r.Category) {
			counts[r.Category]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	known := tax.KnownRawLabels()
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	warnings := make([]string, 0, len(labels))
	for _, label := range labels {
		w := fmt.Sprintf("unmapped category %q (%d rows), normalized to %q",
			label, counts[label], taxonomy.CategoryOther)
		if near, dist := nearest(label, known); dist >= 0 && dist <= suggestionMaxDistance {
			w += fmt.Sprintf("; did you mean %q?", near)
		}
		warnings = append(warnings, w)
	}
	return warnings
}

func nearest(label string, known []string) (string, int) {
	best, bestDist := "", -1
	for _, k := range known {
		d := levenshtein.ComputeDistance(label, k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, bestDist
}
