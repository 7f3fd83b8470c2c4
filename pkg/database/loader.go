package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"client-features/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

var identRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open accepts a mariadb:// or mysql:// URL, or a native MySQL driver DSN.
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// LoadOrderLines reads the whole denormalized order-line table. Timestamps
// are expected as DATETIME in UTC (parseTime is set by Open); the delivery
// timestamp and the installments column may be NULL.
func LoadOrderLines(ctx context.Context, db *sql.DB, tableName string) ([]models.OrderLineRow, error) {
	if !identRe.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}

	q := fmt.Sprintf(`
		SELECT
			order_id,
			customer_unique_id,
			order_item_id,
			product_category_name,
			price,
			freight_value,
			payment_sequential,
			payment_type,
			payment_value,
			COALESCE(payment_installments, 0),
			order_status,
			order_purchase_timestamp,
			order_delivered_customer_date,
			review_score
		FROM %s
	`, tableName)

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	var out []models.OrderLineRow
	for rows.Next() {
		var (
			r         models.OrderLineRow
			category  sql.NullString
			delivered sql.NullTime
			review    sql.NullFloat64
		)
		if err := rows.Scan(
			&r.OrderID, &r.CustomerID, &r.ItemID, &category,
			&r.Price, &r.FreightValue,
			&r.PaymentSequential, &r.PaymentType, &r.PaymentValue, &r.PaymentInstallments,
			&r.Status, &r.PurchaseTime, &delivered, &review,
		); err != nil {
			return out, fmt.Errorf("scan order line: %w", err)
		}
		if category.Valid {
			r.Category = category.String
		}
		if delivered.Valid {
			t := delivered.Time
			r.DeliveryTime = &t
		}
		if review.Valid {
			r.ReviewScore = review.Float64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	return out, nil
}
