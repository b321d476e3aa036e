// Package store keeps ingested CUR line items in a local SQLite table so the
// token-usage reports can run without network access.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/bgdnvk/tokenspend/internal/cur"
	"github.com/bgdnvk/tokenspend/internal/report"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS line_items (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	billing_period TEXT NOT NULL,
	usage_type     TEXT NOT NULL,
	product_code   TEXT NOT NULL,
	product_name   TEXT NOT NULL DEFAULT '',
	operation      TEXT NOT NULL DEFAULT '',
	usage_amount   REAL NOT NULL,
	unblended_cost REAL NOT NULL,
	resource_id    TEXT NOT NULL DEFAULT '',
	department     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_line_items_period ON line_items (billing_period);
`

// SQLite LIKE is case-insensitive for ASCII, which would collapse the
// deliberate token/Token distinction, so the contains checks use instr().
const tokenUsageFilter = `
	(instr(product_code, 'Bedrock') > 0 OR instr(product_name, 'Bedrock') > 0)
	AND (instr(usage_type, 'token') > 0 OR instr(usage_type, 'Token') > 0)`

// monthExpr derives the month from the "YYYY-MM" billing period.
const monthExpr = `substr(billing_period, instr(billing_period, '-') + 1)`

// Store is a SQLite-backed line-item table.
type Store struct {
	db    *sql.DB
	debug bool
}

// Open opens (and if needed creates) the store at path. Use ":memory:" for
// an ephemeral store.
func Open(path string, debug bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	return &Store{db: db, debug: debug}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements report.Source.
func (s *Store) Name() string {
	return "store"
}

// ReplacePeriod replaces all line items for a billing period in a single
// transaction. CUR assemblies supersede earlier exports for the same period,
// so repeated ingests stay idempotent.
func (s *Store) ReplacePeriod(ctx context.Context, period string, items []cur.LineItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE billing_period = ?`, period); err != nil {
		return fmt.Errorf("failed to clear period %s: %w", period, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO line_items (
			billing_period, usage_type, product_code, product_name,
			operation, usage_amount, unblended_cost, resource_id, department
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, li := range items {
		if li.BillingPeriod != period {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			li.BillingPeriod, li.UsageType, li.ProductCode, li.ProductName,
			li.Operation, li.UsageAmount, li.UnblendedCost, li.ResourceID, li.Department,
		); err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingest: %w", err)
	}

	if s.debug {
		log.Printf("[store] replaced period %s with %d line items", period, inserted)
	}
	return nil
}

// TokenUsage implements report.Source: the Bedrock token-usage filter and
// projection, optionally narrowed to one month.
func (s *Store) TokenUsage(ctx context.Context, month string) ([]report.UsageRow, error) {
	query := `
		SELECT billing_period, usage_type, product_code, product_name,
		       operation, usage_amount, unblended_cost, resource_id, department
		FROM line_items
		WHERE ` + tokenUsageFilter
	var args []interface{}
	if month != "" {
		query += ` AND ` + monthExpr + ` = ?`
		args = append(args, month)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query token usage: %w", err)
	}
	defer rows.Close()

	var out []report.UsageRow
	for rows.Next() {
		var r report.UsageRow
		if err := rows.Scan(
			&r.BillingPeriod, &r.UsageType, &r.ProductCode, &r.ProductName,
			&r.Operation, &r.UsageAmount, &r.UnblendedCost, &r.ResourceID, &r.Department,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage rows: %w", err)
	}
	return out, nil
}

// DepartmentSpend implements report.Source: spend and usage grouped by the
// exact department tag value for one month. Untagged rows (stored as the
// empty string) aggregate into a single group.
func (s *Store) DepartmentSpend(ctx context.Context, month string) ([]report.DepartmentSpend, error) {
	query := `
		SELECT department,
		       SUM(unblended_cost) AS total_spend,
		       SUM(usage_amount)   AS total_tokens,
		       COUNT(*)            AS line_items
		FROM line_items
		WHERE ` + tokenUsageFilter + `
		  AND ` + monthExpr + ` = ?
		GROUP BY department
		ORDER BY total_spend DESC, department ASC`

	rows, err := s.db.QueryContext(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query department spend: %w", err)
	}
	defer rows.Close()

	var out []report.DepartmentSpend
	for rows.Next() {
		var d report.DepartmentSpend
		if err := rows.Scan(&d.Department, &d.TotalSpend, &d.TotalTokens, &d.LineItems); err != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read department rows: %w", err)
	}
	return out, nil
}

// Periods lists the billing periods currently held in the store.
func (s *Store) Periods(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT billing_period FROM line_items ORDER BY billing_period`)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}
