package report

import "context"

// Source produces Bedrock token-usage data. Implementations exist for the
// local line-item store, raw CUR files, and the Cost Explorer API.
type Source interface {
	// Name returns the source identifier (store, cur, explorer).
	Name() string

	// TokenUsage returns the filtered, projected line items. month is a
	// two-digit month literal; empty means all months.
	TokenUsage(ctx context.Context, month string) ([]UsageRow, error)

	// DepartmentSpend returns spend and usage grouped by department tag for
	// the given month literal.
	DepartmentSpend(ctx context.Context, month string) ([]DepartmentSpend, error)
}
