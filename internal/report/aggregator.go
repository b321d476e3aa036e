package report

import (
	"sort"

	"github.com/bgdnvk/tokenspend/internal/cur"
)

// Project converts filtered line items into usage rows. month narrows the
// result to rows whose derived month equals the literal; empty keeps all.
func Project(items []cur.LineItem, month string) []UsageRow {
	var rows []UsageRow
	for _, li := range items {
		if !MatchesTokenUsage(li) {
			continue
		}
		if month != "" && li.Month() != month {
			continue
		}
		rows = append(rows, UsageRow{
			BillingPeriod: li.BillingPeriod,
			UsageType:     li.UsageType,
			ProductCode:   li.ProductCode,
			ProductName:   li.ProductName,
			Operation:     li.Operation,
			UsageAmount:   li.UsageAmount,
			UnblendedCost: li.UnblendedCost,
			ResourceID:    li.ResourceID,
			Department:    li.Department,
		})
	}
	return rows
}

// GroupByDepartment aggregates filtered line items for the given month
// literal by exact department tag value. Untagged rows form a single group
// keyed by the empty string. Groups are returned sorted by spend descending,
// ties broken by department name.
func GroupByDepartment(items []cur.LineItem, month string) []DepartmentSpend {
	groups := map[string]*DepartmentSpend{}
	for _, li := range items {
		if !MatchesTokenUsage(li) {
			continue
		}
		if li.Month() != month {
			continue
		}
		g, ok := groups[li.Department]
		if !ok {
			g = &DepartmentSpend{Department: li.Department}
			groups[li.Department] = g
		}
		g.TotalSpend += li.UnblendedCost
		g.TotalTokens += li.UsageAmount
		g.LineItems++
	}

	out := make([]DepartmentSpend, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSpend != out[j].TotalSpend {
			return out[i].TotalSpend > out[j].TotalSpend
		}
		return out[i].Department < out[j].Department
	})
	return out
}

// Totals sums cost and usage across usage rows.
func Totals(rows []UsageRow) (cost, usage float64) {
	for _, r := range rows {
		cost += r.UnblendedCost
		usage += r.UsageAmount
	}
	return cost, usage
}

// SortRowsByCost orders usage rows by unblended cost descending. The
// underlying queries guarantee no ordering, so the CLI sorts for display.
func SortRowsByCost(rows []UsageRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UnblendedCost != rows[j].UnblendedCost {
			return rows[i].UnblendedCost > rows[j].UnblendedCost
		}
		return rows[i].UsageType < rows[j].UsageType
	})
}
