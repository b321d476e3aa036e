package report

import (
	"context"

	"github.com/bgdnvk/tokenspend/internal/cur"
)

// ItemSource serves reports straight from line items held in memory, e.g.
// freshly parsed CUR files that were never ingested into the store.
type ItemSource struct {
	name  string
	items []cur.LineItem
}

// NewItemSource wraps parsed line items as a report source.
func NewItemSource(name string, items []cur.LineItem) *ItemSource {
	return &ItemSource{name: name, items: items}
}

func (s *ItemSource) Name() string {
	return s.name
}

func (s *ItemSource) TokenUsage(_ context.Context, month string) ([]UsageRow, error) {
	return Project(s.items, month), nil
}

func (s *ItemSource) DepartmentSpend(_ context.Context, month string) ([]DepartmentSpend, error) {
	return GroupByDepartment(s.items, month), nil
}
