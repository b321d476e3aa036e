package cur

import "strings"

// LineItem is a single row from a Cost and Usage Report export. Only the
// columns the token-usage reports consume are kept; everything else in the
// export is dropped at parse time.
type LineItem struct {
	BillingPeriod string  `json:"billingPeriod"` // YYYY-MM
	UsageType     string  `json:"usageType"`
	ProductCode   string  `json:"productCode"`
	ProductName   string  `json:"productName"`
	Operation     string  `json:"operation"`
	UsageAmount   float64 `json:"usageAmount"`
	UnblendedCost float64 `json:"unblendedCost"`
	ResourceID    string  `json:"resourceId"`
	Department    string  `json:"department"` // cost-allocation tag, empty when untagged
}

// Month returns the month component of the billing period, e.g. "05" for
// "2024-05". A malformed period without a "-" yields "" so the row can never
// satisfy a month filter.
func (li LineItem) Month() string {
	parts := strings.Split(li.BillingPeriod, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
