package report

import "time"

// UsageRow is one projected Bedrock token-usage line item.
type UsageRow struct {
	BillingPeriod string  `json:"billingPeriod" yaml:"billingPeriod"`
	UsageType     string  `json:"usageType" yaml:"usageType"`
	ProductCode   string  `json:"productCode" yaml:"productCode"`
	ProductName   string  `json:"productName,omitempty" yaml:"productName,omitempty"`
	Operation     string  `json:"operation,omitempty" yaml:"operation,omitempty"`
	UsageAmount   float64 `json:"usageAmount" yaml:"usageAmount"`
	UnblendedCost float64 `json:"unblendedCost" yaml:"unblendedCost"`
	ResourceID    string  `json:"resourceId,omitempty" yaml:"resourceId,omitempty"`
	Department    string  `json:"department,omitempty" yaml:"department,omitempty"`
}

// UsageReport is the line-item view of Bedrock token spend.
type UsageReport struct {
	Account     string     `json:"account,omitempty" yaml:"account,omitempty"`
	Source      string     `json:"source" yaml:"source"`
	Month       string     `json:"month,omitempty" yaml:"month,omitempty"`
	Rows        []UsageRow `json:"rows" yaml:"rows"`
	TotalCost   float64    `json:"totalCost" yaml:"totalCost"`
	TotalUsage  float64    `json:"totalUsage" yaml:"totalUsage"`
	GeneratedAt time.Time  `json:"generatedAt" yaml:"generatedAt"`
}

// DepartmentSpend is the aggregate for one department cost-allocation tag
// value. Untagged line items all roll up into the group with an empty
// Department.
type DepartmentSpend struct {
	Department  string  `json:"department" yaml:"department"`
	TotalSpend  float64 `json:"totalSpend" yaml:"totalSpend"`
	TotalTokens float64 `json:"totalTokens" yaml:"totalTokens"`
	LineItems   int     `json:"lineItems" yaml:"lineItems"`
}

// DepartmentReport is the department aggregation for a single month.
type DepartmentReport struct {
	Account     string            `json:"account,omitempty" yaml:"account,omitempty"`
	Source      string            `json:"source" yaml:"source"`
	Month       string            `json:"month" yaml:"month"`
	Departments []DepartmentSpend `json:"departments" yaml:"departments"`
	TotalSpend  float64           `json:"totalSpend" yaml:"totalSpend"`
	GeneratedAt time.Time         `json:"generatedAt" yaml:"generatedAt"`
}
