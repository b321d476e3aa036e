package report

import (
	"encoding/json"
	"strings"
	"testing"
)

func sampleUsageReport() *UsageReport {
	return &UsageReport{
		Account: "123456789012",
		Source:  "store",
		Month:   "05",
		Rows: []UsageRow{
			{
				BillingPeriod: "2024-05",
				UsageType:     "USW2-InputTokenCount",
				ProductCode:   "AmazonBedrock",
				Operation:     "InvokeModel",
				Department:    "eng",
				UsageAmount:   1500000,
				UnblendedCost: 12.5,
			},
			{
				BillingPeriod: "2024-05",
				UsageType:     "USW2-OutputTokenCount",
				ProductCode:   "AmazonBedrock",
				Operation:     "InvokeModel",
				UsageAmount:   250000,
				UnblendedCost: 2.5,
			},
		},
		TotalCost:  15,
		TotalUsage: 1750000,
	}
}

func TestFormatUsageTable(t *testing.T) {
	f := NewFormatter("table", false)
	out, err := f.FormatUsage(sampleUsageReport(), 0)
	if err != nil {
		t.Fatalf("FormatUsage failed: %v", err)
	}

	for _, want := range []string{
		"Bedrock Token Usage",
		"Account: 123456789012",
		"Source: store",
		"USW2-InputTokenCount",
		"1,500,000",
		"(untagged)",
		"Total: $15.0000 across 1,750,000 tokens",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("non-color output contains ANSI escapes")
	}
}

func TestFormatUsageTop(t *testing.T) {
	f := NewFormatter("table", false)
	out, err := f.FormatUsage(sampleUsageReport(), 1)
	if err != nil {
		t.Fatalf("FormatUsage failed: %v", err)
	}
	if strings.Contains(out, "USW2-OutputTokenCount") {
		t.Errorf("top=1 should drop the second row:\n%s", out)
	}
}

func TestFormatUsageEmpty(t *testing.T) {
	f := NewFormatter("table", false)
	out, err := f.FormatUsage(&UsageReport{Source: "store"}, 0)
	if err != nil {
		t.Fatalf("FormatUsage failed: %v", err)
	}
	if !strings.Contains(out, "No Bedrock token usage found") {
		t.Errorf("missing empty message:\n%s", out)
	}
}

func TestFormatUsageJSON(t *testing.T) {
	f := NewFormatter("json", false)
	out, err := f.FormatUsage(sampleUsageReport(), 0)
	if err != nil {
		t.Fatalf("FormatUsage failed: %v", err)
	}

	var decoded UsageReport
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Rows) != 2 || decoded.TotalCost != 15 {
		t.Errorf("JSON round-trip mismatch: %+v", decoded)
	}
}

func TestFormatDepartmentsTable(t *testing.T) {
	rep := &DepartmentReport{
		Source: "store",
		Month:  "05",
		Departments: []DepartmentSpend{
			{Department: "eng", TotalSpend: 15, TotalTokens: 1500, LineItems: 2},
			{Department: "", TotalSpend: 2, TotalTokens: 200, LineItems: 1},
		},
		TotalSpend: 17,
	}

	f := NewFormatter("table", false)
	out, err := f.FormatDepartments(rep)
	if err != nil {
		t.Fatalf("FormatDepartments failed: %v", err)
	}

	for _, want := range []string{
		"Bedrock Spend by Department",
		"Month: 05",
		"eng",
		"(untagged)",
		"Total: $17.0000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDepartmentsYAML(t *testing.T) {
	f := NewFormatter("yaml", false)
	out, err := f.FormatDepartments(&DepartmentReport{
		Source:      "explorer",
		Month:       "05",
		Departments: []DepartmentSpend{{Department: "eng", TotalSpend: 15}},
		TotalSpend:  15,
	})
	if err != nil {
		t.Fatalf("FormatDepartments failed: %v", err)
	}
	if !strings.Contains(out, "department: eng") {
		t.Errorf("unexpected YAML output:\n%s", out)
	}
}
