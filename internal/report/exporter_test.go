package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportUsageCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.csv")

	e := NewExporter()
	if err := e.ExportToFile(sampleUsageReport(), "csv", path); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}

	// header + 2 rows + totals
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	if records[0][0] != "Billing Period" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][1] != "USW2-InputTokenCount" || records[1][8] != "eng" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	total := records[len(records)-1]
	if total[0] != "TOTAL" || !strings.HasPrefix(total[6], "15.") {
		t.Errorf("unexpected totals row: %v", total)
	}
}

func TestExportDepartmentsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "departments.csv")
	rep := &DepartmentReport{
		Month: "05",
		Departments: []DepartmentSpend{
			{Department: "eng", TotalSpend: 15, TotalTokens: 1500, LineItems: 2},
		},
		TotalSpend: 15,
	}

	e := NewExporter()
	if err := e.ExportToFile(rep, "csv", path); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export directory was not created: %v", err)
	}
	if !strings.Contains(string(data), "eng,15.0") {
		t.Errorf("unexpected CSV content:\n%s", data)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	e := NewExporter()
	err := e.ExportToFile(sampleUsageReport(), "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestGenerateFilename(t *testing.T) {
	name := NewExporter().GenerateFilename("bedrock-usage", "json")
	if !strings.HasPrefix(name, "bedrock-usage-") || !strings.HasSuffix(name, ".json") {
		t.Errorf("unexpected filename: %s", name)
	}
}
