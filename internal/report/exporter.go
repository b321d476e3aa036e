package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Exporter writes reports to files.
type Exporter struct{}

// NewExporter creates a new exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportToFile exports a report to a file in the given format (csv, json,
// yaml).
func (e *Exporter) ExportToFile(data interface{}, format, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var content []byte
	var err error

	switch format {
	case "json":
		content, err = json.MarshalIndent(data, "", "  ")
	case "yaml":
		content, err = yaml.Marshal(data)
	case "csv":
		content, err = e.toCSV(data)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (e *Exporter) toCSV(data interface{}) ([]byte, error) {
	switch v := data.(type) {
	case *UsageReport:
		return e.usageToCSV(v)
	case *DepartmentReport:
		return e.departmentsToCSV(v)
	default:
		return nil, fmt.Errorf("unsupported data type for CSV export")
	}
}

func (e *Exporter) usageToCSV(rep *UsageReport) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"Billing Period", "Usage Type", "Product Code", "Product Name", "Operation", "Usage Amount", "Unblended Cost", "Resource ID", "Department"})

	for _, row := range rep.Rows {
		w.Write([]string{
			row.BillingPeriod,
			row.UsageType,
			row.ProductCode,
			row.ProductName,
			row.Operation,
			fmt.Sprintf("%f", row.UsageAmount),
			fmt.Sprintf("%f", row.UnblendedCost),
			row.ResourceID,
			row.Department,
		})
	}

	// Totals row
	w.Write([]string{
		"TOTAL", "", "", "", "",
		fmt.Sprintf("%f", rep.TotalUsage),
		fmt.Sprintf("%f", rep.TotalCost),
		"", "",
	})

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return []byte(sb.String()), nil
}

func (e *Exporter) departmentsToCSV(rep *DepartmentReport) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"Department", "Total Spend", "Total Tokens", "Line Items"})

	for _, d := range rep.Departments {
		w.Write([]string{
			d.Department,
			fmt.Sprintf("%f", d.TotalSpend),
			fmt.Sprintf("%f", d.TotalTokens),
			fmt.Sprintf("%d", d.LineItems),
		})
	}

	w.Write([]string{
		"TOTAL",
		fmt.Sprintf("%f", rep.TotalSpend),
		"", "",
	})

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return []byte(sb.String()), nil
}

// GenerateFilename generates a timestamped filename for export.
func (e *Exporter) GenerateFilename(prefix, format string) string {
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%s-%s.%s", prefix, timestamp, format)
}
