package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Colors for terminal output
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Formatter handles report output formatting.
type Formatter struct {
	format  string // table, json, yaml
	color   bool
	printer *message.Printer
}

// NewFormatter creates a new formatter.
func NewFormatter(format string, color bool) *Formatter {
	return &Formatter{
		format:  format,
		color:   color,
		printer: message.NewPrinter(language.English),
	}
}

// FormatUsage formats the line-item usage report.
func (f *Formatter) FormatUsage(rep *UsageReport, top int) (string, error) {
	switch f.format {
	case "json":
		return f.toJSON(rep)
	case "yaml":
		return f.toYAML(rep)
	}

	var sb strings.Builder

	sb.WriteString(f.header("Bedrock Token Usage"))
	if rep.Account != "" {
		sb.WriteString(fmt.Sprintf("Account: %s\n", rep.Account))
	}
	sb.WriteString(fmt.Sprintf("Source: %s\n", rep.Source))
	if rep.Month != "" {
		sb.WriteString(fmt.Sprintf("Month: %s\n", rep.Month))
	}
	sb.WriteString("\n")

	if len(rep.Rows) == 0 {
		sb.WriteString("No Bedrock token usage found\n")
		return sb.String(), nil
	}

	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tUSAGE TYPE\tOPERATION\tDEPARTMENT\tTOKENS\tCOST")
	fmt.Fprintln(w, "------\t----------\t---------\t----------\t------\t----")
	for i, row := range rep.Rows {
		if top > 0 && i >= top {
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t$%.4f\n",
			row.BillingPeriod,
			row.UsageType,
			row.Operation,
			f.department(row.Department),
			f.formatTokens(row.UsageAmount),
			row.UnblendedCost)
	}
	w.Flush()
	sb.WriteString("\n")

	sb.WriteString(f.bold(fmt.Sprintf("Total: %s across %s tokens\n",
		f.money(rep.TotalCost), f.formatTokens(rep.TotalUsage))))

	return sb.String(), nil
}

// FormatDepartments formats the per-department aggregation.
func (f *Formatter) FormatDepartments(rep *DepartmentReport) (string, error) {
	switch f.format {
	case "json":
		return f.toJSON(rep)
	case "yaml":
		return f.toYAML(rep)
	}

	var sb strings.Builder

	sb.WriteString(f.header("Bedrock Spend by Department"))
	if rep.Account != "" {
		sb.WriteString(fmt.Sprintf("Account: %s\n", rep.Account))
	}
	sb.WriteString(fmt.Sprintf("Source: %s\n", rep.Source))
	sb.WriteString(fmt.Sprintf("Month: %s\n", rep.Month))
	sb.WriteString("\n")

	if len(rep.Departments) == 0 {
		sb.WriteString("No Bedrock token usage found for this month\n")
		return sb.String(), nil
	}

	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPARTMENT\tSPEND\tTOKENS\tLINE ITEMS")
	fmt.Fprintln(w, "----------\t-----\t------\t----------")
	for _, d := range rep.Departments {
		fmt.Fprintf(w, "%s\t$%.4f\t%s\t%d\n",
			f.department(d.Department),
			d.TotalSpend,
			f.formatTokens(d.TotalTokens),
			d.LineItems)
	}
	w.Flush()
	sb.WriteString("\n")

	sb.WriteString(f.bold(fmt.Sprintf("Total: %s\n", f.money(rep.TotalSpend))))

	return sb.String(), nil
}

// Helper methods

func (f *Formatter) header(text string) string {
	if f.color {
		return fmt.Sprintf("\n%s%s=== %s ===%s\n\n", colorBold, colorCyan, text, colorReset)
	}
	return fmt.Sprintf("\n=== %s ===\n\n", text)
}

func (f *Formatter) bold(text string) string {
	if f.color {
		return fmt.Sprintf("%s%s%s", colorBold, text, colorReset)
	}
	return text
}

// department renders the empty tag group in a way that survives tabwriter.
func (f *Formatter) department(dept string) string {
	if dept == "" {
		if f.color {
			return fmt.Sprintf("%s(untagged)%s", colorYellow, colorReset)
		}
		return "(untagged)"
	}
	return dept
}

func (f *Formatter) money(amount float64) string {
	if f.color {
		return fmt.Sprintf("%s$%.4f%s", colorGreen, amount, colorReset)
	}
	return fmt.Sprintf("$%.4f", amount)
}

func (f *Formatter) formatTokens(tokens float64) string {
	return f.printer.Sprintf("%.0f", tokens)
}

func (f *Formatter) toJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(data), nil
}

func (f *Formatter) toYAML(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return string(data), nil
}

// Print outputs to stdout.
func (f *Formatter) Print(output string) {
	fmt.Fprint(os.Stdout, output)
}
