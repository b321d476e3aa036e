package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bgdnvk/tokenspend/internal/awsx"
	"github.com/bgdnvk/tokenspend/internal/cur"
	"github.com/bgdnvk/tokenspend/internal/explorer"
	"github.com/bgdnvk/tokenspend/internal/report"
	"github.com/bgdnvk/tokenspend/internal/store"
)

var (
	reportSource string
	reportMonth  string
	reportYear   int
	reportFormat string
	reportTop    int
	reportOutput string
	reportKind   string
	reportStore  string
)

func init() {
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(departmentsCmd)
	rootCmd.AddCommand(exportCmd)

	for _, cmd := range []*cobra.Command{usageCmd, departmentsCmd, exportCmd} {
		cmd.Flags().StringVar(&reportSource, "source", "store", "Data source: store, cur, explorer")
		cmd.Flags().StringVar(&reportMonth, "month", "", "Month literal MM, e.g. 05")
		cmd.Flags().IntVar(&reportYear, "year", 0, "Calendar year anchoring --month for the explorer source (default: current)")
		cmd.Flags().StringVar(&reportStore, "store", "", "Path to the line-item store (default: $HOME/.tokenspend.db)")
	}

	usageCmd.Flags().StringVar(&reportFormat, "format", "table", "Output format: table, json, yaml")
	usageCmd.Flags().IntVar(&reportTop, "top", 0, "Limit table rows (0 = all)")
	departmentsCmd.Flags().StringVar(&reportFormat, "format", "table", "Output format: table, json, yaml")
	departmentsCmd.MarkFlagRequired("month")

	exportCmd.Flags().StringVar(&reportOutput, "output", "", "Output file path (required)")
	exportCmd.Flags().StringVar(&reportKind, "report", "usage", "Which report to export: usage, departments")
	exportCmd.Flags().StringVar(&reportFormat, "format", "", "Export format: csv, json, yaml (default: from file extension)")
	exportCmd.MarkFlagRequired("output")
}

// usageCmd lists Bedrock token-usage line items.
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "List Bedrock token-usage line items",
	Long: `List billing line items for Bedrock token usage: usage type,
operation, token amounts, unblended cost, resource, and department tag.

Examples:
  tokenspend usage
  tokenspend usage --month 05
  tokenspend usage --source explorer --format json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		rep, err := buildUsageReport(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building usage report: %v\n", err)
			os.Exit(1)
		}

		formatter := report.NewFormatter(reportFormat, true)
		output, err := formatter.FormatUsage(rep, reportTop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		formatter.Print(output)
	},
}

// departmentsCmd aggregates spend and tokens by department tag.
var departmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Aggregate Bedrock spend by department for a month",
	Long: `Group Bedrock token spend by the department cost-allocation tag
for one month. Untagged usage rolls up into a single group.

Examples:
  tokenspend departments --month 05
  tokenspend departments --month 05 --source explorer --year 2024
  tokenspend departments --month 05 --format yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		rep, err := buildDepartmentReport(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building department report: %v\n", err)
			os.Exit(1)
		}

		formatter := report.NewFormatter(reportFormat, true)
		output, err := formatter.FormatDepartments(rep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
			os.Exit(1)
		}
		formatter.Print(output)
	},
}

// exportCmd writes a report to a file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a report to a file",
	Long: `Export the usage or department report to CSV, JSON, or YAML.

Examples:
  tokenspend export --output usage.csv
  tokenspend export --report departments --month 05 --output spend.json
  tokenspend export --output usage.yaml --format yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		format := reportFormat
		if format == "" {
			switch {
			case strings.HasSuffix(reportOutput, ".json"):
				format = "json"
			case strings.HasSuffix(reportOutput, ".yaml"), strings.HasSuffix(reportOutput, ".yml"):
				format = "yaml"
			default:
				format = "csv"
			}
		}

		var data interface{}
		switch reportKind {
		case "usage":
			rep, err := buildUsageReport(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error building usage report: %v\n", err)
				os.Exit(1)
			}
			data = rep
		case "departments":
			if reportMonth == "" {
				fmt.Fprintln(os.Stderr, "--month is required for the departments report")
				os.Exit(1)
			}
			rep, err := buildDepartmentReport(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error building department report: %v\n", err)
				os.Exit(1)
			}
			data = rep
		default:
			fmt.Fprintf(os.Stderr, "Unknown report kind: %s\n", reportKind)
			os.Exit(1)
		}

		exporter := report.NewExporter()
		if err := exporter.ExportToFile(data, format, reportOutput); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting data: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Report exported to: %s\n", reportOutput)
	},
}

// Helper functions

func buildUsageReport(ctx context.Context) (*report.UsageReport, error) {
	src, account, cleanup, err := openSource(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rows, err := src.TokenUsage(ctx, normalizeMonth(reportMonth))
	if err != nil {
		return nil, err
	}
	report.SortRowsByCost(rows)
	totalCost, totalUsage := report.Totals(rows)

	return &report.UsageReport{
		Account:     account,
		Source:      src.Name(),
		Month:       normalizeMonth(reportMonth),
		Rows:        rows,
		TotalCost:   totalCost,
		TotalUsage:  totalUsage,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func buildDepartmentReport(ctx context.Context) (*report.DepartmentReport, error) {
	src, account, cleanup, err := openSource(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	month := normalizeMonth(reportMonth)
	departments, err := src.DepartmentSpend(ctx, month)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, d := range departments {
		total += d.TotalSpend
	}

	return &report.DepartmentReport{
		Account:     account,
		Source:      src.Name(),
		Month:       month,
		Departments: departments,
		TotalSpend:  total,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// openSource builds the requested report source. The returned cleanup is
// always safe to defer. The account is best-effort: local store queries work
// without AWS credentials and then carry no account stamp.
func openSource(ctx context.Context) (report.Source, string, func(), error) {
	debug := viper.GetBool("debug")
	tagKey := viper.GetString("tag_key")
	noop := func() {}

	switch reportSource {
	case "store":
		path := reportStore
		if path == "" {
			path = viper.GetString("store.path")
		}
		st, err := store.Open(path, debug)
		if err != nil {
			return nil, "", noop, err
		}
		return st, "", func() { st.Close() }, nil

	case "explorer":
		client, err := awsx.NewClient(ctx, awsProfile(), viper.GetString("aws.region"), debug)
		if err != nil {
			return nil, "", noop, err
		}
		account := resolveAccount(ctx, client, debug)
		provider := explorer.NewProvider(costexplorer.NewFromConfig(client.Config()), reportYear, tagKey, debug)
		return provider, account, noop, nil

	case "cur":
		client, err := awsx.NewClient(ctx, awsProfile(), viper.GetString("aws.region"), debug)
		if err != nil {
			return nil, "", noop, err
		}
		account := resolveAccount(ctx, client, debug)
		items, err := fetchCURLineItems(ctx, client, tagKey, debug)
		if err != nil {
			return nil, "", noop, err
		}
		return report.NewItemSource("cur", items), account, noop, nil

	default:
		return nil, "", noop, fmt.Errorf("unknown source: %s (want store, cur, or explorer)", reportSource)
	}
}

// fetchCURLineItems pulls the latest report files straight from S3 without
// going through the local store.
func fetchCURLineItems(ctx context.Context, client *awsx.Client, tagKey string, debug bool) ([]cur.LineItem, error) {
	bucket := viper.GetString("cur.bucket")
	prefix := viper.GetString("cur.prefix")
	if bucket == "" {
		return nil, fmt.Errorf("cur.bucket is not configured (set it in the config file or run ingest with --bucket)")
	}

	retriever := cur.NewManifestRetriever(client.S3(), bucket, prefix, debug)
	manifests, err := retriever.RetrieveManifests(ctx)
	if err != nil {
		return nil, err
	}

	reader := cur.NewReportReader(tagKey, debug)
	var items []cur.LineItem
	for _, manifest := range manifests {
		for _, key := range manifest.ReportKeys {
			body, err := retriever.OpenReport(ctx, key)
			if err != nil {
				return nil, err
			}
			parsed, err := reader.Read(body, key)
			body.Close()
			if err != nil {
				return nil, err
			}
			items = append(items, parsed...)
		}
	}
	return items, nil
}

func resolveAccount(ctx context.Context, client *awsx.Client, debug bool) string {
	account, err := client.Account(ctx)
	if err != nil {
		if debug {
			fmt.Fprintf(os.Stderr, "[tokenspend] could not resolve account: %v\n", err)
		}
		return ""
	}
	return account
}

// normalizeMonth zero-pads a single-digit month so "5" matches the "05"
// stored in billing periods. Anything longer passes through untouched.
func normalizeMonth(month string) string {
	if len(month) == 1 && month >= "1" && month <= "9" {
		return "0" + month
	}
	return month
}
