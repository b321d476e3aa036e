package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bgdnvk/tokenspend/internal/awsx"
)

var (
	metricsStart  string
	metricsEnd    string
	metricsFormat string
)

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVar(&metricsStart, "start", "", "Start time YYYY-MM-DD (default: 24h ago)")
	metricsCmd.Flags().StringVar(&metricsEnd, "end", "", "End time YYYY-MM-DD (default: now)")
	metricsCmd.Flags().StringVar(&metricsFormat, "format", "table", "Output format: table, json, yaml")
}

// metricsCmd shows near-real-time token counters from CloudWatch.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show Bedrock token counts from CloudWatch",
	Long: `Show input/output token counts and invocations per model from the
AWS/Bedrock CloudWatch namespace. CUR data lags by about a day; these
counters are near-real-time.

Examples:
  tokenspend metrics
  tokenspend metrics --start 2024-05-01 --end 2024-05-31
  tokenspend metrics --format json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		debug := viper.GetBool("debug")

		start, end, err := metricsRange()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid time range: %v\n", err)
			os.Exit(1)
		}

		client, err := awsx.NewClient(ctx, awsProfile(), viper.GetString("aws.region"), debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating AWS client: %v\n", err)
			os.Exit(1)
		}

		models, err := client.TokenMetrics(ctx, start, end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching token metrics: %v\n", err)
			os.Exit(1)
		}

		switch metricsFormat {
		case "json":
			out, err := json.MarshalIndent(models, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
		case "yaml":
			out, err := yaml.Marshal(models)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(out))
		default:
			if len(models) == 0 {
				fmt.Println("No Bedrock invocations in the selected range")
				return
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tINPUT TOKENS\tOUTPUT TOKENS\tINVOCATIONS")
			fmt.Fprintln(w, "-----\t------------\t-------------\t-----------")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\n", m.ModelID, m.InputTokens, m.OutputTokens, m.Invocations)
			}
			w.Flush()
		}
	},
}

func metricsRange() (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)

	if metricsStart != "" {
		parsed, err := time.Parse("2006-01-02", metricsStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
		}
		start = parsed
	}
	if metricsEnd != "" {
		parsed, err := time.Parse("2006-01-02", metricsEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
		end = parsed.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before end %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}
