// Package explorer serves the token-usage reports from the Cost Explorer
// API instead of CUR data. Useful when no CUR export is configured, at the
// price of coarser rows (no operation, resource id, or per-line costs).
package explorer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/bgdnvk/tokenspend/internal/report"
)

const (
	bedrockServiceName = "Amazon Bedrock"
	bedrockProductCode = "AmazonBedrock"
)

// CostExplorerAPI is the subset of the Cost Explorer client the provider
// uses.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// Provider implements report.Source against the Cost Explorer API.
type Provider struct {
	client CostExplorerAPI
	year   int
	tagKey string
	debug  bool
}

// NewProvider creates a Cost Explorer source. year anchors bare month
// literals ("05") to a calendar year; zero means the current year. tagKey is
// the department cost-allocation tag key.
func NewProvider(client CostExplorerAPI, year int, tagKey string, debug bool) *Provider {
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	if tagKey == "" {
		tagKey = "department"
	}
	return &Provider{client: client, year: year, tagKey: tagKey, debug: debug}
}

// Name implements report.Source.
func (p *Provider) Name() string {
	return "explorer"
}

// TokenUsage implements report.Source. Cost Explorer has no substring
// matching on dimensions, so rows are fetched grouped by USAGE_TYPE for the
// Bedrock service and the token/Token filter is applied to the group keys.
func (p *Provider) TokenUsage(ctx context.Context, month string) ([]report.UsageRow, error) {
	start, end, err := p.timePeriod(month)
	if err != nil {
		return nil, err
	}

	if p.debug {
		log.Printf("[explorer] fetching Bedrock usage from %s to %s", start, end)
	}

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity: types.GranularityMonthly,
		Metrics:     []string{"UnblendedCost", "UsageQuantity"},
		Filter:      bedrockServiceFilter(),
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeDimension,
				Key:  aws.String("USAGE_TYPE"),
			},
		},
	}

	var rows []report.UsageRow
	for {
		result, err := p.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get Bedrock costs: %w", err)
		}

		for _, period := range result.ResultsByTime {
			billingPeriod := periodToBillingPeriod(period.TimePeriod)
			for _, group := range period.Groups {
				if len(group.Keys) == 0 {
					continue
				}
				usageType := group.Keys[0]
				if !isTokenUsageType(usageType) {
					continue
				}
				rows = append(rows, report.UsageRow{
					BillingPeriod: billingPeriod,
					UsageType:     usageType,
					ProductCode:   bedrockProductCode,
					ProductName:   bedrockServiceName,
					UsageAmount:   metricAmount(group.Metrics, "UsageQuantity"),
					UnblendedCost: metricAmount(group.Metrics, "UnblendedCost"),
				})
			}
		}

		if result.NextPageToken == nil {
			break
		}
		input.NextPageToken = result.NextPageToken
	}

	return rows, nil
}

// DepartmentSpend implements report.Source. The usage-type filter cannot be
// combined with a tag grouping in one request, so the matching usage types
// are resolved first and then fed into the grouped query as an exact-value
// filter.
func (p *Provider) DepartmentSpend(ctx context.Context, month string) ([]report.DepartmentSpend, error) {
	usageRows, err := p.TokenUsage(ctx, month)
	if err != nil {
		return nil, err
	}
	if len(usageRows) == 0 {
		return nil, nil
	}

	usageTypes := make([]string, 0, len(usageRows))
	seen := map[string]struct{}{}
	for _, r := range usageRows {
		if _, ok := seen[r.UsageType]; ok {
			continue
		}
		seen[r.UsageType] = struct{}{}
		usageTypes = append(usageTypes, r.UsageType)
	}
	sort.Strings(usageTypes)

	start, end, err := p.timePeriod(month)
	if err != nil {
		return nil, err
	}

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity: types.GranularityMonthly,
		Metrics:     []string{"UnblendedCost", "UsageQuantity"},
		Filter: &types.Expression{
			And: []types.Expression{
				*bedrockServiceFilter(),
				{
					Dimensions: &types.DimensionValues{
						Key:    types.DimensionUsageType,
						Values: usageTypes,
					},
				},
			},
		},
		GroupBy: []types.GroupDefinition{
			{
				Type: types.GroupDefinitionTypeTag,
				Key:  aws.String(p.tagKey),
			},
		},
	}

	groups := map[string]*report.DepartmentSpend{}
	for {
		result, err := p.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to get Bedrock costs by tag: %w", err)
		}

		for _, period := range result.ResultsByTime {
			for _, group := range period.Groups {
				if len(group.Keys) == 0 {
					continue
				}
				dept := tagValue(group.Keys[0])
				g, ok := groups[dept]
				if !ok {
					g = &report.DepartmentSpend{Department: dept}
					groups[dept] = g
				}
				g.TotalSpend += metricAmount(group.Metrics, "UnblendedCost")
				g.TotalTokens += metricAmount(group.Metrics, "UsageQuantity")
				g.LineItems++
			}
		}

		if result.NextPageToken == nil {
			break
		}
		input.NextPageToken = result.NextPageToken
	}

	out := make([]report.DepartmentSpend, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSpend != out[j].TotalSpend {
			return out[i].TotalSpend > out[j].TotalSpend
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}

// timePeriod maps a month literal to a Cost Explorer date interval within
// the provider's year. An empty month covers the whole year to date.
func (p *Provider) timePeriod(month string) (string, string, error) {
	if month == "" {
		start := time.Date(p.year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		if now := time.Now().UTC(); now.Before(end) {
			end = now.AddDate(0, 0, 1).Truncate(24 * time.Hour)
		}
		return start.Format("2006-01-02"), end.Format("2006-01-02"), nil
	}

	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", "", fmt.Errorf("invalid month literal %q", month)
	}
	start := time.Date(p.year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return start.Format("2006-01-02"), end.Format("2006-01-02"), nil
}

func bedrockServiceFilter() *types.Expression {
	return &types.Expression{
		Dimensions: &types.DimensionValues{
			Key:    types.DimensionService,
			Values: []string{bedrockServiceName},
		},
	}
}

// isTokenUsageType mirrors the CUR predicate's usage-type half.
func isTokenUsageType(usageType string) bool {
	return strings.Contains(usageType, "token") || strings.Contains(usageType, "Token")
}

func metricAmount(metrics map[string]types.MetricValue, name string) float64 {
	if metric, ok := metrics[name]; ok && metric.Amount != nil {
		amount, _ := strconv.ParseFloat(*metric.Amount, 64)
		return amount
	}
	return 0
}

// tagValue strips the "key$" prefix Cost Explorer puts on tag group keys.
// An absent tag comes back as just "key$", which maps to the untagged group.
func tagValue(key string) string {
	if i := strings.Index(key, "$"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// periodToBillingPeriod converts a result interval start to "YYYY-MM".
func periodToBillingPeriod(interval *types.DateInterval) string {
	if interval == nil || interval.Start == nil {
		return ""
	}
	t, err := time.Parse("2006-01-02", *interval.Start)
	if err != nil {
		return ""
	}
	return t.Format("2006-01")
}
