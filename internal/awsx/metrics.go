package awsx

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const bedrockNamespace = "AWS/Bedrock"

// ModelTokenMetrics is the CloudWatch view of token consumption for one
// model. CUR data lags by about a day; these counters are near-real-time.
type ModelTokenMetrics struct {
	ModelID      string  `json:"modelId" yaml:"modelId"`
	InputTokens  float64 `json:"inputTokens" yaml:"inputTokens"`
	OutputTokens float64 `json:"outputTokens" yaml:"outputTokens"`
	Invocations  float64 `json:"invocations" yaml:"invocations"`
}

// TokenMetrics sums Bedrock token counters per model over [start, end).
func (c *Client) TokenMetrics(ctx context.Context, start, end time.Time) ([]ModelTokenMetrics, error) {
	models, err := c.bedrockModelIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}

	// One GetMetricData call covers all models; ids are m<i>{in,out,inv}.
	var queries []types.MetricDataQuery
	for i, modelID := range models {
		for _, m := range []struct {
			suffix string
			metric string
		}{
			{"in", "InputTokenCount"},
			{"out", "OutputTokenCount"},
			{"inv", "Invocations"},
		} {
			queries = append(queries, types.MetricDataQuery{
				Id: aws.String(fmt.Sprintf("m%d%s", i, m.suffix)),
				MetricStat: &types.MetricStat{
					Metric: &types.Metric{
						Namespace:  aws.String(bedrockNamespace),
						MetricName: aws.String(m.metric),
						Dimensions: []types.Dimension{
							{Name: aws.String("ModelId"), Value: aws.String(modelID)},
						},
					},
					Period: aws.Int32(3600),
					Stat:   aws.String("Sum"),
				},
			})
		}
	}

	sums := map[string]float64{}
	paginator := cloudwatch.NewGetMetricDataPaginator(c.cloudwatch, &cloudwatch.GetMetricDataInput{
		StartTime:         aws.Time(start),
		EndTime:           aws.Time(end),
		MetricDataQueries: queries,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Bedrock metric data: %w", err)
		}
		for _, result := range page.MetricDataResults {
			id := aws.ToString(result.Id)
			for _, v := range result.Values {
				sums[id] += v
			}
		}
	}

	out := make([]ModelTokenMetrics, 0, len(models))
	for i, modelID := range models {
		m := ModelTokenMetrics{
			ModelID:      modelID,
			InputTokens:  sums[fmt.Sprintf("m%din", i)],
			OutputTokens: sums[fmt.Sprintf("m%dout", i)],
			Invocations:  sums[fmt.Sprintf("m%dinv", i)],
		}
		if m.InputTokens == 0 && m.OutputTokens == 0 && m.Invocations == 0 {
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		ti := out[i].InputTokens + out[i].OutputTokens
		tj := out[j].InputTokens + out[j].OutputTokens
		if ti != tj {
			return ti > tj
		}
		return out[i].ModelID < out[j].ModelID
	})
	return out, nil
}

// bedrockModelIDs discovers the ModelId dimension values that have reported
// invocation metrics.
func (c *Client) bedrockModelIDs(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	paginator := cloudwatch.NewListMetricsPaginator(c.cloudwatch, &cloudwatch.ListMetricsInput{
		Namespace:  aws.String(bedrockNamespace),
		MetricName: aws.String("Invocations"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Bedrock metrics: %w", err)
		}
		for _, metric := range page.Metrics {
			for _, dim := range metric.Dimensions {
				if aws.ToString(dim.Name) == "ModelId" {
					seen[aws.ToString(dim.Value)] = struct{}{}
				}
			}
		}
	}

	models := make([]string, 0, len(seen))
	for m := range seen {
		models = append(models, m)
	}
	sort.Strings(models)
	return models, nil
}
