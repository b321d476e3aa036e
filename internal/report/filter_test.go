package report

import (
	"testing"

	"github.com/bgdnvk/tokenspend/internal/cur"
)

func TestMatchesTokenUsage(t *testing.T) {
	tests := []struct {
		name string
		item cur.LineItem
		want bool
	}{
		{
			name: "native input token line",
			item: cur.LineItem{ProductCode: "AmazonBedrock", UsageType: "USW2-InputTokenCount"},
			want: true,
		},
		{
			name: "lowercase token usage type",
			item: cur.LineItem{ProductCode: "AmazonBedrock", UsageType: "USW2-input-tokens"},
			want: true,
		},
		{
			name: "marketplace counter with capital Token",
			item: cur.LineItem{ProductCode: "AmazonBedrockMarketplace", UsageType: "USW2-MP:USW2_InputTokenCount-Units"},
			want: true,
		},
		{
			name: "bedrock only in product name",
			item: cur.LineItem{ProductCode: "AWSMarketplace", ProductName: "Claude (Amazon Bedrock Edition)", UsageType: "OutputTokens"},
			want: true,
		},
		{
			name: "non-bedrock product excluded",
			item: cur.LineItem{ProductCode: "AmazonEC2", ProductName: "Amazon Elastic Compute Cloud", UsageType: "USW2-InputTokenCount"},
			want: false,
		},
		{
			name: "bedrock match is case-sensitive",
			item: cur.LineItem{ProductCode: "AMAZONBEDROCK", ProductName: "amazon bedrock", UsageType: "OutputTokens"},
			want: false,
		},
		{
			name: "non-token usage type excluded",
			item: cur.LineItem{ProductCode: "AmazonBedrock", UsageType: "USW2-ModelUnits"},
			want: false,
		},
		{
			name: "uppercase TOKEN does not match",
			item: cur.LineItem{ProductCode: "AmazonBedrock", UsageType: "USW2-TOKEN-COUNT"},
			want: false,
		},
		{
			name: "empty line item",
			item: cur.LineItem{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesTokenUsage(tt.item); got != tt.want {
				t.Errorf("MatchesTokenUsage(%+v) = %v, want %v", tt.item, got, tt.want)
			}
		})
	}
}

func TestFilterTokenUsage(t *testing.T) {
	items := []cur.LineItem{
		{ProductCode: "AmazonBedrock", UsageType: "USW2-InputTokenCount"},
		{ProductCode: "AmazonEC2", UsageType: "BoxUsage:t3.micro"},
		{ProductCode: "AmazonBedrock", UsageType: "OutputTokens"},
		{ProductCode: "AmazonBedrock", UsageType: "ModelUnits"},
	}

	got := FilterTokenUsage(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 matching items, got %d", len(got))
	}
	if got[0].UsageType != "USW2-InputTokenCount" || got[1].UsageType != "OutputTokens" {
		t.Errorf("filter did not preserve input order: %+v", got)
	}
}
