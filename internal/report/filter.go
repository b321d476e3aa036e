package report

import (
	"strings"

	"github.com/bgdnvk/tokenspend/internal/cur"
)

// BedrockService is the substring that identifies Bedrock line items in
// either the product code ("AmazonBedrock") or the looked-up product name
// ("Amazon Bedrock"). Matching is case-sensitive.
const BedrockService = "Bedrock"

// MatchesTokenUsage reports whether a line item is a Bedrock token-usage
// charge. The usage type is checked for both "token" and "Token": matching
// is case-sensitive and marketplace-reported counters capitalize the word
// (e.g. "USW2-MP:USW2_InputTokenCount-Units") while native ones do not
// always (e.g. "OutputTokens" vs "USW2-input-tokens").
func MatchesTokenUsage(li cur.LineItem) bool {
	if !strings.Contains(li.ProductCode, BedrockService) &&
		!strings.Contains(li.ProductName, BedrockService) {
		return false
	}
	return strings.Contains(li.UsageType, "token") ||
		strings.Contains(li.UsageType, "Token")
}

// FilterTokenUsage returns the line items matching MatchesTokenUsage,
// preserving input order.
func FilterTokenUsage(items []cur.LineItem) []cur.LineItem {
	var out []cur.LineItem
	for _, li := range items {
		if MatchesTokenUsage(li) {
			out = append(out, li)
		}
	}
	return out
}
