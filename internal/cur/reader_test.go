package cur

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"
)

const reportCSV = `identity/LineItemId,bill/BillingPeriodStartDate,lineItem/UsageType,lineItem/ProductCode,product/ProductName,lineItem/Operation,lineItem/UsageAmount,lineItem/UnblendedCost,lineItem/ResourceId,resourceTags/user:department
id1,2024-05-01T00:00:00Z,USW2-InputTokenCount,AmazonBedrock,Amazon Bedrock,InvokeModel,1000,0.003,arn:aws:bedrock:us-east-1:123456789012:inference-profile/abc,eng
id2,2024-05-01T00:00:00Z,OutputTokens,AmazonBedrock,Amazon Bedrock,InvokeModel,500,0.015,,
id3,2024-05-01T00:00:00Z,BoxUsage:t3.micro,AmazonEC2,Amazon Elastic Compute Cloud,RunInstances,24,0.25,i-abc123,eng
id4,bad-date,OutputTokens,AmazonBedrock,Amazon Bedrock,InvokeModel,1,1,,
id5,2024-05-01T00:00:00Z,OutputTokens,AmazonBedrock,Amazon Bedrock,InvokeModel,not-a-number,1,,
`

func TestReportReaderRead(t *testing.T) {
	reader := NewReportReader("department", false)

	items, err := reader.Read(strings.NewReader(reportCSV), "report.csv")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	// id4 and id5 are unparsable and skipped; id3 parses fine (filtering is
	// a query concern, not a parse concern).
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.BillingPeriod != "2024-05" {
		t.Errorf("unexpected billing period: %q", first.BillingPeriod)
	}
	if first.UsageType != "USW2-InputTokenCount" || first.ProductCode != "AmazonBedrock" {
		t.Errorf("unexpected first item: %+v", first)
	}
	if first.UsageAmount != 1000 || first.UnblendedCost != 0.003 {
		t.Errorf("numeric fields wrong: %+v", first)
	}
	if first.Department != "eng" {
		t.Errorf("department tag not mapped: %+v", first)
	}
	if items[1].Department != "" {
		t.Errorf("expected untagged second item, got %q", items[1].Department)
	}
}

func TestReportReaderGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(reportCSV)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	reader := NewReportReader("", false)
	items, err := reader.Read(&buf, "report.csv.gz")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items from gzip report, got %d", len(items))
	}
}

func TestReportReaderMissingColumns(t *testing.T) {
	reader := NewReportReader("department", false)
	_, err := reader.Read(strings.NewReader("a,b,c\n1,2,3\n"), "report.csv")
	if err == nil {
		t.Fatal("expected error for report without required columns")
	}
	if !strings.Contains(err.Error(), "missing required column") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReportReaderCustomTagKey(t *testing.T) {
	csv := "bill/BillingPeriodStartDate,lineItem/UsageType,lineItem/ProductCode,lineItem/UsageAmount,lineItem/UnblendedCost,resourceTags/user:team\n" +
		"2024-05-01T00:00:00Z,OutputTokens,AmazonBedrock,10,0.1,platform\n"

	reader := NewReportReader("team", false)
	items, err := reader.Read(strings.NewReader(csv), "report.csv")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(items) != 1 || items[0].Department != "platform" {
		t.Errorf("custom tag key not honored: %+v", items)
	}
}
