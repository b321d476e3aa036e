package cur

import (
	"encoding/json"
	"reflect"
	"testing"
)

const manifestJSON = `{
	"assemblyId": "bd4330dc-97ff-4734-9f9a-b41b87b5b415",
	"account": "123456789012",
	"charset": "UTF-8",
	"compression": "GZIP",
	"contentType": "text/csv",
	"reportId": "abc123",
	"reportName": "tokenspend-cur",
	"billingPeriod": {
		"start": "20240501T000000.000Z",
		"end": "20240601T000000.000Z"
	},
	"bucket": "my-cur-bucket",
	"reportKeys": [
		"reports/tokenspend-cur/20240501-20240601/tokenspend-cur-1.csv.gz",
		"reports/tokenspend-cur/20240501-20240601/tokenspend-cur-2.csv.gz"
	]
}`

func TestManifestDecode(t *testing.T) {
	var m Manifest
	if err := json.Unmarshal([]byte(manifestJSON), &m); err != nil {
		t.Fatalf("failed to decode manifest: %v", err)
	}

	if m.Account != "123456789012" {
		t.Errorf("unexpected account: %q", m.Account)
	}
	if m.Compression != "GZIP" {
		t.Errorf("unexpected compression: %q", m.Compression)
	}
	if got := m.BillingPeriod.Period(); got != "2024-05" {
		t.Errorf("Period() = %q, want 2024-05", got)
	}
	if got := m.BillingPeriod.Start.String(); got != "20240501T000000.000Z" {
		t.Errorf("start round-trip = %q", got)
	}
}

func TestManifestDecodeBadTimestamp(t *testing.T) {
	var m Manifest
	err := json.Unmarshal([]byte(`{"billingPeriod":{"start":"2024-05-01"}}`), &m)
	if err == nil {
		t.Fatal("expected error for malformed manifest timestamp")
	}
}

func TestManifestPaths(t *testing.T) {
	m := Manifest{
		ReportKeys: []string{
			"reports/cur/20240501-20240601/cur-1.csv.gz",
			"reports/cur/20240501-20240601/cur-2.csv.gz",
			"reports/cur/20240401-20240501/cur-1.csv.gz",
		},
	}

	want := []string{
		"reports/cur/20240401-20240501",
		"reports/cur/20240501-20240601",
	}
	if got := m.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
}
