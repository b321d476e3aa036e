package cur

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3 is a mock implementation of S3API for testing.
type mockS3 struct {
	objects map[string]string
}

func (m *mockS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var contents []types.Object
	for key := range m.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			contents = append(contents, types.Object{Key: aws.String(key)})
		}
	}
	return &s3.ListObjectsV2Output{Contents: contents, IsTruncated: aws.Bool(false)}, nil
}

func (m *mockS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func TestRetrieveManifests(t *testing.T) {
	client := &mockS3{objects: map[string]string{
		// Top-level manifest: the one we want.
		"reports/cur/20240501-20240601/cur-Manifest.json": manifestJSON,
		// Per-assembly copy: must be skipped.
		"reports/cur/20240501-20240601/bd4330dc/cur-Manifest.json": manifestJSON,
		// Report data: not a manifest.
		"reports/cur/20240501-20240601/cur-1.csv.gz": "not json",
		// Outside the prefix.
		"other/20240501-20240601/cur-Manifest.json": manifestJSON,
	}}

	retriever := NewManifestRetriever(client, "my-cur-bucket", "reports/cur", false)
	manifests, err := retriever.RetrieveManifests(context.Background())
	if err != nil {
		t.Fatalf("RetrieveManifests failed: %v", err)
	}

	if len(manifests) != 1 {
		t.Fatalf("expected 1 manifest, got %d", len(manifests))
	}
	if got := manifests[0].BillingPeriod.Period(); got != "2024-05" {
		t.Errorf("unexpected billing period: %q", got)
	}
	if len(manifests[0].ReportKeys) != 2 {
		t.Errorf("unexpected report keys: %v", manifests[0].ReportKeys)
	}
}

func TestRetrieveManifestsTrailingSlashPrefix(t *testing.T) {
	client := &mockS3{objects: map[string]string{
		"reports/cur/20240501-20240601/cur-Manifest.json": manifestJSON,
	}}

	retriever := NewManifestRetriever(client, "my-cur-bucket", "reports/cur/", false)
	manifests, err := retriever.RetrieveManifests(context.Background())
	if err != nil {
		t.Fatalf("RetrieveManifests failed: %v", err)
	}
	if len(manifests) != 1 {
		t.Fatalf("expected 1 manifest, got %d", len(manifests))
	}
}

func TestOpenReport(t *testing.T) {
	client := &mockS3{objects: map[string]string{
		"reports/cur/20240501-20240601/cur-1.csv.gz": "data",
	}}

	retriever := NewManifestRetriever(client, "my-cur-bucket", "reports/cur", false)

	body, err := retriever.OpenReport(context.Background(), "reports/cur/20240501-20240601/cur-1.csv.gz")
	if err != nil {
		t.Fatalf("OpenReport failed: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "data" {
		t.Errorf("unexpected body: %q", data)
	}

	if _, err := retriever.OpenReport(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing report key")
	}
}
