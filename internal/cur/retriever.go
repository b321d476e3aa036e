package cur

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	// manifestSuffix is the extension of CUR manifest files.
	manifestSuffix = ".json"

	// maxS3Keys caps the keys returned per ListObjectsV2 page.
	maxS3Keys = 200
)

// S3API is the subset of the S3 client the retriever needs.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ManifestRetriever finds and decodes the top-level CUR manifests in a
// bucket under a report prefix.
type ManifestRetriever struct {
	client S3API
	bucket string
	prefix string
	debug  bool
}

// NewManifestRetriever creates a retriever for the given bucket and report
// prefix, e.g. "reports/my-cur-report".
func NewManifestRetriever(client S3API, bucket, prefix string, debug bool) *ManifestRetriever {
	return &ManifestRetriever{
		client: client,
		bucket: bucket,
		prefix: prefix,
		debug:  debug,
	}
}

// RetrieveManifests lists and decodes the top-level manifest for each billing
// period under the prefix. Manifests inside assemblyId subdirectories are
// stale copies and are skipped; the top-level one always points at the most
// recent assembly.
func (r *ManifestRetriever) RetrieveManifests(ctx context.Context) ([]*Manifest, error) {
	prefix := r.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var manifests []*Manifest
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket:  aws.String(r.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(maxS3Keys),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list report keys in s3://%s/%s: %w", r.bucket, prefix, err)
		}

		for _, key := range filterManifestKeys(prefix, page) {
			manifest, err := r.retrieveManifest(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to get manifest s3://%s/%s: %w", r.bucket, key, err)
			}
			if r.debug {
				log.Printf("[cur] manifest %s: period %s, %d report keys",
					key, manifest.BillingPeriod.Period(), len(manifest.ReportKeys))
			}
			manifests = append(manifests, manifest)
		}
	}

	return manifests, nil
}

// filterManifestKeys keeps only top-level manifests, laid out as
// <prefix>/YYYYMMDD-YYYYMMDD/<report-name>-Manifest.json. Copies under
// <prefix>/YYYYMMDD-YYYYMMDD/<assemblyId>/ are skipped.
func filterManifestKeys(prefix string, page *s3.ListObjectsV2Output) []string {
	var keys []string
	for _, obj := range page.Contents {
		if obj.Key == nil {
			continue
		}
		key := *obj.Key

		if !strings.HasSuffix(key, manifestSuffix) {
			continue
		}

		trimmed := strings.TrimPrefix(key, prefix)
		// manifestDir is <YYYYMMDD-YYYYMMDD> for a top-level manifest, or
		// <YYYYMMDD-YYYYMMDD>/<assemblyId> for a per-assembly copy.
		manifestDir := path.Dir(trimmed)
		if parent, _ := path.Split(manifestDir); parent != "" {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (r *ManifestRetriever) retrieveManifest(ctx context.Context, key string) (*Manifest, error) {
	obj, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()

	var manifest Manifest
	if err := json.NewDecoder(obj.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &manifest, nil
}

// OpenReport returns a reader for a single report object referenced by a
// manifest report key.
func (r *ManifestRetriever) OpenReport(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get report s3://%s/%s: %w", r.bucket, key, err)
	}
	return obj.Body, nil
}
