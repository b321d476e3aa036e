package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bgdnvk/tokenspend/internal/awsx"
	"github.com/bgdnvk/tokenspend/internal/cur"
	"github.com/bgdnvk/tokenspend/internal/store"
)

var (
	ingestBucket   string
	ingestPrefix   string
	ingestStore    string
	ingestBackfill bool
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestBucket, "bucket", "", "S3 bucket holding the CUR export (or cur.bucket in config)")
	ingestCmd.Flags().StringVar(&ingestPrefix, "prefix", "", "Report prefix inside the bucket, e.g. reports/my-cur (or cur.prefix in config)")
	ingestCmd.Flags().StringVar(&ingestStore, "store", "", "Path to the line-item store (default: $HOME/.tokenspend.db)")
	ingestCmd.Flags().BoolVar(&ingestBackfill, "backfill-tags", false, "Fill missing department tags from Bedrock inference profile tags")
}

// ingestCmd pulls the latest CUR assemblies into the local store.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest CUR report files into the local store",
	Long: `Download the most recent Cost and Usage Report assembly for each
billing period and load the line items into the local store. Re-running
replaces each period with the newest assembly.

Examples:
  tokenspend ingest --bucket my-cur-bucket --prefix reports/cur
  tokenspend ingest --backfill-tags`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		debug := viper.GetBool("debug")

		bucket := ingestBucket
		if bucket == "" {
			bucket = viper.GetString("cur.bucket")
		}
		prefix := ingestPrefix
		if prefix == "" {
			prefix = viper.GetString("cur.prefix")
		}
		if bucket == "" {
			fmt.Fprintln(os.Stderr, "No bucket given: pass --bucket or set cur.bucket in the config file")
			os.Exit(1)
		}

		client, err := awsx.NewClient(ctx, awsProfile(), viper.GetString("aws.region"), debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating AWS client: %v\n", err)
			os.Exit(1)
		}

		storePath := ingestStore
		if storePath == "" {
			storePath = viper.GetString("store.path")
		}
		st, err := store.Open(storePath, debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		tagKey := viper.GetString("tag_key")

		var deptByResource map[string]string
		if ingestBackfill {
			deptByResource, err = client.DepartmentsByResource(ctx, tagKey)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading inference profile tags: %v\n", err)
				os.Exit(1)
			}
			if debug {
				fmt.Printf("[ingest] loaded %d tagged inference profiles\n", len(deptByResource))
			}
		}

		retriever := cur.NewManifestRetriever(client.S3(), bucket, prefix, debug)
		manifests, err := retriever.RetrieveManifests(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error retrieving manifests: %v\n", err)
			os.Exit(1)
		}
		if len(manifests) == 0 {
			fmt.Printf("No CUR manifests found under s3://%s/%s\n", bucket, prefix)
			return
		}

		reader := cur.NewReportReader(tagKey, debug)
		for _, manifest := range manifests {
			period := manifest.BillingPeriod.Period()

			var items []cur.LineItem
			for _, key := range manifest.ReportKeys {
				body, err := retriever.OpenReport(ctx, key)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error downloading report: %v\n", err)
					os.Exit(1)
				}
				parsed, err := reader.Read(body, key)
				body.Close()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error parsing report %s: %v\n", key, err)
					os.Exit(1)
				}
				items = append(items, parsed...)
			}

			if len(deptByResource) > 0 {
				backfillDepartments(items, deptByResource)
			}

			if err := st.ReplacePeriod(ctx, period, items); err != nil {
				fmt.Fprintf(os.Stderr, "Error storing period %s: %v\n", period, err)
				os.Exit(1)
			}
			fmt.Printf("Ingested %d line items for %s\n", len(items), period)
		}
	},
}

// backfillDepartments fills in the department for untagged rows whose
// resource is a tagged inference profile. Rows that already carry the CUR
// tag are left alone.
func backfillDepartments(items []cur.LineItem, deptByResource map[string]string) {
	for i := range items {
		if items[i].Department != "" || items[i].ResourceID == "" {
			continue
		}
		if dept, ok := deptByResource[items[i].ResourceID]; ok {
			items[i].Department = dept
		}
	}
}
