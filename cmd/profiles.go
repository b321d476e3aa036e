package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bgdnvk/tokenspend/internal/awsx"
)

var profilesFormat string

func init() {
	rootCmd.AddCommand(profilesCmd)

	profilesCmd.Flags().StringVar(&profilesFormat, "format", "table", "Output format: table, json, yaml")
}

// profilesCmd lists Bedrock inference profiles and their department tags.
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List Bedrock inference profiles and their department tags",
	Long: `List the account's Bedrock inference profiles with their tags.
Departments attribute spend by routing invocations through profiles tagged
with the department cost-allocation tag; untagged profiles here mean
untagged line items in the billing data.

Examples:
  tokenspend profiles
  tokenspend profiles --format json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		debug := viper.GetBool("debug")

		client, err := awsx.NewClient(ctx, awsProfile(), viper.GetString("aws.region"), debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating AWS client: %v\n", err)
			os.Exit(1)
		}

		profiles, err := client.ListInferenceProfiles(ctx, viper.GetString("tag_key"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing inference profiles: %v\n", err)
			os.Exit(1)
		}

		switch profilesFormat {
		case "json":
			out, err := json.MarshalIndent(profiles, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
		case "yaml":
			out, err := yaml.Marshal(profiles)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(string(out))
		default:
			if len(profiles) == 0 {
				fmt.Println("No inference profiles found")
				return
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tSTATUS\tDEPARTMENT\tARN")
			fmt.Fprintln(w, "----\t----\t------\t----------\t---")
			for _, p := range profiles {
				dept := p.Department
				if dept == "" {
					dept = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Type, p.Status, dept, p.ARN)
			}
			w.Flush()
		}
	},
}
