package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tokenspend",
	Short: "Report AWS Bedrock token spend from your billing data",
	Long: `Tokenspend reports AWS Bedrock token usage and spend from your
Cost and Usage Report (CUR) export, attributed to departments through
cost-allocation tags.

Ingest your CUR export once, then query it locally:
  tokenspend ingest --bucket my-cur-bucket --prefix reports/cur
  tokenspend usage
  tokenspend departments --month 05

Or skip the export and go through the Cost Explorer API:
  tokenspend departments --month 05 --source explorer`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tokenspend.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output (shows progress + internal diagnostics)")
	rootCmd.PersistentFlags().String("aws-profile", "", "AWS profile to use (default: from AWS_PROFILE env)")
	rootCmd.PersistentFlags().String("region", "", "AWS region override")
	rootCmd.PersistentFlags().String("tag-key", "", "cost-allocation tag key for departments (default: department)")

	// TODO: add error return here
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("aws.profile", rootCmd.PersistentFlags().Lookup("aws-profile"))
	viper.BindPFlag("aws.region", rootCmd.PersistentFlags().Lookup("region"))
	viper.BindPFlag("tag_key", rootCmd.PersistentFlags().Lookup("tag-key"))

	viper.SetDefault("tag_key", "department")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
		os.Exit(1)
	}
	viper.SetDefault("store.path", filepath.Join(home, ".tokenspend.db"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tokenspend")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("debug") {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

// awsProfile resolves the profile from the flag or environment.
func awsProfile() string {
	if p := viper.GetString("aws.profile"); p != "" {
		return p
	}
	return os.Getenv("AWS_PROFILE")
}
