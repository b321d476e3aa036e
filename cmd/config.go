package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tokenspend configuration",
	Long:  `Configure tokenspend settings including the AWS profile and CUR export location.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a default configuration file in your home directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".tokenspend.yaml")

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Configuration file already exists at %s\n", configPath)
			return nil
		}

		defaultConfig := `# tokenspend configuration
# Copy this to ~/.tokenspend.yaml and customize for your setup

aws:
  profile: your-aws-profile   # AWS profile with access to the CUR bucket
  region: us-west-2

# Cost and Usage Report export location
cur:
  bucket: your-cur-bucket
  prefix: reports/your-report-name

# Cost-allocation tag used for department grouping
tag_key: department

# Local SQLite store for ingested report data
# store:
#   path: /path/to/tokenspend.db
`

		err = os.WriteFile(configPath, []byte(defaultConfig), 0644)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}

		fmt.Printf("Configuration file created at %s\n", configPath)
		fmt.Println("Please edit the file to point at your CUR export bucket.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".tokenspend.yaml")

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			fmt.Println("No configuration file found. Run 'tokenspend config init' to create one.")
			return nil
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}

		fmt.Printf("Configuration file: %s\n\n", configPath)
		fmt.Print(string(content))
		return nil
	},
}

var configScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan system for available AWS profiles",
	Long: `Detect AWS profiles configured on the local system.

Examples:
  tokenspend config scan
  tokenspend config scan --output json`,
	RunE: runConfigScan,
}

// AWSCredentialsScan holds detected AWS profiles
type AWSCredentialsScan struct {
	Profiles []AWSProfileInfo `json:"profiles"`
	Error    string           `json:"error,omitempty"`
}

// AWSProfileInfo holds info about a single AWS profile
type AWSProfileInfo struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
	Source string `json:"source"`
}

func runConfigScan(cmd *cobra.Command, args []string) error {
	outputFormat, _ := cmd.Flags().GetString("output")

	result := scanAWSProfiles()

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Println("AWS Profiles:")
	if len(result.Profiles) == 0 {
		fmt.Println("  No profiles detected")
	}
	for _, p := range result.Profiles {
		region := p.Region
		if region == "" {
			region = "(no region)"
		}
		fmt.Printf("  - %s [%s] (%s)\n", p.Name, region, p.Source)
	}
	if result.Error != "" {
		fmt.Printf("  Error: %s\n", result.Error)
	}
	return nil
}

func scanAWSProfiles() AWSCredentialsScan {
	result := AWSCredentialsScan{
		Profiles: []AWSProfileInfo{},
	}

	home, err := os.UserHomeDir()
	if err != nil {
		result.Error = "could not determine home directory"
		return result
	}

	credPath := filepath.Join(home, ".aws", "credentials")
	configPath := filepath.Join(home, ".aws", "config")

	credProfiles := parseAWSINIFile(credPath, "credentials")
	configProfiles := parseAWSINIFile(configPath, "config")

	profileMap := make(map[string]*AWSProfileInfo)

	for _, p := range credProfiles {
		profileMap[p.Name] = &AWSProfileInfo{
			Name:   p.Name,
			Region: p.Region,
			Source: p.Source,
		}
	}

	for _, p := range configProfiles {
		if existing, ok := profileMap[p.Name]; ok {
			if existing.Region == "" && p.Region != "" {
				existing.Region = p.Region
			}
		} else {
			profileMap[p.Name] = &AWSProfileInfo{
				Name:   p.Name,
				Region: p.Region,
				Source: p.Source,
			}
		}
	}

	for _, p := range profileMap {
		result.Profiles = append(result.Profiles, *p)
	}

	return result
}

func parseAWSINIFile(path string, source string) []AWSProfileInfo {
	profiles := []AWSProfileInfo{}

	file, err := os.Open(path)
	if err != nil {
		return profiles
	}
	defer file.Close()

	sectionPattern := regexp.MustCompile(`^\s*\[([^\]]+)\]\s*$`)
	kvPattern := regexp.MustCompile(`^\s*([^=\s]+)\s*=\s*(.+?)\s*$`)

	var currentProfile *AWSProfileInfo
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := scanner.Text()

		if matches := sectionPattern.FindStringSubmatch(line); len(matches) == 2 {
			if currentProfile != nil {
				profiles = append(profiles, *currentProfile)
			}

			sectionName := strings.TrimSpace(matches[1])
			profileName := sectionName

			if source == "config" && strings.HasPrefix(sectionName, "profile ") {
				profileName = strings.TrimPrefix(sectionName, "profile ")
			}

			currentProfile = &AWSProfileInfo{
				Name:   profileName,
				Source: source,
			}
			continue
		}

		if currentProfile != nil {
			if matches := kvPattern.FindStringSubmatch(line); len(matches) == 3 {
				key := strings.ToLower(strings.TrimSpace(matches[1]))
				value := strings.TrimSpace(matches[2])

				if key == "region" {
					currentProfile.Region = value
				}
			}
		}
	}

	if currentProfile != nil {
		profiles = append(profiles, *currentProfile)
	}

	return profiles
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configScanCmd)

	configScanCmd.Flags().StringP("output", "o", "", "Output format (json for JSON output)")
}
