// Package awsx holds the shared AWS client plumbing: config/credential
// loading, the STS identity lookup, Bedrock inference-profile tags, and
// CloudWatch token metrics.
package awsx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Client bundles the AWS service clients the reports need.
type Client struct {
	cfg        aws.Config
	profile    string
	debug      bool
	s3         *s3.Client
	sts        *sts.Client
	bedrock    *bedrock.Client
	cloudwatch *cloudwatch.Client
}

// NewClient loads the default config chain, optionally pinned to a shared
// config profile and region.
func NewClient(ctx context.Context, profile, region string, debug bool) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	if profile != "" {
		// Try the AWS CLI first, which handles SSO profiles better than the
		// SDK's shared config loader.
		if creds, err := credentialsFromCLI(ctx, profile); err == nil {
			opts = append(opts,
				config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
					creds.AccessKeyId,
					creds.SecretAccessKey,
					creds.SessionToken,
				)),
				config.WithSharedConfigProfile(profile),
			)
		} else {
			opts = append(opts, config.WithSharedConfigProfile(profile))
		}
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &Client{
		cfg:        cfg,
		profile:    profile,
		debug:      debug,
		s3:         s3.NewFromConfig(cfg),
		sts:        sts.NewFromConfig(cfg),
		bedrock:    bedrock.NewFromConfig(cfg),
		cloudwatch: cloudwatch.NewFromConfig(cfg),
	}, nil
}

// Config returns the loaded AWS config for constructing further clients.
func (c *Client) Config() aws.Config {
	return c.cfg
}

// S3 returns the S3 client.
func (c *Client) S3() *s3.Client {
	return c.s3
}

// Account returns the account ID of the active credentials.
func (c *Client) Account(ctx context.Context) (string, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve caller identity: %w", err)
	}
	return aws.ToString(out.Account), nil
}

// awsCredentialsFromCLI represents AWS credentials returned by the CLI.
type awsCredentialsFromCLI struct {
	Version         int    `json:"Version"`
	AccessKeyId     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken"`
	Expiration      string `json:"Expiration"`
}

// credentialsFromCLI uses the AWS CLI to get fresh credentials for a profile.
func credentialsFromCLI(ctx context.Context, profile string) (*awsCredentialsFromCLI, error) {
	cmd := exec.CommandContext(ctx, "aws", "configure", "export-credentials", "--profile", profile, "--format", "process")
	cmd.Env = append(os.Environ(), fmt.Sprintf("AWS_PROFILE=%s", profile))

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials from AWS CLI: %w", err)
	}

	var creds awsCredentialsFromCLI
	if err := json.Unmarshal(output, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse AWS CLI credentials response: %w", err)
	}

	return &creds, nil
}
