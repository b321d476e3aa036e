package awsx

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
)

// InferenceProfile is a Bedrock inference profile with its cost-allocation
// tags. Teams attribute spend by tagging application profiles with a
// department and routing their invocations through them.
type InferenceProfile struct {
	ARN        string            `json:"arn" yaml:"arn"`
	Name       string            `json:"name" yaml:"name"`
	Type       string            `json:"type" yaml:"type"`
	Status     string            `json:"status" yaml:"status"`
	Tags       map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Department string            `json:"department,omitempty" yaml:"department,omitempty"`
}

// ListInferenceProfiles returns all inference profiles with their tags.
// tagKey selects which tag carries the department value.
func (c *Client) ListInferenceProfiles(ctx context.Context, tagKey string) ([]InferenceProfile, error) {
	if tagKey == "" {
		tagKey = "department"
	}

	var profiles []InferenceProfile
	paginator := bedrock.NewListInferenceProfilesPaginator(c.bedrock, &bedrock.ListInferenceProfilesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list inference profiles: %w", err)
		}

		for _, summary := range page.InferenceProfileSummaries {
			profile := InferenceProfile{
				ARN:    aws.ToString(summary.InferenceProfileArn),
				Name:   aws.ToString(summary.InferenceProfileName),
				Type:   string(summary.Type),
				Status: string(summary.Status),
			}

			tags, err := c.resourceTags(ctx, profile.ARN)
			if err != nil {
				// A profile we cannot read tags for still belongs in the
				// listing; it just shows up untagged.
				if c.debug {
					log.Printf("[awsx] failed to read tags for %s: %v", profile.ARN, err)
				}
			} else {
				profile.Tags = tags
				profile.Department = tags[tagKey]
			}

			profiles = append(profiles, profile)
		}
	}

	return profiles, nil
}

// DepartmentsByResource maps inference profile ARNs to their department tag
// value. Used to backfill the department for CUR rows whose tag column is
// empty but whose resource is a tagged profile.
func (c *Client) DepartmentsByResource(ctx context.Context, tagKey string) (map[string]string, error) {
	profiles, err := c.ListInferenceProfiles(ctx, tagKey)
	if err != nil {
		return nil, err
	}

	byResource := make(map[string]string, len(profiles))
	for _, p := range profiles {
		if p.Department != "" {
			byResource[p.ARN] = p.Department
		}
	}
	return byResource, nil
}

func (c *Client) resourceTags(ctx context.Context, arn string) (map[string]string, error) {
	out, err := c.bedrock.ListTagsForResource(ctx, &bedrock.ListTagsForResourceInput{
		ResourceARN: aws.String(arn),
	})
	if err != nil {
		return nil, err
	}

	tags := make(map[string]string, len(out.Tags))
	for _, tag := range out.Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags, nil
}
