// Package awsx loads the shared AWS SDK configuration used by the S3, SNS
// and DynamoDB clients.
package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/Alijeyrad/medtrack_backend/config"
)

// LoadConfig builds an aws.Config from the aws section. Static credentials
// are used when both keys are set; otherwise the default chain applies.
func LoadConfig(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(c.Region),
	}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Endpoint returns the first non-empty override, or nil for the AWS default.
func Endpoint(overrides ...string) *string {
	for _, o := range overrides {
		if o != "" {
			return aws.String(o)
		}
	}
	return nil
}
