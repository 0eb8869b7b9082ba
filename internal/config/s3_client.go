package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/13rac1/nsload/internal/types"
)

// s3MaxAttempts bounds retries for a single probe or download.
const s3MaxAttempts = 3

// NewS3Client builds the client used by the s3 storage backend. Credentials
// come from auth.access_key_id when set, then auth.profile, then the default
// AWS chain.
func NewS3Client(ctx context.Context, cfg *types.Config) (*s3.Client, error) {
	store := cfg.Storage.S3

	loadOpts := append([]func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(store.Region),
		awsconfig.WithRetryMaxAttempts(s3MaxAttempts),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
	}, credentialOptions(cfg.Auth)...)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for bucket %s: %w", store.Bucket, err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if store.Endpoint != "" {
			o.BaseEndpoint = aws.String(store.Endpoint)
		}
		o.UsePathStyle = store.ForcePathStyle
	}), nil
}

// credentialOptions maps auth settings to AWS load options. Static keys win
// over a named profile; with neither, nothing is added.
func credentialOptions(auth types.AuthConfig) []func(*awsconfig.LoadOptions) error {
	switch {
	case auth.AccessKeyID != "":
		provider := credentials.NewStaticCredentialsProvider(auth.AccessKeyID, auth.SecretAccessKey, auth.SessionToken)
		return []func(*awsconfig.LoadOptions) error{awsconfig.WithCredentialsProvider(provider)}
	case auth.Profile != "":
		return []func(*awsconfig.LoadOptions) error{awsconfig.WithSharedConfigProfile(auth.Profile)}
	default:
		return nil
	}
}
