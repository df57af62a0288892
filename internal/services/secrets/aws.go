package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// AWSProvider reads secrets from AWS Secrets Manager.
type AWSProvider struct {
	client *secretsmanager.Client
}

// NewAWSProvider creates a provider from the default AWS config chain.
func NewAWSProvider(ctx context.Context, region string) (*AWSProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &AWSProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// Access implements Provider. "latest" and "" select the AWSCURRENT stage,
// anything else is treated as a version id.
func (p *AWSProvider) Access(ctx context.Context, name, version string) (string, error) {
	input := &secretsmanager.GetSecretValueInput{SecretId: aws.String(name)}
	if version == "" || version == "latest" {
		input.VersionStage = aws.String("AWSCURRENT")
	} else {
		input.VersionId = aws.String(version)
	}

	out, err := p.client.GetSecretValue(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	return string(out.SecretBinary), nil
}
