package secrets

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	secretmanager "google.golang.org/api/secretmanager/v1"
)

// GCPProvider reads secrets from Google Cloud Secret Manager.
type GCPProvider struct {
	service *secretmanager.Service
	project string
}

// NewGCPProvider creates a provider using application default credentials
// unless opts say otherwise.
func NewGCPProvider(ctx context.Context, project string, opts ...option.ClientOption) (*GCPProvider, error) {
	if project == "" {
		return nil, fmt.Errorf("SECRETS_PROJECT is required for the gcp backend")
	}
	service, err := secretmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager service: %w", err)
	}
	return &GCPProvider{service: service, project: project}, nil
}

// VersionName builds the resource name of a secret version.
func VersionName(project, name, version string) string {
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, name, version)
}

// Access implements Provider.
func (p *GCPProvider) Access(ctx context.Context, name, version string) (string, error) {
	resp, err := p.service.Projects.Secrets.Versions.Access(VersionName(p.project, name, version)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	if resp.Payload == nil {
		return "", fmt.Errorf("secret %s has no payload", name)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret %s: %w", name, err)
	}
	return string(data), nil
}
