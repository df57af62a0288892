// Package secrets resolves credentials from a cloud secret store at startup.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"pledge-salesforce-sync/internal/config"
)

// Provider resolves a secret name and version to its plaintext value.
type Provider interface {
	Access(ctx context.Context, name, version string) (string, error)
}

// New returns the provider selected by SECRETS_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch strings.ToLower(cfg.SecretsBackend) {
	case "gcp", "google":
		return NewGCPProvider(ctx, cfg.SecretsProject)
	case "aws":
		return NewAWSProvider(ctx, cfg.AWSRegion)
	case "env", "":
		return EnvProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.SecretsBackend)
	}
}

// EnvProvider reads secrets from environment variables named after the
// upper-cased secret name. It is meant for local runs.
type EnvProvider struct{}

// Access implements Provider. The version is ignored.
func (EnvProvider) Access(_ context.Context, name, _ string) (string, error) {
	key := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not set in environment (%s)", name, key)
	}
	return value, nil
}

// Static is an in-memory Provider keyed by secret name.
type Static map[string]string

// Access implements Provider.
func (s Static) Access(_ context.Context, name, _ string) (string, error) {
	value, ok := s[name]
	if !ok {
		return "", fmt.Errorf("secret %s not found", name)
	}
	return value, nil
}

// Bundle holds every credential the functions read at startup.
type Bundle struct {
	SalesforcePassword string
	SalesforceToken    string
	SalesforceDevToken string
	SQLPassword        string
}

// LoadBundle resolves the configured secrets. The SQL password is optional
// because only the signup function writes to the metadata store.
func LoadBundle(ctx context.Context, p Provider, cfg *config.Config, withSQL bool) (*Bundle, error) {
	var (
		b   Bundle
		err error
	)
	if b.SalesforcePassword, err = p.Access(ctx, cfg.PasswordSecret, cfg.PasswordVersion); err != nil {
		return nil, fmt.Errorf("failed to read salesforce password: %w", err)
	}
	if b.SalesforceToken, err = p.Access(ctx, cfg.TokenSecret, cfg.TokenVersion); err != nil {
		return nil, fmt.Errorf("failed to read salesforce token: %w", err)
	}
	if b.SalesforceDevToken, err = p.Access(ctx, cfg.TokenDevSecret, cfg.TokenDevVersion); err != nil {
		return nil, fmt.Errorf("failed to read salesforce dev token: %w", err)
	}
	if withSQL {
		if cfg.DBPassword != "" {
			b.SQLPassword = cfg.DBPassword
		} else if b.SQLPassword, err = p.Access(ctx, cfg.SQLPasswordSecret, cfg.SQLPasswordVersion); err != nil {
			return nil, fmt.Errorf("failed to read sql password: %w", err)
		}
	}
	return &b, nil
}
