package secrets

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"pledge-salesforce-sync/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		PasswordSecret:    "jc_salesforce_password",
		TokenSecret:       "jc_salesforce_token",
		TokenDevSecret:    "jc_salesforce_token_dev",
		SQLPasswordSecret: "website_sql_password",
	}
}

func TestLoadBundle(t *testing.T) {
	provider := Static{
		"jc_salesforce_password":  "pw",
		"jc_salesforce_token":     "tok",
		"jc_salesforce_token_dev": "devtok",
		"website_sql_password":    "sqlpw",
	}

	bundle, err := LoadBundle(context.Background(), provider, testConfig(), true)
	require.NoError(t, err)
	assert.Equal(t, "pw", bundle.SalesforcePassword)
	assert.Equal(t, "tok", bundle.SalesforceToken)
	assert.Equal(t, "devtok", bundle.SalesforceDevToken)
	assert.Equal(t, "sqlpw", bundle.SQLPassword)
}

func TestLoadBundle_SQLOptional(t *testing.T) {
	provider := Static{
		"jc_salesforce_password":  "pw",
		"jc_salesforce_token":     "tok",
		"jc_salesforce_token_dev": "devtok",
	}

	bundle, err := LoadBundle(context.Background(), provider, testConfig(), false)
	require.NoError(t, err)
	assert.Empty(t, bundle.SQLPassword)

	_, err = LoadBundle(context.Background(), provider, testConfig(), true)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.DBPassword = "from-env"
	bundle, err = LoadBundle(context.Background(), provider, cfg, true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", bundle.SQLPassword)
}

func TestLoadBundle_MissingToken(t *testing.T) {
	_, err := LoadBundle(context.Background(), Static{"jc_salesforce_password": "pw"}, testConfig(), false)
	assert.ErrorContains(t, err, "salesforce token")
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("JC_SALESFORCE_TOKEN_DEV", "devtok")

	value, err := EnvProvider{}.Access(context.Background(), "jc-salesforce.token_dev", "latest")
	require.NoError(t, err)
	assert.Equal(t, "devtok", value)

	_, err = EnvProvider{}.Access(context.Background(), "not_set_anywhere_xyz", "")
	assert.Error(t, err)
}

func TestVersionName(t *testing.T) {
	assert.Equal(t, "projects/p1/secrets/s1/versions/latest", VersionName("p1", "s1", ""))
	assert.Equal(t, "projects/p1/secrets/s1/versions/3", VersionName("p1", "s1", "3"))
}

func TestGCPProvider_Access(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/p1/secrets/jc_salesforce_token/versions/latest:access", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"projects/p1/secrets/jc_salesforce_token/versions/1","payload":{"data":"` +
			base64.StdEncoding.EncodeToString([]byte("s3cret")) + `"}}`))
	}))
	defer srv.Close()

	provider, err := NewGCPProvider(context.Background(), "p1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	value, err := provider.Access(context.Background(), "jc_salesforce_token", "latest")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)
}

func TestNew_Backends(t *testing.T) {
	p, err := New(context.Background(), &config.Config{SecretsBackend: "env"})
	require.NoError(t, err)
	assert.IsType(t, EnvProvider{}, p)

	_, err = New(context.Background(), &config.Config{SecretsBackend: "gcp"})
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Config{SecretsBackend: "vault"})
	assert.Error(t, err)
}
