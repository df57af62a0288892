package salesforce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pledge-salesforce-sync/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("live", srv.Client(), srv.URL, "")
}

func TestClient_FindLeadByEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/services/data/v52.0/sobjects/Lead/Email/a@b.com", r.URL.Path)
		w.Write([]byte(`{"Id":"00QXX","Email":"a@b.com","Company":"Acme","IsConverted":false}`))
	})

	lead, err := client.FindLeadByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "00QXX", lead.ID)
	assert.Equal(t, "Acme", lead.Company)
	assert.False(t, lead.IsConverted)
}

func TestClient_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`[{"errorCode":"NOT_FOUND","message":"The requested resource does not exist"}]`))
	})

	_, err := client.FindContactByEmail(context.Background(), "missing@b.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NotErrorIs(t, err, models.ErrConnectivity)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "The requested resource does not exist", apiErr.Message)
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"malformed", http.StatusBadRequest, `[{"errorCode":"MALFORMED_QUERY","message":"unexpected token"}]`, models.ErrMalformedRequest},
		{"server error", http.StatusServiceUnavailable, `upstream unavailable`, models.ErrConnectivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := client.QueryAccountsByName(context.Background(), "Acme")
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestClient_TransportFailureIsConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient("live", srv.Client(), srv.URL, "")
	srv.Close()

	err := client.Limits(context.Background())
	assert.ErrorIs(t, err, models.ErrConnectivity)
}

func TestClient_CreateContact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/services/data/v52.0/sobjects/Contact/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["Email"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"003XX","success":true,"errors":[]}`))
	})

	res, err := client.CreateContact(context.Background(), models.Fields{"Email": "a@b.com"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "003XX", res.ID)
}

func TestClient_UpdateOpportunity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/services/data/v52.0/sobjects/Opportunity/006XX", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	status, err := client.UpdateOpportunity(context.Background(), "006XX", models.Fields{"StageName": "Closed Won"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestClient_QueryAccountsByName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v52.0/query/", r.URL.Path)
		assert.Equal(t, `SELECT Id FROM Account WHERE Name = 'O\'Brien \\ Sons'`, r.URL.Query().Get("q"))
		w.Write([]byte(`{"totalSize":2,"done":true,"records":[{"attributes":{"type":"Account"},"Id":"001A"},{"Id":"001B"}]}`))
	})

	refs, err := client.QueryAccountsByName(context.Background(), `O'Brien \ Sons`)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "001A", refs[0].ID)
	assert.Equal(t, "001B", refs[1].ID)
}

func TestClient_ConvertLead(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`"converted"`))
	})

	require.NoError(t, client.ConvertLead(context.Background(), "00QXX"))
	assert.Equal(t, "/services/apexrest/Lead/00QXX", path)
}

func TestClient_ReloginOnUnauthorized(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("X-Session") != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`[{"errorCode":"INVALID_SESSION_ID","message":"Session expired or invalid"}]`))
			return
		}
		w.Write([]byte(`{"Id":"001XX","Name":"Acme"}`))
	}))
	defer srv.Close()

	client := NewClient("live", srv.Client(), srv.URL, "")
	logins := 0
	client.relogin = func(ctx context.Context) (session, error) {
		logins++
		return session{
			httpClient:  &http.Client{Transport: headerTransport{base: srv.Client().Transport}},
			instanceURL: srv.URL,
		}, nil
	}

	account, err := client.GetAccount(context.Background(), "001XX")
	require.NoError(t, err)
	assert.Equal(t, "Acme", account.Name)
	assert.Equal(t, 1, logins)
	assert.Equal(t, 2, calls)
}

type headerTransport struct {
	base http.RoundTripper
}

func (h headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("X-Session", "fresh")
	return h.base.RoundTrip(r)
}

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{"list", `[{"message":"bad field","errorCode":"INVALID_FIELD"}]`, "INVALID_FIELD", "bad field"},
		{"oauth", `{"error":"invalid_grant","error_description":"authentication failure"}`, "invalid_grant", "authentication failure"},
		{"plain", "  gateway timeout \n", "", "gateway timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := parseAPIError(http.StatusBadRequest, []byte(tt.body))
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestEscapeSOQL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme", "Acme"},
		{"O'Brien", `O\'Brien`},
		{`a\b`, `a\\b`},
		{`x' OR Name != '`, `x\' OR Name != \'`},
		{"line\nbreak", `line\nbreak`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeSOQL(tt.input))
		})
	}
}

func TestPasswordLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/oauth2/token", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "grant_type=password")
		assert.Contains(t, string(body), "password=secretTOKEN")
		assert.Contains(t, string(body), "client_id=cid")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","instance_url":"https://example.my.salesforce.com/"}`))
	}))
	defer srv.Close()

	s, err := passwordLogin(context.Background(), Credentials{
		LoginURL:      srv.URL,
		ClientID:      "cid",
		ClientSecret:  "csecret",
		Username:      "user@example.com",
		Password:      "secret",
		SecurityToken: "TOKEN",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.my.salesforce.com", s.instanceURL)
	assert.NotNil(t, s.httpClient)
}
