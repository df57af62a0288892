// Package salesforce provides a small client for the Salesforce REST API.
package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/utils"
)

// DefaultAPIVersion is used when no version is configured.
const DefaultAPIVersion = "52.0"

// session is an authenticated HTTP client bound to an org instance.
type session struct {
	httpClient  *http.Client
	instanceURL string
}

// Client talks to one Salesforce org.
type Client struct {
	name       string
	apiVersion string

	mu      sync.RWMutex
	session session

	// relogin is set for password-flow sessions; access tokens from that flow
	// carry no expiry and are renewed when the API answers 401.
	relogin func(ctx context.Context) (session, error)
}

// NewClient creates a client around an already authenticated HTTP client.
func NewClient(name string, httpClient *http.Client, instanceURL, apiVersion string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &Client{
		name:       name,
		apiVersion: apiVersion,
		session: session{
			httpClient:  httpClient,
			instanceURL: strings.TrimRight(instanceURL, "/"),
		},
	}
}

// Name returns the tenant name the client was created for.
func (c *Client) Name() string {
	return c.name
}

// InstanceURL returns the org instance the client is bound to.
func (c *Client) InstanceURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.instanceURL
}

func (c *Client) dataPath(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return "/services/data/v" + c.apiVersion + "/" + strings.Join(escaped, "/")
}

// Get fetches a record by id and decodes it into out.
func (c *Client) Get(ctx context.Context, sobject, id string, out interface{}) error {
	_, err := c.do(ctx, http.MethodGet, c.dataPath("sobjects", sobject, id), nil, out)
	return err
}

// GetByExternalID fetches a record by a custom unique field and decodes it into out.
func (c *Client) GetByExternalID(ctx context.Context, sobject, field, value string, out interface{}) error {
	_, err := c.do(ctx, http.MethodGet, c.dataPath("sobjects", sobject, field, value), nil, out)
	return err
}

// Create inserts a record and returns the save envelope.
func (c *Client) Create(ctx context.Context, sobject string, fields models.Fields) (*models.SaveResult, error) {
	var result models.SaveResult
	if _, err := c.do(ctx, http.MethodPost, c.dataPath("sobjects", sobject)+"/", fields, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update patches a record and returns the HTTP status code (204 on success).
func (c *Client) Update(ctx context.Context, sobject, id string, fields models.Fields) (int, error) {
	return c.do(ctx, http.MethodPatch, c.dataPath("sobjects", sobject, id), fields, nil)
}

// Query runs a SOQL query and returns the first page of results.
func (c *Client) Query(ctx context.Context, soql string) (*models.QueryResult, error) {
	var result models.QueryResult
	path := c.dataPath("query") + "/?q=" + url.QueryEscape(soql)
	if _, err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Apex calls a custom Apex REST endpoint below /services/apexrest.
func (c *Client) Apex(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, method, "/services/apexrest/"+strings.TrimLeft(path, "/"), body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Limits calls the org limits resource. It is used as a cheap reachability probe.
func (c *Client) Limits(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, c.dataPath("limits"), nil, nil)
	return err
}

// do sends a request, retrying once after a re-login when the session expired.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	status, err := c.send(ctx, method, path, body, out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && c.relogin != nil {
		utils.GetLogger().Info("Salesforce session expired, logging in again", utils.String("tenant", c.name))
		s, loginErr := c.relogin(ctx)
		if loginErr != nil {
			utils.GetLogger().Warn("Salesforce re-login failed", utils.String("tenant", c.name), utils.Error(loginErr))
			return status, fmt.Errorf("failed to refresh session: %w", loginErr)
		}
		c.mu.Lock()
		c.session = s
		c.mu.Unlock()
		return c.send(ctx, method, path, body, out)
	}

	return status, err
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.instanceURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", models.ErrConnectivity, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: failed to read response: %v", models.ErrConnectivity, err)
	}

	if resp.StatusCode >= 300 {
		return resp.StatusCode, parseAPIError(resp.StatusCode, respBody)
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
