package salesforce

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pledge-salesforce-sync/internal/models"
)

// APIError is a non-2xx response from the REST API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	kind := "request failed"
	switch {
	case e.StatusCode == http.StatusNotFound:
		kind = "resource not found"
	case e.StatusCode == http.StatusBadRequest:
		kind = "malformed request"
	case e.StatusCode >= 500:
		kind = "server error"
	}
	return fmt.Sprintf("salesforce: %s (%d %s): %s", kind, e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the status code onto the shared error kinds in models.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return models.ErrNotFound
	case e.StatusCode == http.StatusBadRequest:
		return models.ErrMalformedRequest
	case e.StatusCode >= 500:
		return models.ErrConnectivity
	}
	return nil
}

// parseAPIError builds an APIError from a REST error body, which is normally
// a list of {message, errorCode} objects.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var list []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		apiErr.Code = list[0].ErrorCode
		apiErr.Message = list[0].Message
		return apiErr
	}

	// OAuth and some gateway errors use a single object instead
	var single struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &single); err == nil && single.Error != "" {
		apiErr.Code = single.Error
		apiErr.Message = single.Description
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
