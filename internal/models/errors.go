// Package models defines the payloads and CRM records shared by the sync handlers.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidBool    = errors.New("invalid boolean value")
	ErrInvalidEmail   = errors.New("invalid email address")

	// CRM lookup and write outcomes. Callers pick a policy per kind.
	ErrNotFound         = errors.New("record not found")
	ErrConnectivity     = errors.New("crm unreachable")
	ErrMalformedRequest = errors.New("malformed crm request")
	ErrUnsuccessful     = errors.New("crm reported unsuccessful save")
)

// ParseBool converts the truthy/falsy strings sent by the web forms.
// Accepted values are y, yes, t, true, on, 1 and n, no, f, false, off, 0,
// compared case-insensitively.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidBool, value)
}

// missing wraps ErrMissingField with the offending JSON key.
func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// isValidEmail performs basic email validation.
func isValidEmail(email string) bool {
	atIndex := strings.Index(email, "@")
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}

	// Must have a dot after @
	dotIndex := strings.LastIndex(email, ".")
	if dotIndex <= atIndex+1 || dotIndex == len(email)-1 {
		return false
	}

	return true
}
