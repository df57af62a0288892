package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexString accepts a JSON string, number or null and keeps its text form.
// The web application is not consistent about quoting ids and levels.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")) {
		*f = FlexString(data)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying text.
func (f FlexString) String() string { return string(f) }

// PledgeCompletePayload is sent when a pledge is confirmed on the website.
type PledgeCompletePayload struct {
	URL           string              `json:"url"`
	OpportunityID string              `json:"opportunity_id"`
	ExpiryDate    string              `json:"expiry_date"`
	PledgeLevel   FlexString          `json:"pledge_level"`
	PledgeCost    decimal.NullDecimal `json:"pledge_cost"`
	Invoiced      FlexString          `json:"invoiced"`

	// DoNotCreatePayment is the parsed form of Invoiced.
	DoNotCreatePayment bool `json:"-"`
}

// Validate checks required fields and parses the invoicing flag.
func (p *PledgeCompletePayload) Validate() error {
	if strings.TrimSpace(p.OpportunityID) == "" {
		return missing("opportunity_id")
	}
	if strings.TrimSpace(p.ExpiryDate) == "" {
		return missing("expiry_date")
	}
	if strings.TrimSpace(p.PledgeLevel.String()) == "" {
		return missing("pledge_level")
	}
	// Absent and null both leave Valid unset
	if !p.PledgeCost.Valid {
		return missing("pledge_cost")
	}
	if p.Invoiced == "" {
		return missing("invoiced")
	}
	flag, err := ParseBool(p.Invoiced.String())
	if err != nil {
		return err
	}
	p.DoNotCreatePayment = flag
	return nil
}

// SignupPayload is sent when a new business signs up for a pledge.
type SignupPayload struct {
	URL          string     `json:"url"`
	Email        string     `json:"email"`
	UserID       FlexString `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	ClientID     FlexString `json:"client_id"`
	TrackID      FlexString `json:"track_id"`
	BusinessName string     `json:"business_name"`
	Website      string     `json:"website"`
	BusinessSize FlexString `json:"business_size"`
	BusinessType string     `json:"business_type"`
}

// Validate checks required fields and undoes the escaping the website applies
// to slashes in url and website.
func (p *SignupPayload) Validate() error {
	p.URL = strings.ReplaceAll(p.URL, `\/`, "")
	p.Website = strings.ReplaceAll(p.Website, `\`, "")
	p.Email = strings.TrimSpace(p.Email)

	if p.Email == "" {
		return missing("email")
	}
	if !isValidEmail(p.Email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, p.Email)
	}
	if p.UserID == "" {
		return missing("id")
	}
	if strings.TrimSpace(p.BusinessName) == "" {
		return missing("business_name")
	}
	return nil
}

// StageChangePayload is sent when an opportunity moves between stages.
type StageChangePayload struct {
	URL              string `json:"url"`
	OpportunityID    string `json:"opportunity_id"`
	OpportunityStage string `json:"opportunity_stage"`
}

// Validate checks required fields.
func (p *StageChangePayload) Validate() error {
	if strings.TrimSpace(p.OpportunityID) == "" {
		return missing("opportunity_id")
	}
	if strings.TrimSpace(p.OpportunityStage) == "" {
		return missing("opportunity_stage")
	}
	return nil
}

// Validatable is implemented by every inbound payload.
type Validatable interface {
	Validate() error
}

// DecodeData base64-decodes an event body. Standard encoding is tried first,
// then URL-safe, both with and without padding.
func DecodeData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidPayload)
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(data)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, lastErr)
}

// DecodePayload decodes base64 event data as JSON into out and validates it.
// The decoded bytes are returned so callers can archive them.
func DecodePayload(data string, out Validatable) ([]byte, error) {
	raw, err := DecodeData(data)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return raw, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := out.Validate(); err != nil {
		return raw, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return raw, nil
}
