package salesforce

import (
	"context"
	"net/http"
	"strings"

	"pledge-salesforce-sync/internal/models"
)

// FindLeadByEmail looks a lead up by its Email field.
func (c *Client) FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	var lead models.Lead
	if err := c.GetByExternalID(ctx, models.SObjectLead, "Email", email, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// ConvertLead triggers the org's Apex lead conversion endpoint.
func (c *Client) ConvertLead(ctx context.Context, leadID string) error {
	_, err := c.Apex(ctx, http.MethodGet, "Lead/"+leadID, nil)
	return err
}

// FindContactByEmail looks a contact up by its Email field.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	var contact models.Contact
	if err := c.GetByExternalID(ctx, models.SObjectContact, "Email", email, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateContact inserts a contact.
func (c *Client) CreateContact(ctx context.Context, fields models.Fields) (*models.SaveResult, error) {
	return c.Create(ctx, models.SObjectContact, fields)
}

// QueryAccountsByName returns the ids of accounts whose Name matches exactly.
func (c *Client) QueryAccountsByName(ctx context.Context, name string) ([]models.AccountRef, error) {
	soql := "SELECT Id FROM Account WHERE Name = '" + EscapeSOQL(name) + "'"
	result, err := c.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	return result.AccountRefs()
}

// GetAccount fetches the full account record.
func (c *Client) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := c.Get(ctx, models.SObjectAccount, id, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateAccount inserts an account.
func (c *Client) CreateAccount(ctx context.Context, fields models.Fields) (*models.SaveResult, error) {
	return c.Create(ctx, models.SObjectAccount, fields)
}

// UpdateAccount patches an account.
func (c *Client) UpdateAccount(ctx context.Context, id string, fields models.Fields) (int, error) {
	return c.Update(ctx, models.SObjectAccount, id, fields)
}

// CreateOpportunity inserts an opportunity.
func (c *Client) CreateOpportunity(ctx context.Context, fields models.Fields) (*models.SaveResult, error) {
	return c.Create(ctx, models.SObjectOpportunity, fields)
}

// UpdateOpportunity patches an opportunity.
func (c *Client) UpdateOpportunity(ctx context.Context, id string, fields models.Fields) (int, error) {
	return c.Update(ctx, models.SObjectOpportunity, id, fields)
}

var soqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// EscapeSOQL escapes a value for use inside a single-quoted SOQL literal.
func EscapeSOQL(value string) string {
	return soqlEscaper.Replace(value)
}
