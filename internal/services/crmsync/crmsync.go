// Package crmsync implements the Salesforce workflows behind the pledge functions:
// lead/contact/account/opportunity reconciliation for new signups, pledge
// completion and opportunity stage changes.
package crmsync

import (
	"context"

	"pledge-salesforce-sync/internal/models"
)

// OpportunityUpdater patches opportunities. It is all the pledge and stage
// workflows need.
type OpportunityUpdater interface {
	UpdateOpportunity(ctx context.Context, id string, fields models.Fields) (int, error)
}

// CRM is the object-level API the reconciliation workflow runs against.
// *salesforce.Client implements it.
type CRM interface {
	OpportunityUpdater

	FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error)
	ConvertLead(ctx context.Context, leadID string) error

	FindContactByEmail(ctx context.Context, email string) (*models.Contact, error)
	CreateContact(ctx context.Context, fields models.Fields) (*models.SaveResult, error)

	QueryAccountsByName(ctx context.Context, name string) ([]models.AccountRef, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, fields models.Fields) (*models.SaveResult, error)
	UpdateAccount(ctx context.Context, id string, fields models.Fields) (int, error)

	CreateOpportunity(ctx context.Context, fields models.Fields) (*models.SaveResult, error)
}

// MetaWriter appends user metadata rows to a tenant database.
type MetaWriter interface {
	AddUserMeta(ctx context.Context, database, userID, key, value string) error
}

// Metadata keys mirrored back to the website.
const (
	MetaAccountID     = "sf_account_id"
	MetaOpportunityID = "sf_opportunity_id"
)

// Salesforce field values written by the workflows.
const (
	StageProspecting = "Prospecting"
	StageClosedWon   = "Closed Won"
	PledgeOriginNew  = "New"

	dateLayout = "2006-01-02"
)
