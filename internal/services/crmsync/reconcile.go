package crmsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/services/reporting"
	"pledge-salesforce-sync/internal/utils"
)

// AccountMatchPolicy decides when an account found by name is reused.
type AccountMatchPolicy int

const (
	// MatchSingle reuses an account only when exactly one has the name;
	// zero or several matches create a new account.
	MatchSingle AccountMatchPolicy = iota
	// MatchFirst reuses the first account whenever at least one matches.
	MatchFirst
)

// ParseAccountMatchPolicy parses "single" or "first".
func ParseAccountMatchPolicy(s string) (AccountMatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return MatchSingle, nil
	case "first":
		return MatchFirst, nil
	}
	return MatchSingle, fmt.Errorf("unknown account match policy %q", s)
}

func (p AccountMatchPolicy) reuse(matches int) bool {
	if p == MatchFirst {
		return matches >= 1
	}
	return matches == 1
}

// Options configures the reconciliation workflow.
type Options struct {
	RecordTypeID   string
	MatchPolicy    AccountMatchPolicy
	CloseAfterDays int
	Now            func() time.Time
}

// Reconciler links a website signup to Salesforce records.
type Reconciler struct {
	reporter reporting.Reporter
	meta     MetaWriter
	opts     Options
}

// NewReconciler creates a reconciler.
func NewReconciler(reporter reporting.Reporter, meta MetaWriter, opts Options) *Reconciler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CloseAfterDays <= 0 {
		opts.CloseAfterDays = 28
	}
	return &Reconciler{reporter: reporter, meta: meta, opts: opts}
}

// SignupResult lists the records the workflow ended up with.
type SignupResult struct {
	Tenant        Tenant
	LeadID        string
	LeadConverted bool
	Contact       *models.Contact
	Account       *models.Account
	Opportunity   *models.Opportunity
}

// Run executes the full signup workflow against sess. Failures are reported
// by the step that hit them; the returned error only tells the caller to stop.
func (r *Reconciler) Run(ctx context.Context, sess Session, p *models.SignupPayload) (*SignupResult, error) {
	logger := utils.GetLogger().With(zap.String("tenant", string(sess.Tenant)), zap.String("email", p.Email))
	result := &SignupResult{Tenant: sess.Tenant}

	accountName := p.BusinessName
	lead := r.FindLead(ctx, sess.CRM, p.Email)
	if lead != nil {
		result.LeadID = lead.ID
		if !lead.IsConverted {
			result.LeadConverted = r.ConvertLead(ctx, sess.CRM, lead.ID)
		}
		if lead.Company != "" {
			accountName = lead.Company
		}
		logger.Info("Found existing lead",
			zap.String("leadID", lead.ID),
			zap.Bool("wasConverted", lead.IsConverted),
			zap.String("company", lead.Company))
	}

	contact, err := r.GetOrCreateContact(ctx, sess.CRM, p)
	if err != nil {
		return result, err
	}
	result.Contact = contact

	account, err := r.GetOrCreateAccount(ctx, sess.CRM, accountName)
	if err != nil {
		return result, err
	}

	account, err = r.UpdateAccount(ctx, sess.CRM, account, p, contact)
	if err != nil {
		return result, err
	}
	result.Account = account

	opportunity, err := r.CreateOpportunity(ctx, sess.CRM, account, contact)
	if err != nil {
		return result, err
	}
	result.Opportunity = opportunity

	logger.Info("Salesforce records linked",
		zap.String("contactID", contact.ID),
		zap.String("accountID", account.ID),
		zap.String("opportunityID", opportunity.ID))

	userID := p.UserID.String()
	if err := r.mirror(ctx, sess.Database, userID, MetaAccountID, account.ID); err != nil {
		return result, err
	}
	if err := r.mirror(ctx, sess.Database, userID, MetaOpportunityID, opportunity.ID); err != nil {
		return result, err
	}

	return result, nil
}

// FindLead returns the lead registered with email, or nil. Connectivity
// failures are reported and then treated like a missing lead, since every
// later step works without one.
func (r *Reconciler) FindLead(ctx context.Context, crm CRM, email string) *models.Lead {
	lead, err := crm.FindLeadByEmail(ctx, email)
	switch {
	case err == nil:
		return lead
	case errors.Is(err, models.ErrNotFound):
		return nil
	case errors.Is(err, models.ErrConnectivity):
		r.reporter.Report(ctx, fmt.Sprintf("Lead lookup for %s failed, continuing without a lead: %v", email, err))
		return nil
	default:
		r.reporter.Report(ctx, fmt.Sprintf("Lead lookup for %s returned an unexpected error: %v", email, err))
		return nil
	}
}

// ConvertLead converts a lead into a contact and account. Failures are
// reported and the workflow carries on.
func (r *Reconciler) ConvertLead(ctx context.Context, crm CRM, leadID string) bool {
	if err := crm.ConvertLead(ctx, leadID); err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error converting lead %s to a contact: %v", leadID, err))
		return false
	}
	return true
}

// GetOrCreateContact returns the contact registered with the payload email,
// creating it from the form fields when the lookup finds nothing.
func (r *Reconciler) GetOrCreateContact(ctx context.Context, crm CRM, p *models.SignupPayload) (*models.Contact, error) {
	existing, err := crm.FindContactByEmail(ctx, p.Email)
	switch {
	case err == nil:
		return existing, nil
	case errors.Is(err, models.ErrNotFound):
	case errors.Is(err, models.ErrConnectivity):
		r.reporter.Report(ctx, fmt.Sprintf("Contact lookup for %s failed, creating a new contact: %v", p.Email, err))
	default:
		r.reporter.Report(ctx, fmt.Sprintf("There was an error looking up the contact %s: %v", p.Email, err))
		return nil, fmt.Errorf("failed to look up contact: %w", err)
	}

	contact := &models.Contact{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		ClientID:  p.ClientID.String(),
		TrackID:   p.TrackID.String(),
		UserID:    p.UserID.String(),
	}
	fields := models.Fields{
		"LastName":      contact.LastName,
		"FirstName":     contact.FirstName,
		"Email":         contact.Email,
		"GACLIENTID__c": contact.ClientID,
		"GATRACKID__c":  contact.TrackID,
		"GAUSERID__c":   contact.UserID,
	}

	res, err := crm.CreateContact(ctx, fields)
	if err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error creating the contact: %v", err))
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	if !res.Success {
		r.reporter.Report(ctx, "There was an error creating the contact. The response was "+envelope(res))
		return nil, fmt.Errorf("failed to create contact: %w", models.ErrUnsuccessful)
	}

	contact.ID = res.ID
	return contact, nil
}

// GetOrCreateAccount returns the full account record for name. Whether an
// existing account is reused depends on the configured match policy.
func (r *Reconciler) GetOrCreateAccount(ctx context.Context, crm CRM, name string) (*models.Account, error) {
	refs, err := crm.QueryAccountsByName(ctx, name)
	if err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error querying accounts named %q: %v", name, err))
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	if r.opts.MatchPolicy.reuse(len(refs)) {
		account, err := crm.GetAccount(ctx, refs[0].ID)
		if err != nil {
			r.reporter.Report(ctx, fmt.Sprintf("There was an error fetching account %s: %v", refs[0].ID, err))
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		return account, nil
	}

	res, err := crm.CreateAccount(ctx, models.Fields{"Name": name})
	if err != nil {
		if errors.Is(err, models.ErrMalformedRequest) {
			r.reporter.Report(ctx, fmt.Sprintf("There was a malformed request. %v", err))
		} else {
			r.reporter.Report(ctx, fmt.Sprintf("There was an error creating the account: %v", err))
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if !res.Success {
		r.reporter.Report(ctx, "There was an error creating the account. The response was "+envelope(res))
		return nil, fmt.Errorf("failed to create account: %w", models.ErrUnsuccessful)
	}

	account, err := crm.GetAccount(ctx, res.ID)
	if err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error fetching new account %s: %v", res.ID, err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// UpdateAccount writes the submitted business details and the primary contact
// link onto account and returns the record as re-read from Salesforce.
// A failed update is reported but does not stop the workflow.
func (r *Reconciler) UpdateAccount(ctx context.Context, crm CRM, account *models.Account, p *models.SignupPayload, contact *models.Contact) (*models.Account, error) {
	fields := models.Fields{
		"Website":                  p.Website,
		"Business_Employees__c":    p.BusinessSize.String(),
		"Business_Type_POW__c":     p.BusinessType,
		"npe01__One2OneContact__c": contact.ID,
	}

	if _, err := crm.UpdateAccount(ctx, account.ID, fields); err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error updating account %s: %v", account.ID, err))
	}

	refreshed, err := crm.GetAccount(ctx, account.ID)
	if err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error fetching updated account %s: %v", account.ID, err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return refreshed, nil
}

// CreateOpportunity opens a prospecting pledge opportunity for account,
// priced from the account's employee bucket.
func (r *Reconciler) CreateOpportunity(ctx context.Context, crm CRM, account *models.Account, contact *models.Contact) (*models.Opportunity, error) {
	opportunity := &models.Opportunity{
		RecordTypeID:     r.opts.RecordTypeID,
		AccountID:        account.ID,
		StageName:        StageProspecting,
		Name:             "Pledge - " + account.Name,
		Amount:           OpportunityValue(ctx, r.reporter, account.BusinessEmployees),
		CloseDate:        r.opts.Now().AddDate(0, 0, r.opts.CloseAfterDays).Format(dateLayout),
		PrimaryContactID: contact.ID,
	}

	fields := models.Fields{
		"RecordTypeId":             opportunity.RecordTypeID,
		"AccountId":                opportunity.AccountID,
		"StageName":                opportunity.StageName,
		"Name":                     opportunity.Name,
		"Amount":                   opportunity.Amount.InexactFloat64(),
		"CloseDate":                opportunity.CloseDate,
		"npsp__Primary_Contact__c": opportunity.PrimaryContactID,
	}

	res, err := crm.CreateOpportunity(ctx, fields)
	if err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error creating the opportunity: %v", err))
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}
	if !res.Success {
		r.reporter.Report(ctx, "There was an error creating the opportunity. The response was "+envelope(res))
		return nil, fmt.Errorf("failed to create opportunity: %w", models.ErrUnsuccessful)
	}

	opportunity.ID = res.ID
	return opportunity, nil
}

func (r *Reconciler) mirror(ctx context.Context, database, userID, key, value string) error {
	if err := r.meta.AddUserMeta(ctx, database, userID, key, value); err != nil {
		r.reporter.Report(ctx, fmt.Sprintf("There was an error saving %s for user %s: %v", key, userID, err))
		return err
	}
	return nil
}

func envelope(res *models.SaveResult) string {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprintf("%+v", *res)
	}
	return string(b)
}
