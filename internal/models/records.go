package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Fields is a partial sObject body sent on create and update calls.
type Fields map[string]interface{}

// Salesforce object names used by the handlers.
const (
	SObjectLead        = "Lead"
	SObjectContact     = "Contact"
	SObjectAccount     = "Account"
	SObjectOpportunity = "Opportunity"
)

// Lead is a prospective contact before conversion.
type Lead struct {
	ID          string `json:"Id"`
	Email       string `json:"Email"`
	Company     string `json:"Company"`
	IsConverted bool   `json:"IsConverted"`
}

// Contact is a person record.
type Contact struct {
	ID        string `json:"Id"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	ClientID  string `json:"GACLIENTID__c"`
	TrackID   string `json:"GATRACKID__c"`
	UserID    string `json:"GAUSERID__c"`
}

// Account is an organisation record.
type Account struct {
	ID                string `json:"Id"`
	Name              string `json:"Name"`
	Website           string `json:"Website"`
	BusinessEmployees string `json:"Business_Employees__c"`
	BusinessType      string `json:"Business_Type_POW__c"`
	PrimaryContactID  string `json:"npe01__One2OneContact__c"`
}

// AccountRef is the Id-only row returned by an account name query.
type AccountRef struct {
	ID string `json:"Id"`
}

// Opportunity is a pledge record tied to an account and contact.
type Opportunity struct {
	ID               string          `json:"Id"`
	RecordTypeID     string          `json:"RecordTypeId"`
	AccountID        string          `json:"AccountId"`
	Name             string          `json:"Name"`
	StageName        string          `json:"StageName"`
	Amount           decimal.Decimal `json:"Amount"`
	CloseDate        string          `json:"CloseDate"`
	PledgeStartDate  string          `json:"The_Pledge_Start_Date__c"`
	PledgeEndDate    string          `json:"The_Pledge_End_Date__c"`
	PledgeLevel      string          `json:"The_Pledge_Level__c"`
	PledgeOrigin     string          `json:"Pledge_Origin__c"`
	PrimaryContactID string          `json:"npsp__Primary_Contact__c"`
}

// SaveError is one entry of a save result's errors list.
type SaveError struct {
	StatusCode string   `json:"statusCode"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields,omitempty"`
}

// SaveResult is the envelope returned by sObject create calls.
type SaveResult struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Errors  []SaveError `json:"errors"`
}

// QueryResult is the envelope returned by SOQL queries.
type QueryResult struct {
	TotalSize int               `json:"totalSize"`
	Done      bool              `json:"done"`
	Records   []json.RawMessage `json:"records"`
}

// AccountRefs decodes the query records as account references.
func (q *QueryResult) AccountRefs() ([]AccountRef, error) {
	refs := make([]AccountRef, 0, len(q.Records))
	for _, raw := range q.Records {
		var ref AccountRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
