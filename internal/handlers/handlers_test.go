package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/services/crmsync"
)

type testEnv struct {
	live     *mockCRM
	dev      *mockCRM
	reporter *recordingReporter
	archiver *fakeArchiver
	deps     Deps
}

func newTestEnv() *testEnv {
	env := &testEnv{
		live:     &mockCRM{},
		dev:      &mockCRM{},
		reporter: &recordingReporter{},
		archiver: &fakeArchiver{},
	}
	env.deps = Deps{
		Sessions: crmsync.NewSessions(
			crmsync.Session{CRM: env.live, Database: "site_live"},
			crmsync.Session{CRM: env.dev, Database: "site_staging"},
			[]string{"protectourwinters.uk", "pledge.protectourwinters.uk"},
		),
		Reporter: env.reporter,
		Archiver: env.archiver,
		Now:      func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
	}
	return env
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func sqsEvent(bodies ...string) events.SQSEvent {
	var event events.SQSEvent
	for i, body := range bodies {
		event.Records = append(event.Records, events.SQSMessage{
			MessageId: string(rune('a' + i)),
			Body:      body,
		})
	}
	return event
}

const pledgeJSON = `{"url":"protectourwinters.uk","opportunity_id":"006XX","expiry_date":"2025-05-31","pledge_level":"Gold","pledge_cost":"250.00","invoiced":"false"}`

func TestPledgeCompleteHandler_Handle(t *testing.T) {
	env := newTestEnv()
	env.live.On("UpdateOpportunity", mock.Anything, "006XX", mock.MatchedBy(func(f models.Fields) bool {
		return f["The_Pledge_Start_Date__c"] == "2024-06-01" && f["The_Pledge_Level__c"] == "Gold"
	})).Return(http.StatusNoContent, nil).Once()
	env.live.On("UpdateOpportunity", mock.Anything, "006XX", mock.MatchedBy(func(f models.Fields) bool {
		return f["StageName"] == "Closed Won" && f["Amount"] == 250.0 &&
			f["npe01__Do_Not_Automatically_Create_Payment__c"] == false
	})).Return(http.StatusNoContent, nil).Once()

	h := NewPledgeCompleteHandler(env.deps)
	err := h.Handle(context.Background(), sqsEvent(b64(pledgeJSON)))
	require.NoError(t, err)

	env.live.AssertExpectations(t)
	env.dev.AssertNotCalled(t, "UpdateOpportunity", mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, env.archiver.items, 1)
	assert.Equal(t, FunctionPledgeComplete, env.archiver.items[0].function)
	assert.JSONEq(t, pledgeJSON, env.archiver.items[0].payload)
	assert.Empty(t, env.reporter.messages)
}

func TestPledgeCompleteHandler_FirstUpdateFails(t *testing.T) {
	env := newTestEnv()
	env.live.On("UpdateOpportunity", mock.Anything, "006XX", mock.Anything).
		Return(http.StatusBadRequest, errors.New("salesforce: malformed request")).Twice()

	h := NewPledgeCompleteHandler(env.deps)
	err := h.Process(context.Background(), b64(pledgeJSON))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrInvalidPayload)

	env.live.AssertNumberOfCalls(t, "UpdateOpportunity", 1)
	assert.Len(t, env.reporter.messages, 1)

	// Lambda never sees the failure
	assert.NoError(t, h.Handle(context.Background(), sqsEvent(b64(pledgeJSON))))
	env.live.AssertNumberOfCalls(t, "UpdateOpportunity", 2)
	env.live.AssertExpectations(t)
	assert.Len(t, env.reporter.messages, 2)
}

func TestHandlers_InvalidPayload(t *testing.T) {
	env := newTestEnv()
	processors := []Processor{
		NewPledgeCompleteHandler(env.deps),
		NewOpportunityStageHandler(env.deps),
		NewSignupHandler(env.deps, crmsync.NewReconciler(env.reporter, &mockMeta{}, crmsync.Options{})),
	}

	for _, p := range processors {
		t.Run(p.Name(), func(t *testing.T) {
			env.reporter.messages = nil

			err := p.Process(context.Background(), b64(`{"url": "protectourwinters.uk"}`))
			assert.ErrorIs(t, err, models.ErrInvalidPayload)

			err = p.Process(context.Background(), "%%% not base64 %%%")
			assert.ErrorIs(t, err, models.ErrInvalidPayload)

			assert.Len(t, env.reporter.messages, 2)
			assert.NoError(t, HandleSQS(context.Background(), p, sqsEvent("%%%")))
		})
	}

	env.live.AssertNotCalled(t, "UpdateOpportunity", mock.Anything, mock.Anything, mock.Anything)
	env.dev.AssertNotCalled(t, "UpdateOpportunity", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, env.archiver.items)
}

func TestOpportunityStageHandler_RoutesToDev(t *testing.T) {
	env := newTestEnv()
	env.archiver.fail = true
	env.dev.On("UpdateOpportunity", mock.Anything, "006DEV", models.Fields{"StageName": "Pledged"}).
		Return(http.StatusNoContent, nil)

	h := NewOpportunityStageHandler(env.deps)
	payload := `{"url":"staging.protectourwinters.uk","opportunity_id":"006DEV","opportunity_stage":"Pledged"}`
	err := h.Process(context.Background(), b64(payload))
	require.NoError(t, err)

	env.dev.AssertExpectations(t)
	env.live.AssertNotCalled(t, "UpdateOpportunity", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignupHandler_Process(t *testing.T) {
	env := newTestEnv()
	meta := &mockMeta{}
	crm := env.live

	crm.On("FindLeadByEmail", mock.Anything, "a@b.com").Return(nil, models.ErrNotFound)
	crm.On("FindContactByEmail", mock.Anything, "a@b.com").Return(nil, models.ErrNotFound)
	crm.On("CreateContact", mock.Anything, mock.Anything).Return(&models.SaveResult{ID: "003C", Success: true}, nil)
	crm.On("QueryAccountsByName", mock.Anything, "Acme").Return([]models.AccountRef{}, nil)
	crm.On("CreateAccount", mock.Anything, models.Fields{"Name": "Acme"}).Return(&models.SaveResult{ID: "001A", Success: true}, nil)
	crm.On("GetAccount", mock.Anything, "001A").Return(&models.Account{ID: "001A", Name: "Acme", BusinessEmployees: "100"}, nil)
	crm.On("UpdateAccount", mock.Anything, "001A", mock.Anything).Return(http.StatusNoContent, nil)
	crm.On("CreateOpportunity", mock.Anything, mock.MatchedBy(func(f models.Fields) bool {
		return f["Amount"] == 100.0 && f["AccountId"] == "001A"
	})).Return(&models.SaveResult{ID: "006O", Success: true}, nil)
	meta.On("AddUserMeta", mock.Anything, "site_live", "42", crmsync.MetaAccountID, "001A").Return(nil)
	meta.On("AddUserMeta", mock.Anything, "site_live", "42", crmsync.MetaOpportunityID, "006O").Return(nil)

	reconciler := crmsync.NewReconciler(env.reporter, meta, crmsync.Options{RecordTypeID: "0124J000000hL3fQAE"})
	h := NewSignupHandler(env.deps, reconciler)

	payload := `{"url":"pledge.protectourwinters.uk\\/","email":"a@b.com","id":42,"first_name":"Ada","last_name":"Lovelace",` +
		`"business_name":"Acme","website":"https:\\/\\/acme.example","business_size":"100","business_type":"Retail"}`
	err := h.Handle(context.Background(), sqsEvent(b64(payload)))
	require.NoError(t, err)

	crm.AssertExpectations(t)
	meta.AssertExpectations(t)
	crm.AssertNumberOfCalls(t, "CreateContact", 1)
	crm.AssertNumberOfCalls(t, "CreateAccount", 1)
	crm.AssertNumberOfCalls(t, "CreateOpportunity", 1)
	assert.Empty(t, env.reporter.messages)
}
