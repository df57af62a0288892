package handlers

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"pledge-salesforce-sync/internal/models"
)

type mockCRM struct {
	mock.Mock
	limitsErr error
}

func (m *mockCRM) Limits(ctx context.Context) error {
	return m.limitsErr
}

func (m *mockCRM) FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	args := m.Called(ctx, email)
	lead, _ := args.Get(0).(*models.Lead)
	return lead, args.Error(1)
}

func (m *mockCRM) ConvertLead(ctx context.Context, leadID string) error {
	return m.Called(ctx, leadID).Error(0)
}

func (m *mockCRM) FindContactByEmail(ctx context.Context, email string) (*models.Contact, error) {
	args := m.Called(ctx, email)
	contact, _ := args.Get(0).(*models.Contact)
	return contact, args.Error(1)
}

func (m *mockCRM) CreateContact(ctx context.Context, fields models.Fields) (*models.SaveResult, error) {
	args := m.Called(ctx, fields)
	res, _ := args.Get(0).(*models.SaveResult)
	return res, args.Error(1)
}

func (m *mockCRM) QueryAccountsByName(ctx context.Context, name string) ([]models.AccountRef, error) {
	args := m.Called(ctx, name)
	refs, _ := args.Get(0).([]models.AccountRef)
	return refs, args.Error(1)
}

func (m *mockCRM) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *mockCRM) CreateAccount(ctx context.Context, fields models.Fields) (*models.SaveResult, error) {
	args := m.Called(ctx, fields)
	res, _ := args.Get(0).(*models.SaveResult)
	return res, args.Error(1)
}

func (m *mockCRM) UpdateAccount(ctx context.Context, id string, fields models.Fields) (int, error) {
	args := m.Called(ctx, id, fields)
	return args.Int(0), args.Error(1)
}

func (m *mockCRM) CreateOpportunity(ctx context.Context, fields models.Fields) (*models.SaveResult, error) {
	args := m.Called(ctx, fields)
	res, _ := args.Get(0).(*models.SaveResult)
	return res, args.Error(1)
}

func (m *mockCRM) UpdateOpportunity(ctx context.Context, id string, fields models.Fields) (int, error) {
	args := m.Called(ctx, id, fields)
	return args.Int(0), args.Error(1)
}

type mockMeta struct {
	mock.Mock
}

func (m *mockMeta) AddUserMeta(ctx context.Context, database, userID, key, value string) error {
	return m.Called(ctx, database, userID, key, value).Error(0)
}

type recordingReporter struct {
	messages []string
}

func (r *recordingReporter) Report(_ context.Context, message string) {
	r.messages = append(r.messages, message)
}

type archived struct {
	function string
	payload  string
}

type fakeArchiver struct {
	items []archived
	fail  bool
}

func (f *fakeArchiver) Archive(_ context.Context, function string, payload []byte) (string, error) {
	if f.fail {
		return "", errors.New("bucket missing")
	}
	f.items = append(f.items, archived{function: function, payload: string(payload)})
	return function + "/key.json", nil
}

type fakeDB struct {
	failing map[string]bool
	checked []string
}

func (f *fakeDB) HealthCheck(_ context.Context, database string) error {
	f.checked = append(f.checked, database)
	if f.failing[database] {
		return errors.New("connection refused")
	}
	return nil
}

type fakePublisher struct {
	queue string
	body  string
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, queue string, body []byte) error {
	f.queue = queue
	f.body = string(body)
	return f.err
}
