// Package handlers contains the entry points of the pledge sync functions.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/services/crmsync"
	"pledge-salesforce-sync/internal/services/reporting"
	"pledge-salesforce-sync/internal/utils"
)

// Function names, also used as archive prefixes and queue routing keys.
const (
	FunctionPledgeComplete   = "pledge-complete"
	FunctionPledgeSignup     = "pledge-signup"
	FunctionOpportunityStage = "opportunity-stage"
)

// Archiver stores decoded payloads for later inspection.
type Archiver interface {
	Archive(ctx context.Context, function string, payload []byte) (string, error)
}

// Processor handles one base64 encoded message. An error wrapping
// models.ErrInvalidPayload means the message can never succeed.
type Processor interface {
	Name() string
	Process(ctx context.Context, data string) error
}

// Deps are the process-wide collaborators shared by every invocation.
type Deps struct {
	Sessions *crmsync.Sessions
	Reporter reporting.Reporter
	Archiver Archiver
	Now      func() time.Time
}

type base struct {
	name     string
	sessions *crmsync.Sessions
	reporter reporting.Reporter
	archiver Archiver
	now      func() time.Time
}

func newBase(name string, deps Deps) base {
	b := base{
		name:     name,
		sessions: deps.Sessions,
		reporter: deps.Reporter,
		archiver: deps.Archiver,
		now:      deps.Now,
	}
	if b.reporter == nil {
		b.reporter = reporting.LogReporter{}
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Name returns the function name.
func (b *base) Name() string {
	return b.name
}

// invocationLogger tags log lines with the Lambda request id when there is
// one and a fresh uuid otherwise.
func (b *base) invocationLogger(ctx context.Context) *zap.Logger {
	id := uuid.New().String()
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		id = lc.AwsRequestID
	}
	return utils.ForInvocation(b.name, id)
}

// decode decodes and validates data into out. Invalid payloads are reported.
// Valid payloads are archived when an archiver is configured.
func (b *base) decode(ctx context.Context, logger *zap.Logger, data string, out models.Validatable) error {
	raw, err := models.DecodePayload(data, out)
	if err != nil {
		b.reporter.Report(ctx, fmt.Sprintf("Rejected %s payload: %v", b.name, err))
		return err
	}

	if b.archiver != nil {
		key, err := b.archiver.Archive(ctx, b.name, raw)
		if err != nil {
			logger.Warn("Failed to archive payload", zap.Error(err))
		} else {
			logger.Debug("Archived payload", zap.String("key", key))
		}
	}
	return nil
}

// HandleSQS runs p over every record of an SQS batch. Records are never
// handed back for redelivery; failures are logged and reported instead.
func HandleSQS(ctx context.Context, p Processor, event events.SQSEvent) error {
	logger := utils.GetLogger().With(zap.String("function", p.Name()))

	for _, record := range event.Records {
		err := p.Process(ctx, record.Body)
		switch {
		case err == nil:
			logger.Debug("Processed message", zap.String("messageID", record.MessageId))
		case errors.Is(err, models.ErrInvalidPayload):
			logger.Warn("Dropped invalid message", zap.String("messageID", record.MessageId), zap.Error(err))
		default:
			logger.Warn("Message handled with errors", zap.String("messageID", record.MessageId), zap.Error(err))
		}
	}
	return nil
}

// HandlePush runs p over a Pub/Sub push envelope.
func HandlePush(ctx context.Context, p Processor, envelope models.PushEnvelope) error {
	return p.Process(ctx, envelope.Message.Data)
}
