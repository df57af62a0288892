package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/services/crmsync"
)

// SignupHandler reconciles a new pledge signup into Salesforce.
type SignupHandler struct {
	base
	reconciler *crmsync.Reconciler
}

// NewSignupHandler creates a new signup handler.
func NewSignupHandler(deps Deps, reconciler *crmsync.Reconciler) *SignupHandler {
	return &SignupHandler{
		base:       newBase(FunctionPledgeSignup, deps),
		reconciler: reconciler,
	}
}

// Handle processes an SQS batch of signup events.
func (h *SignupHandler) Handle(ctx context.Context, event events.SQSEvent) error {
	return HandleSQS(ctx, h, event)
}

// Process handles a single base64 encoded signup payload.
func (h *SignupHandler) Process(ctx context.Context, data string) error {
	logger := h.invocationLogger(ctx)

	var p models.SignupPayload
	if err := h.decode(ctx, logger, data, &p); err != nil {
		return err
	}

	sess := h.sessions.Select(p.URL)
	logger = logger.With(
		zap.String("tenant", string(sess.Tenant)),
		zap.String("userID", p.UserID.String()),
	)
	logger.Info("Reconciling signup",
		zap.String("email", p.Email),
		zap.String("businessName", p.BusinessName),
		zap.String("businessSize", p.BusinessSize.String()),
	)

	// Steps report their own failures
	result, err := h.reconciler.Run(ctx, sess, &p)
	if err != nil {
		logger.Warn("Signup reconciliation stopped early", zap.Error(err))
		return err
	}

	logger.Info("Signup reconciled",
		zap.String("leadID", result.LeadID),
		zap.Bool("leadConverted", result.LeadConverted),
		zap.String("contactID", result.Contact.ID),
		zap.String("accountID", result.Account.ID),
		zap.String("opportunityID", result.Opportunity.ID),
	)
	return nil
}
