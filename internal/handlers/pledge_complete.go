package handlers

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/services/crmsync"
)

// PledgeCompleteHandler closes an opportunity once its pledge has been paid for.
type PledgeCompleteHandler struct {
	base
}

// NewPledgeCompleteHandler creates a new pledge-complete handler.
func NewPledgeCompleteHandler(deps Deps) *PledgeCompleteHandler {
	return &PledgeCompleteHandler{base: newBase(FunctionPledgeComplete, deps)}
}

// Handle processes an SQS batch of pledge-complete events.
func (h *PledgeCompleteHandler) Handle(ctx context.Context, event events.SQSEvent) error {
	return HandleSQS(ctx, h, event)
}

// Process handles a single base64 encoded pledge-complete payload.
func (h *PledgeCompleteHandler) Process(ctx context.Context, data string) error {
	logger := h.invocationLogger(ctx)

	var p models.PledgeCompletePayload
	if err := h.decode(ctx, logger, data, &p); err != nil {
		return err
	}

	sess := h.sessions.Select(p.URL)
	logger = logger.With(
		zap.String("tenant", string(sess.Tenant)),
		zap.String("opportunityID", p.OpportunityID),
	)
	logger.Info("Completing pledge",
		zap.String("pledgeLevel", p.PledgeLevel.String()),
		zap.String("pledgeCost", p.PledgeCost.Decimal.String()),
		zap.String("expiryDate", p.ExpiryDate),
	)

	result, err := crmsync.CompletePledge(ctx, sess.CRM, &p, h.now())
	if err != nil {
		h.reporter.Report(ctx, fmt.Sprintf("Pledge completion failed for opportunity %s: %v", p.OpportunityID, err))
		return err
	}

	if !result.Closed {
		logger.Warn("Opportunity not closed",
			zap.Int("recordStatus", result.RecordStatus),
			zap.Int("closeStatus", result.CloseStatus),
		)
		return nil
	}

	logger.Info("Opportunity closed won",
		zap.Int("recordStatus", result.RecordStatus),
		zap.Int("closeStatus", result.CloseStatus),
	)
	return nil
}
