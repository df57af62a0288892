package handlers

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/services/crmsync"
)

// OpportunityStageHandler moves an opportunity to a new stage.
type OpportunityStageHandler struct {
	base
}

// NewOpportunityStageHandler creates a new opportunity-stage handler.
func NewOpportunityStageHandler(deps Deps) *OpportunityStageHandler {
	return &OpportunityStageHandler{base: newBase(FunctionOpportunityStage, deps)}
}

// Handle processes an SQS batch of stage change events.
func (h *OpportunityStageHandler) Handle(ctx context.Context, event events.SQSEvent) error {
	return HandleSQS(ctx, h, event)
}

// Process handles a single base64 encoded stage change payload.
func (h *OpportunityStageHandler) Process(ctx context.Context, data string) error {
	logger := h.invocationLogger(ctx)

	var p models.StageChangePayload
	if err := h.decode(ctx, logger, data, &p); err != nil {
		return err
	}

	sess := h.sessions.Select(p.URL)
	status, err := crmsync.UpdateStage(ctx, sess.CRM, &p)
	if err != nil {
		h.reporter.Report(ctx, fmt.Sprintf("Stage update to %q failed for opportunity %s: %v", p.OpportunityStage, p.OpportunityID, err))
		return err
	}

	logger.Info("Opportunity stage updated",
		zap.String("tenant", string(sess.Tenant)),
		zap.String("opportunityID", p.OpportunityID),
		zap.String("stage", p.OpportunityStage),
		zap.Int("status", status),
	)
	return nil
}
