package crmsync

import (
	"context"
	"fmt"

	"pledge-salesforce-sync/internal/models"
)

// UpdateStage moves an opportunity to the stage named in the payload and
// returns Salesforce's status code.
func UpdateStage(ctx context.Context, crm OpportunityUpdater, p *models.StageChangePayload) (int, error) {
	status, err := crm.UpdateOpportunity(ctx, p.OpportunityID, models.Fields{
		"StageName": p.OpportunityStage,
	})
	if err != nil {
		return status, fmt.Errorf("failed to update stage on %s: %w", p.OpportunityID, err)
	}
	return status, nil
}
