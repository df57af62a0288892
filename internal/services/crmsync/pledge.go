package crmsync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pledge-salesforce-sync/internal/models"
)

// PledgeResult records the outcome of both pledge completion updates.
type PledgeResult struct {
	RecordStatus int
	CloseStatus  int
	Closed       bool
}

// CompletePledge records the pledge dates and level on the opportunity and,
// only when Salesforce answers 204 to that, closes it as won.
func CompletePledge(ctx context.Context, crm OpportunityUpdater, p *models.PledgeCompletePayload, now time.Time) (*PledgeResult, error) {
	today := now.Format(dateLayout)
	result := &PledgeResult{}

	status, err := crm.UpdateOpportunity(ctx, p.OpportunityID, models.Fields{
		"The_Pledge_Start_Date__c": today,
		"The_Pledge_End_Date__c":   p.ExpiryDate,
		"Pledge_Origin__c":         PledgeOriginNew,
		"The_Pledge_Level__c":      p.PledgeLevel.String(),
	})
	result.RecordStatus = status
	if err != nil {
		return result, fmt.Errorf("failed to record pledge on %s: %w", p.OpportunityID, err)
	}
	if status != http.StatusNoContent {
		return result, nil
	}

	status, err = crm.UpdateOpportunity(ctx, p.OpportunityID, models.Fields{
		"CloseDate": today,
		"Amount":    p.PledgeCost.Decimal.InexactFloat64(),
		"StageName": StageClosedWon,
		"npe01__Do_Not_Automatically_Create_Payment__c": p.DoNotCreatePayment,
	})
	result.CloseStatus = status
	if err != nil {
		return result, fmt.Errorf("failed to close opportunity %s: %w", p.OpportunityID, err)
	}
	result.Closed = status == http.StatusNoContent
	return result, nil
}
