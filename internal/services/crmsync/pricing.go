package crmsync

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pledge-salesforce-sync/internal/services/reporting"
)

// DefaultOpportunityValue is used for employee buckets missing from the price table.
var DefaultOpportunityValue = decimal.RequireFromString("50.00")

// opportunityPrices maps the account's employee-count bucket to a pledge amount.
var opportunityPrices = map[string]decimal.Decimal{
	"100": decimal.NewFromInt(100),
}

// OpportunityValue prices an opportunity from the employee bucket. Unknown
// buckets are reported and priced at DefaultOpportunityValue.
func OpportunityValue(ctx context.Context, reporter reporting.Reporter, employees string) decimal.Decimal {
	if value, ok := opportunityPrices[employees]; ok {
		return value
	}
	reporter.Report(ctx, fmt.Sprintf("There was an error in the employee numbers. The number of employees was %s", employees))
	return DefaultOpportunityValue
}
