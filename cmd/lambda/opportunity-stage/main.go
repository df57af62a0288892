// Opportunity Stage Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"pledge-salesforce-sync/internal/handlers"
	"pledge-salesforce-sync/internal/utils"
)

func main() {
	// Initialize logger
	_ = utils.InitLogger("info")
	defer utils.Sync()

	rt, err := handlers.Bootstrap(context.Background(), handlers.FunctionOpportunityStage, false)
	if err != nil {
		panic("Failed to bootstrap: " + err.Error())
	}

	// Create handler
	handler := handlers.NewOpportunityStageHandler(rt.Deps)

	// Start Lambda
	lambda.Start(handler.Handle)
}
