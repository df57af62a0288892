// Health Check Lambda entry point
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

	rt, err := handlers.Bootstrap(context.Background(), "health", true)
	if err != nil {
		panic("Failed to bootstrap: " + err.Error())
	}

	// Start Lambda
	lambda.Start(rt.NewHealthHandler().Handle)
}
