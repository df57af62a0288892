// Pledge Signup Lambda entry point
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

	rt, err := handlers.Bootstrap(context.Background(), handlers.FunctionPledgeSignup, true)
	if err != nil {
		panic("Failed to bootstrap: " + err.Error())
	}

	reconciler, err := rt.NewReconciler()
	if err != nil {
		panic("Failed to create reconciler: " + err.Error())
	}

	// Create handler
	handler := handlers.NewSignupHandler(rt.Deps, reconciler)

	// Start Lambda
	lambda.Start(handler.Handle)
}
