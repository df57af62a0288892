// Package main runs the RabbitMQ worker that consumes the sync queues.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/handlers"
	"pledge-salesforce-sync/internal/services/queue"
	"pledge-salesforce-sync/internal/utils"
)

func main() {
	if err := utils.InitLogger(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := handlers.Bootstrap(ctx, "worker", true)
	if err != nil {
		logger.Fatal("Failed to bootstrap", zap.Error(err))
	}

	reconciler, err := rt.NewReconciler()
	if err != nil {
		logger.Fatal("Failed to create reconciler", zap.Error(err))
	}

	cfg := rt.Config
	routes := map[string]queue.Processor{
		cfg.PledgeCompleteQueue:   handlers.NewPledgeCompleteHandler(rt.Deps),
		cfg.PledgeSignupQueue:     handlers.NewSignupHandler(rt.Deps, reconciler),
		cfg.OpportunityStageQueue: handlers.NewOpportunityStageHandler(rt.Deps),
	}

	broker, err := queue.NewRabbitMQ(cfg.RabbitMQURL, cfg.PledgeCompleteQueue, cfg.PledgeSignupQueue, cfg.OpportunityStageQueue)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer broker.Close()

	worker := queue.NewWorker(broker.Ch, routes)
	if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", zap.Error(err))
	}
	logger.Info("Worker shut down")
}
