// Package main provides a local HTTP server that receives Pub/Sub push
// deliveries for the sync functions and either processes them inline or
// forwards them to RabbitMQ for the worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/handlers"
	"pledge-salesforce-sync/internal/services/queue"
	"pledge-salesforce-sync/internal/utils"
)

func main() {
	// Initialize logger first
	if err := utils.InitLogger(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := handlers.Bootstrap(ctx, "server", true)
	if err != nil {
		logger.Fatal("Failed to bootstrap", zap.Error(err))
	}

	reconciler, err := rt.NewReconciler()
	if err != nil {
		logger.Fatal("Failed to create reconciler", zap.Error(err))
	}

	opts := handlers.RouterOptions{
		Processors: map[string]handlers.Processor{
			handlers.FunctionPledgeComplete:   handlers.NewPledgeCompleteHandler(rt.Deps),
			handlers.FunctionPledgeSignup:     handlers.NewSignupHandler(rt.Deps, reconciler),
			handlers.FunctionOpportunityStage: handlers.NewOpportunityStageHandler(rt.Deps),
		},
		Health: rt.NewHealthHandler(),
	}

	if rt.Config.ServerEnqueue {
		queues := rt.Config.QueueNames()
		names := make([]string, 0, len(queues))
		for _, q := range queues {
			names = append(names, q)
		}
		broker, err := queue.NewRabbitMQ(rt.Config.RabbitMQURL, names...)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer broker.Close()

		opts.Publisher = broker
		opts.Queues = queues
		logger.Info("Events will be queued for the worker")
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + rt.Config.Port,
		Handler:           handlers.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Pledge sync server listening",
		zap.String("addr", srv.Addr),
		zap.String("stage", rt.Config.Stage),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
