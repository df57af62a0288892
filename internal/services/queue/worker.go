package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/utils"
)

// Processor handles one base64 encoded event.
type Processor interface {
	Process(ctx context.Context, data string) error
}

// Worker consumes every routed queue and hands each delivery to its processor.
type Worker struct {
	Channel  *amqp.Channel
	Routes   map[string]Processor
	Prefetch int
}

// NewWorker creates a worker over ch. routes maps queue names to processors.
func NewWorker(ch *amqp.Channel, routes map[string]Processor) *Worker {
	return &Worker{Channel: ch, Routes: routes, Prefetch: 1}
}

// Start consumes until ctx is cancelled or the broker closes a consumer.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Channel.Qos(w.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	var wg sync.WaitGroup
	for queueName, p := range w.Routes {
		msgs, err := w.Channel.Consume(
			queueName, // queue
			"",        // consumer
			false,     // auto-ack
			false,     // exclusive
			false,     // no-local
			false,     // no-wait
			nil,       // args
		)
		if err != nil {
			return fmt.Errorf("failed to consume %s: %w", queueName, err)
		}

		wg.Add(1)
		go func(queueName string, p Processor, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						utils.GetLogger().Warn("Consumer closed", zap.String("queue", queueName))
						return
					}
					w.handle(ctx, queueName, p, d)
				}
			}
		}(queueName, p, msgs)

		utils.GetLogger().Info("Worker consuming", zap.String("queue", queueName))
	}

	wg.Wait()
	return ctx.Err()
}

// handle acks every processed delivery, including ones whose sync failed,
// since those failures are already reported. Payloads that can never
// succeed are rejected without requeue so they land in the dead letter queue.
func (w *Worker) handle(ctx context.Context, queueName string, p Processor, d amqp.Delivery) {
	logger := utils.GetLogger().With(
		zap.String("queue", queueName),
		zap.Uint64("deliveryTag", d.DeliveryTag),
	)

	err := p.Process(ctx, string(d.Body))
	switch {
	case err == nil:
		logger.Debug("Message processed")
	case errors.Is(err, models.ErrInvalidPayload):
		logger.Warn("Rejecting invalid message", zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	default:
		logger.Warn("Message handled with errors", zap.Error(err))
	}

	if ackErr := d.Ack(false); ackErr != nil {
		logger.Error("Failed to ack message", zap.Error(ackErr))
	}
}
