// Package queue carries sync events over RabbitMQ for the long-running worker.
package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DLXName is the dead letter exchange shared by every function queue.
const DLXName = "ex.pledge-sync.dlx"

// RabbitMQ owns the broker connection and a channel with the topology declared.
type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

// NewRabbitMQ connects to url and declares queues, each with its own
// dead letter queue.
func NewRabbitMQ(url string, queues ...string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupTopology(ch, queues); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

// DeadLetterQueue returns the name of the dead letter queue for queue.
func DeadLetterQueue(queue string) string {
	return queue + ".dlq"
}

func setupTopology(ch *amqp.Channel, queues []string) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	for _, q := range queues {
		dlq := DeadLetterQueue(q)
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return err
		}
		if err := ch.QueueBind(dlq, q, DLXName, false, nil); err != nil {
			return err
		}

		// Nacked messages are routed to the DLX under the queue's own name
		args := amqp.Table{
			"x-dead-letter-exchange":    DLXName,
			"x-dead-letter-routing-key": q,
		}
		if _, err := ch.QueueDeclare(q, true, false, false, false, args); err != nil {
			return err
		}
	}
	return nil
}

// Publish sends body to queue through the default exchange.
func (r *RabbitMQ) Publish(ctx context.Context, queue string, body []byte) error {
	err := r.Ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "text/plain",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	if err := r.Ch.Close(); err != nil {
		r.Conn.Close()
		return err
	}
	return r.Conn.Close()
}
