package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sendrelay/sendrelay/internal/observability"
)

type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

// Publish enqueues a dispatch job for its channel's work queue. A positive
// delay routes the job through the channel wait queue instead, where a
// per-message TTL expires it back onto the work queue. Retry delays for a
// given notification only ever grow, so TTL ordering inside the wait queue
// cannot reorder that notification's attempts.
func (p *RabbitMQPublisher) Publish(ctx context.Context, job Job, delay time.Duration) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid dispatch job: %w", err)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch job: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    job.NotificationID,
		Body:         payload,
	}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		publishing.CorrelationId = correlationID
	}

	queueName := QueueName(job.Channel)
	if delay > 0 {
		queueName = WaitQueueName(job.Channel)
		publishing.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish job to queue %q: %w", queueName, err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
