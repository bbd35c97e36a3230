package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sendrelay/sendrelay/internal/domain"
)

// Publisher enqueues dispatch jobs. A positive delay keeps the job out of
// worker hands until the delay elapses.
type Publisher interface {
	Publish(ctx context.Context, job Job, delay time.Duration) error
	Close() error
}

// JobHandler handles a consumed dispatch job. A nil return acknowledges
// the job; an error requeues it for redelivery.
type JobHandler func(ctx context.Context, job Job) error

// Consumer consumes dispatch jobs from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler JobHandler) error
	Close() error
}

var supportedChannels = []domain.Channel{
	domain.ChannelEmail,
	domain.ChannelSMS,
	domain.ChannelInApp,
}

// QueueName returns the channel work queue name, e.g. email.
func QueueName(channel domain.Channel) string {
	return strings.ReplaceAll(strings.ToLower(channel.String()), "_", "")
}

// WaitQueueName returns the delay queue name for a channel, e.g. wait.email.
// Messages published there expire into the work queue.
func WaitQueueName(channel domain.Channel) string {
	return fmt.Sprintf("wait.%s", QueueName(channel))
}

// DLQName returns the dead-letter queue name for a channel, e.g. dlq.email.
func DLQName(channel domain.Channel) string {
	return fmt.Sprintf("dlq.%s", QueueName(channel))
}

// WorkQueueNames returns all channel work queues (3 total).
func WorkQueueNames() []string {
	queues := make([]string, 0, len(supportedChannels))
	for _, channel := range supportedChannels {
		queues = append(queues, QueueName(channel))
	}
	return queues
}

// DLQNames returns all dead-letter queues (3 total).
func DLQNames() []string {
	queues := make([]string, 0, len(supportedChannels))
	for _, channel := range supportedChannels {
		queues = append(queues, DLQName(channel))
	}
	return queues
}
