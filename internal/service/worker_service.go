package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sendrelay/sendrelay/internal/dispatch"
	"github.com/sendrelay/sendrelay/internal/domain"
	"github.com/sendrelay/sendrelay/internal/observability"
	"github.com/sendrelay/sendrelay/internal/queue"
	"github.com/sendrelay/sendrelay/internal/ratelimit"
	"github.com/sendrelay/sendrelay/internal/repository"
	"github.com/sendrelay/sendrelay/internal/sender"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1
	defaultSendTimeout   = 15 * time.Second
)

// WorkerService runs the dispatch worker pool. Each worker consumes one
// channel work queue and processes jobs end to end: claim the notification,
// invoke the channel sender under a per-attempt timeout, classify the
// outcome, transition status and, on a transient failure, enqueue the
// delayed retry.
type WorkerService struct {
	notifications repository.NotificationRepository
	consumer      queue.Consumer
	publisher     queue.Publisher
	senders       *sender.Registry
	rateLimiter   ratelimit.RateLimiter
	policy        dispatch.RetryPolicy
	sendTimeout   time.Duration
	logger        *zap.Logger
	metrics       *observability.Metrics
	concurrency   int
	now           func() time.Time
}

func NewWorkerService(
	notifications repository.NotificationRepository,
	consumer queue.Consumer,
	publisher queue.Publisher,
	senders *sender.Registry,
	rateLimiter ratelimit.RateLimiter,
	policy dispatch.RetryPolicy,
	sendTimeout time.Duration,
	concurrency int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if senders == nil {
		return nil, fmt.Errorf("sender registry is required")
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		notifications: notifications,
		consumer:      consumer,
		publisher:     publisher,
		senders:       senders,
		rateLimiter:   rateLimiter,
		policy:        policy,
		sendTimeout:   sendTimeout,
		logger:        logger,
		concurrency:   concurrency,
		now:           time.Now,
	}, nil
}

func (s *WorkerService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start consumes channel queues and processes dispatch jobs until context
// cancellation.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := s.consumer.Consume(groupCtx, queueName, s.processJob)
			if err != nil {
				s.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

// processJob handles one queued delivery attempt. A nil return acknowledges
// the job; an error leaves it unacknowledged for redelivery. Only genuine
// infrastructure failures (store or broker unreachable) return an error:
// delivery failures are absorbed into notification status.
func (s *WorkerService) processJob(ctx context.Context, job queue.Job) error {
	logger := observability.WithContextLogger(s.logger, ctx)

	notification, err := s.notifications.ClaimForSending(ctx, job.NotificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Integrity error: the job references a row that does not exist.
			// Retrying cannot self-heal, so ack and move on.
			logger.Warn("notification not found for job, acknowledging",
				zap.String("notificationId", job.NotificationID),
			)
			return nil
		}
		return fmt.Errorf("failed to claim notification: %w", err)
	}

	// Nil means the row is already SENDING or terminal: a duplicate
	// delivery of the same job. Ack without dispatching.
	if notification == nil {
		logger.Debug("duplicate job for claimed or terminal notification, skipping",
			zap.String("notificationId", job.NotificationID),
		)
		return nil
	}

	channelName := queue.QueueName(notification.Channel)
	if s.metrics != nil {
		s.metrics.IncWorkerInFlight(channelName)
		defer s.metrics.DecWorkerInFlight(channelName)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, channelName); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	sendErr := s.attemptSend(ctx, *notification, channelName)

	// The row's own attempt budget wins over the configured default.
	policy := s.policy
	if notification.MaxAttempts > 0 {
		policy.MaxAttempts = notification.MaxAttempts
	}

	decision := dispatch.Classify(sendErr, notification.AttemptCount, policy)
	switch decision.Kind {
	case dispatch.Succeed:
		if err := s.notifications.MarkSent(ctx, notification.ID); err != nil {
			return fmt.Errorf("failed to mark notification sent: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncNotificationSent(channelName)
		}

	case dispatch.RetryAfter:
		nextRetryAt := s.now().Add(decision.Delay)
		if err := s.notifications.MarkRetrying(ctx, notification.ID, decision.Reason, nextRetryAt); err != nil {
			return fmt.Errorf("failed to mark notification retrying: %w", err)
		}

		retryJob := queue.Job{
			NotificationID: notification.ID,
			UserID:         notification.UserID,
			Channel:        notification.Channel,
			Attempt:        notification.AttemptCount,
		}
		if err := s.publisher.Publish(ctx, retryJob, decision.Delay); err != nil {
			// Leave the job unacknowledged; redelivery re-claims the
			// RETRYING row and the sweeper covers the stragglers.
			return fmt.Errorf("failed to enqueue retry: %w", err)
		}
		if s.metrics != nil {
			s.metrics.IncRetryScheduled(channelName)
		}
		logger.Info("delivery attempt failed, retry scheduled",
			zap.String("notificationId", notification.ID),
			zap.Int("attempt", notification.AttemptCount),
			zap.Duration("delay", decision.Delay),
		)

	case dispatch.GiveUp:
		if err := s.notifications.MarkFailed(ctx, notification.ID, decision.Reason); err != nil {
			return fmt.Errorf("failed to mark notification failed: %w", err)
		}
		if s.metrics != nil {
			reason := "permanent_error"
			if decision.Reason == dispatch.ReasonMaxAttempts {
				reason = "retry_exhausted"
			}
			s.metrics.IncNotificationFailed(channelName, reason)
		}
		logger.Warn("notification failed",
			zap.String("notificationId", notification.ID),
			zap.Int("attempt", notification.AttemptCount),
			zap.String("reason", decision.Reason),
		)
	}

	return nil
}

// attemptSend resolves the channel sender and invokes it under the
// per-attempt timeout. A sender that does not respond in time surfaces
// context.DeadlineExceeded, which classifies transient.
func (s *WorkerService) attemptSend(ctx context.Context, n domain.Notification, channelName string) error {
	snd, err := s.senders.For(n.Channel)
	if err != nil {
		return err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	start := s.now()
	sendErr := snd.Send(attemptCtx, n)
	if s.metrics != nil {
		s.metrics.ObserveNotificationSendDuration(channelName, s.now().Sub(start))
	}

	return sendErr
}
