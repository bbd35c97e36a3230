package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendrelay/sendrelay/internal/domain"
	"github.com/sendrelay/sendrelay/internal/queue"
	"github.com/sendrelay/sendrelay/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSweepInterval    = 30 * time.Second
	defaultSweepLimit       = 100
	defaultPendingAge       = time.Minute
	defaultRetryGracePeriod = time.Minute
)

// Sweeper periodically rescues notifications whose dispatch job was lost:
// PENDING rows whose intake enqueue failed, and RETRYING rows whose delayed
// job never came back from the broker. Re-enqueueing is safe because the
// worker's conditional claim drops duplicates.
type Sweeper struct {
	notifications repository.NotificationRepository
	publisher     queue.Publisher
	logger        *zap.Logger
	interval      time.Duration
	limit         int
	pendingAge    time.Duration
	retryGrace    time.Duration
	now           func() time.Time
}

func NewSweeper(
	notifications repository.NotificationRepository,
	publisher queue.Publisher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*Sweeper, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
		interval:      interval,
		limit:         limit,
		pendingAge:    defaultPendingAge,
		retryGrace:    defaultRetryGracePeriod,
		now:           time.Now,
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial sweep so already-lost jobs do not wait for the first ticker edge.
	if err := s.sweep(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("sweeper initial sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("sweeper sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	now := s.now().UTC()

	stale, err := s.notifications.FindStalePending(ctx, now.Add(-s.pendingAge), s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch stale pending notifications: %w", err)
	}
	s.reenqueue(ctx, stale, "pending")

	overdue, err := s.notifications.FindOverdueRetrying(ctx, now.Add(-s.retryGrace), s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch overdue retrying notifications: %w", err)
	}
	s.reenqueue(ctx, overdue, "retrying")

	return nil
}

func (s *Sweeper) reenqueue(ctx context.Context, notifications []domain.Notification, kind string) {
	for i := range notifications {
		notification := notifications[i]
		job := queue.Job{
			NotificationID: notification.ID,
			UserID:         notification.UserID,
			Channel:        notification.Channel,
			Attempt:        notification.AttemptCount,
		}

		if err := s.publisher.Publish(ctx, job, 0); err != nil {
			s.logger.Error("failed to re-enqueue notification",
				zap.String("notificationId", notification.ID),
				zap.String("kind", kind),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("re-enqueued lost notification",
			zap.String("notificationId", notification.ID),
			zap.String("kind", kind),
			zap.String("channel", notification.Channel.String()),
		)
	}
}
