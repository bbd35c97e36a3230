package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sendrelay/sendrelay/internal/dispatch"
	"github.com/sendrelay/sendrelay/internal/domain"
	"github.com/sendrelay/sendrelay/internal/observability"
	"github.com/sendrelay/sendrelay/internal/queue"
	"github.com/sendrelay/sendrelay/internal/repository"
	"go.uber.org/zap"
)

// NotificationService is the intake side: it persists the initial PENDING
// record and enqueues the first dispatch job. Delivery itself is the
// WorkerService's business.
type NotificationService struct {
	notifications repository.NotificationRepository
	publisher     queue.Publisher
	maxAttempts   int
	logger        *zap.Logger
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	publisher queue.Publisher,
	maxAttempts int,
	logger *zap.Logger,
) (*NotificationService, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if maxAttempts < 1 {
		maxAttempts = dispatch.DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		notifications: notifications,
		publisher:     publisher,
		maxAttempts:   maxAttempts,
		logger:        logger,
	}, nil
}

// Create validates and persists a new notification, then enqueues its first
// dispatch job. The record is accepted once it is durable: if the enqueue
// fails it stays PENDING and the sweeper re-enqueues it later.
func (s *NotificationService) Create(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.prepareForCreate(notification); err != nil {
		return nil, err
	}

	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}

	job := queue.Job{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		Channel:        notification.Channel,
		Attempt:        0,
	}
	if err := s.publisher.Publish(ctx, job, 0); err != nil {
		observability.WithContextLogger(s.logger, ctx).Warn("failed to enqueue dispatch job, leaving notification pending",
			zap.String("notificationId", notification.ID),
			zap.String("channel", notification.Channel.String()),
			zap.Error(err),
		)
	}

	return notification, nil
}

func (s *NotificationService) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	return s.notifications.GetByID(ctx, strings.TrimSpace(id))
}

func (s *NotificationService) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int64, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, 0, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.notifications.ListByUser(ctx, strings.TrimSpace(userID), page, pageSize)
}

func (s *NotificationService) prepareForCreate(n *domain.Notification) error {
	if n == nil {
		return fmt.Errorf("%w: notification is required", domain.ErrValidation)
	}

	n.UserID = strings.TrimSpace(n.UserID)
	n.Message = strings.TrimSpace(n.Message)
	n.RecipientAddress = strings.TrimSpace(n.RecipientAddress)

	n.ID = strings.TrimSpace(n.ID)
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	n.Status = domain.StatusPending
	n.AttemptCount = 0
	if n.MaxAttempts <= 0 {
		n.MaxAttempts = s.maxAttempts
	}
	n.LastError = nil
	n.NextRetryAt = nil
	n.UpdatedAt = nil
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	return n.Validate()
}
