package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sendrelay/sendrelay/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository is the status store port of the dispatch engine.
// ClaimForSending and the Mark* methods are conditional updates: they only
// apply when the observed status matches the expected pre-state, which is
// what serializes concurrent workers racing on the same notification.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int64, error)
	ClaimForSending(ctx context.Context, id string) (*domain.Notification, error)
	MarkSent(ctx context.Context, id string) error
	MarkRetrying(ctx context.Context, id string, lastError string, nextRetryAt time.Time) error
	MarkFailed(ctx context.Context, id string, lastError string) error
	FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Notification, error)
	FindOverdueRetrying(ctx context.Context, asOf time.Time, limit int) ([]domain.Notification, error)
}

type GormNotificationRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db, now: time.Now}
}

func (r *GormNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	return nil
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = max(page, 1)
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []NotificationModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, total, nil
}

// ClaimForSending atomically moves a PENDING or RETRYING notification to
// SENDING and increments its attempt count. It returns (nil, nil) when the
// row exists but could not be claimed, which covers duplicate deliveries of
// the same job: the notification is already SENDING or terminal.
func (r *GormNotificationRepo) ClaimForSending(ctx context.Context, id string) (*domain.Notification, error) {
	now := r.now().UTC()

	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND status IN ?", id, []domain.Status{domain.StatusPending, domain.StatusRetrying}).
		Updates(map[string]any{
			"status":        domain.StatusSending,
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"next_retry_at": nil,
			"updated_at":    now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Either missing or not claimable; tell the two apart for the caller.
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func (r *GormNotificationRepo) MarkSent(ctx context.Context, id string) error {
	return r.transitionFromSending(ctx, id, map[string]any{
		"status":        domain.StatusSent,
		"last_error":    nil,
		"next_retry_at": nil,
		"updated_at":    r.now().UTC(),
	})
}

func (r *GormNotificationRepo) MarkRetrying(ctx context.Context, id string, lastError string, nextRetryAt time.Time) error {
	return r.transitionFromSending(ctx, id, map[string]any{
		"status":        domain.StatusRetrying,
		"last_error":    lastError,
		"next_retry_at": nextRetryAt.UTC(),
		"updated_at":    r.now().UTC(),
	})
}

func (r *GormNotificationRepo) MarkFailed(ctx context.Context, id string, lastError string) error {
	return r.transitionFromSending(ctx, id, map[string]any{
		"status":        domain.StatusFailed,
		"last_error":    lastError,
		"next_retry_at": nil,
		"updated_at":    r.now().UTC(),
	})
}

func (r *GormNotificationRepo) transitionFromSending(ctx context.Context, id string, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND status = ?", id, domain.StatusSending).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrConflict
	}
	return nil
}

// FindStalePending returns PENDING notifications created before olderThan.
// These are rows whose initial enqueue was lost or never happened.
func (r *GormNotificationRepo) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", domain.StatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return modelsToDomain(models), nil
}

// FindOverdueRetrying returns RETRYING notifications whose next attempt was
// due at or before asOf. Callers pass a grace-adjusted asOf so retries whose
// delayed job is still riding the broker are not double-enqueued.
func (r *GormNotificationRepo) FindOverdueRetrying(ctx context.Context, asOf time.Time, limit int) ([]domain.Notification, error) {
	var models []NotificationModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", domain.StatusRetrying, asOf).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return modelsToDomain(models), nil
}

func modelsToDomain(models []NotificationModel) []domain.Notification {
	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}
	return notifications
}
