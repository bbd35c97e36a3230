package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sendrelay/sendrelay/internal/domain"
	"gorm.io/gorm"
)

type InboxRepository interface {
	Create(ctx context.Context, msg *domain.InboxMessage) error
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.InboxMessage, int64, error)
	MarkRead(ctx context.Context, id string) error
}

type GormInboxRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormInboxRepo(db *gorm.DB) *GormInboxRepo {
	return &GormInboxRepo{db: db, now: time.Now}
}

func (r *GormInboxRepo) Create(ctx context.Context, msg *domain.InboxMessage) error {
	model := inboxModelFromDomain(msg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if msg != nil {
		*msg = *inboxModelToDomain(model)
	}
	return nil
}

func (r *GormInboxRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.InboxMessage, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&InboxMessageModel{}).
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

	var models []InboxMessageModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	messages := make([]domain.InboxMessage, 0, len(models))
	for i := range models {
		messages = append(messages, *inboxModelToDomain(&models[i]))
	}

	return messages, total, nil
}

// MarkRead is idempotent: marking an already-read message is a no-op.
func (r *GormInboxRepo) MarkRead(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&InboxMessageModel{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", r.now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var model InboxMessageModel
		err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}
