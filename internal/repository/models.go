package repository

import (
	"time"

	"github.com/sendrelay/sendrelay/internal/domain"
)

// NotificationModel is the persistence model for the notifications table.
// UpdatedAt is managed by hand: it stays NULL until the first status
// transition, so gorm's automatic touch tracking is disabled for it.
type NotificationModel struct {
	ID               string         `gorm:"type:uuid;primaryKey"`
	UserID           string         `gorm:"type:varchar(36);not null;index"`
	Channel          domain.Channel `gorm:"type:varchar(10);not null"`
	Message          string         `gorm:"type:text;not null"`
	RecipientAddress string         `gorm:"type:varchar(255)"`
	Status           domain.Status  `gorm:"type:varchar(20);not null"`
	AttemptCount     int            `gorm:"not null;default:0"`
	MaxAttempts      int            `gorm:"not null;default:3"`
	LastError        *string        `gorm:"type:text"`
	NextRetryAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        *time.Time `gorm:"autoUpdateTime:false"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// InboxMessageModel is the persistence model for inbox_messages.
type InboxMessageModel struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	UserID         string `gorm:"type:varchar(36);not null;index"`
	NotificationID string `gorm:"type:uuid"`
	Message        string `gorm:"type:text;not null"`
	ReadAt         *time.Time
	CreatedAt      time.Time
}

func (InboxMessageModel) TableName() string {
	return "inbox_messages"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:               n.ID,
		UserID:           n.UserID,
		Channel:          n.Channel,
		Message:          n.Message,
		RecipientAddress: n.RecipientAddress,
		Status:           n.Status,
		AttemptCount:     n.AttemptCount,
		MaxAttempts:      n.MaxAttempts,
		LastError:        n.LastError,
		NextRetryAt:      n.NextRetryAt,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:               m.ID,
		UserID:           m.UserID,
		Channel:          m.Channel,
		Message:          m.Message,
		RecipientAddress: m.RecipientAddress,
		Status:           m.Status,
		AttemptCount:     m.AttemptCount,
		MaxAttempts:      m.MaxAttempts,
		LastError:        m.LastError,
		NextRetryAt:      m.NextRetryAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func inboxModelFromDomain(msg *domain.InboxMessage) *InboxMessageModel {
	if msg == nil {
		return nil
	}

	return &InboxMessageModel{
		ID:             msg.ID,
		UserID:         msg.UserID,
		NotificationID: msg.NotificationID,
		Message:        msg.Message,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
}

func inboxModelToDomain(m *InboxMessageModel) *domain.InboxMessage {
	if m == nil {
		return nil
	}

	return &domain.InboxMessage{
		ID:             m.ID,
		UserID:         m.UserID,
		NotificationID: m.NotificationID,
		Message:        m.Message,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}
