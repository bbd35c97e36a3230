package domain

import "time"

// InboxMessage is the persisted form of an in-app notification, readable
// by the owning user. Writing this row is what "delivery" means for the
// IN_APP channel.
type InboxMessage struct {
	ID             string
	UserID         string
	NotificationID string
	Message        string
	ReadAt         *time.Time
	CreatedAt      time.Time
}
