package queue

import (
	"fmt"
	"strings"

	"github.com/sendrelay/sendrelay/internal/domain"
)

// Job is the broker payload for one delivery attempt. Attempt carries the
// attempt count observed at enqueue time; the store remains authoritative
// once a worker claims the notification.
type Job struct {
	NotificationID string         `json:"notificationId"`
	UserID         string         `json:"userId,omitempty"`
	Channel        domain.Channel `json:"channel"`
	Attempt        int            `json:"attempt"`
}

func (j Job) Validate() error {
	if strings.TrimSpace(j.NotificationID) == "" {
		return fmt.Errorf("notificationId is required")
	}
	if !j.Channel.IsValid() {
		return fmt.Errorf("invalid channel %q", j.Channel)
	}
	if j.Attempt < 0 {
		return fmt.Errorf("attempt must be non-negative")
	}
	return nil
}
