package sender

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sendrelay/sendrelay/internal/domain"
)

// InboxWriter persists in-app messages. Satisfied by repository.InboxRepository.
type InboxWriter interface {
	Create(ctx context.Context, msg *domain.InboxMessage) error
}

// InAppSender "delivers" by writing an inbox row the user can read.
// There is no external provider, so the only transient failure mode is
// the store write itself.
type InAppSender struct {
	inbox InboxWriter
	now   func() time.Time
}

func NewInAppSender(inbox InboxWriter) (*InAppSender, error) {
	if inbox == nil {
		return nil, fmt.Errorf("inbox writer is required")
	}
	return &InAppSender{inbox: inbox, now: time.Now}, nil
}

func (s *InAppSender) Send(ctx context.Context, n domain.Notification) error {
	if strings.TrimSpace(n.UserID) == "" {
		return &Error{Permanent: true, Message: "in-app delivery requires a user id"}
	}
	if strings.TrimSpace(n.Message) == "" {
		return &Error{Permanent: true, Message: "in-app message is empty"}
	}

	record := &domain.InboxMessage{
		ID:             uuid.NewString(),
		UserID:         n.UserID,
		NotificationID: n.ID,
		Message:        n.Message,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.inbox.Create(ctx, record); err != nil {
		return &Error{Message: "inbox write failed", Cause: err}
	}

	return nil
}
