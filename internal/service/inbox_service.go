package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendrelay/sendrelay/internal/domain"
	"github.com/sendrelay/sendrelay/internal/repository"
)

// InboxService exposes the in-app inbox to the API layer.
type InboxService struct {
	inbox repository.InboxRepository
}

func NewInboxService(inbox repository.InboxRepository) (*InboxService, error) {
	if inbox == nil {
		return nil, fmt.Errorf("inbox repository is required")
	}
	return &InboxService{inbox: inbox}, nil
}

func (s *InboxService) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.InboxMessage, int64, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, 0, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.inbox.ListByUser(ctx, strings.TrimSpace(userID), page, pageSize)
}

func (s *InboxService) MarkRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: message id is required", domain.ErrValidation)
	}
	return s.inbox.MarkRead(ctx, strings.TrimSpace(id))
}
