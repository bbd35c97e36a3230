package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sendrelay/sendrelay/internal/domain"
)

func TestInboxServiceListByUser(t *testing.T) {
	t.Parallel()

	repo := &fakeInboxRepo{
		listByUserFn: func(ctx context.Context, userID string, page, pageSize int) ([]domain.InboxMessage, int64, error) {
			if userID != "u1" {
				t.Fatalf("user id = %q, want u1", userID)
			}
			return []domain.InboxMessage{{ID: "m1", UserID: "u1"}}, 1, nil
		},
	}

	svc, err := NewInboxService(repo)
	if err != nil {
		t.Fatalf("NewInboxService() error = %v", err)
	}

	items, total, err := svc.ListByUser(context.Background(), "u1", 1, 20)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != "m1" {
		t.Fatalf("ListByUser() = %v total %d, want one item m1", items, total)
	}

	_, _, err = svc.ListByUser(context.Background(), " ", 1, 20)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ListByUser() error = %v, want ErrValidation", err)
	}
}

func TestInboxServiceMarkRead(t *testing.T) {
	t.Parallel()

	var markedID string
	repo := &fakeInboxRepo{
		markReadFn: func(ctx context.Context, id string) error {
			markedID = id
			return nil
		},
	}

	svc, err := NewInboxService(repo)
	if err != nil {
		t.Fatalf("NewInboxService() error = %v", err)
	}

	if err := svc.MarkRead(context.Background(), "m1"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if markedID != "m1" {
		t.Fatalf("marked id = %q, want m1", markedID)
	}

	if err := svc.MarkRead(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("MarkRead() error = %v, want ErrValidation", err)
	}
}

type fakeInboxRepo struct {
	createFn     func(ctx context.Context, msg *domain.InboxMessage) error
	listByUserFn func(ctx context.Context, userID string, page, pageSize int) ([]domain.InboxMessage, int64, error)
	markReadFn   func(ctx context.Context, id string) error
}

func (f *fakeInboxRepo) Create(ctx context.Context, msg *domain.InboxMessage) error {
	if f.createFn != nil {
		return f.createFn(ctx, msg)
	}
	return nil
}

func (f *fakeInboxRepo) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.InboxMessage, int64, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

func (f *fakeInboxRepo) MarkRead(ctx context.Context, id string) error {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, id)
	}
	return nil
}
