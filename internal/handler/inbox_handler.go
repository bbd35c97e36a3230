package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sendrelay/sendrelay/internal/domain"
)

type InboxService interface {
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]domain.InboxMessage, int64, error)
	MarkRead(ctx context.Context, id string) error
}

type InboxHandler struct {
	service InboxService
}

func NewInboxHandler(service InboxService) (*InboxHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("inbox service is required")
	}
	return &InboxHandler{service: service}, nil
}

func RegisterInboxRoutes(router fiber.Router, service InboxService) error {
	h, err := NewInboxHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/users/:userId/inbox", h.ListInbox)
	v1.Post("/inbox/:id/read", h.MarkRead)

	return nil
}

type inboxMessageResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	NotificationID string     `json:"notificationId"`
	Message        string     `json:"message"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type listInboxResponse struct {
	Data []inboxMessageResponse `json:"data"`
	Meta listMeta               `json:"meta"`
}

func (h *InboxHandler) ListInbox(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))

	page, pageSize, err := parsePagination(c)
	if err != nil {
		return toHTTPError(err)
	}

	messages, total, err := h.service.ListByUser(c.UserContext(), userID, page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]inboxMessageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, inboxMessageResponse{
			ID:             msg.ID,
			UserID:         msg.UserID,
			NotificationID: msg.NotificationID,
			Message:        msg.Message,
			ReadAt:         msg.ReadAt,
			CreatedAt:      msg.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(listInboxResponse{
		Data: responses,
		Meta: listMeta{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func (h *InboxHandler) MarkRead(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.MarkRead(c.UserContext(), id); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"messageId": id,
		"read":      true,
	})
}
