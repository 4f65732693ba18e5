package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/auth"
	"github.com/hanish78780/skillbridge-chat/internal/models"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

type publishNotificationRequest struct {
	RecipientID string                  `json:"recipientId"`
	Type        models.NotificationType `json:"type"`
	Message     string                  `json:"message"`
	Link        string                  `json:"link"`
}

type publishedNotification struct {
	Notification models.NotificationView `json:"notification"`
	Delivered    bool                    `json:"delivered"`
}

type notificationList struct {
	Notifications []models.NotificationView `json:"notifications"`
	UnreadCount   int64                     `json:"unreadCount"`
}

// ListNotifications GET /notifications
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	list, unread, err := h.store.Notifications(ctx, auth.UserID(c), h.notificationsLimit)
	if err != nil {
		jww.ERROR.Printf("list notifications: %+v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not load notifications")
	}
	out := notificationList{Notifications: make([]models.NotificationView, 0, len(list)), UnreadCount: unread}
	for i := range list {
		out.Notifications = append(out.Notifications, list[i].View(h.senderSummary(ctx, list[i].SenderID)))
	}
	return c.JSON(out)
}

// PublishNotification POST /notifications
// Entry point for the project, task and review services. The caller is
// recorded as the sender.
func (h *Handlers) PublishNotification(c *fiber.Ctx) error {
	var req publishNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.RecipientID = strings.TrimSpace(req.RecipientID)
	switch {
	case req.RecipientID == "":
		return fiber.NewError(fiber.StatusBadRequest, "recipientId is required")
	case !req.Type.Valid():
		return fiber.NewError(fiber.StatusBadRequest, "unknown notification type")
	case strings.TrimSpace(req.Message) == "":
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	view, pushed, err := h.dispatcher.Dispatch(ctx, &models.Notification{
		RecipientID: req.RecipientID,
		SenderID:    auth.UserID(c),
		Type:        req.Type,
		Message:     req.Message,
		Link:        req.Link,
	})
	if err != nil {
		jww.ERROR.Printf("publish notification: %+v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not record notification")
	}
	return c.Status(fiber.StatusCreated).JSON(publishedNotification{Notification: view, Delivered: pushed})
}

// MarkNotificationRead PUT /notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	n, err := h.store.MarkNotificationRead(ctx, auth.UserID(c), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "notification not found")
	}
	if err != nil {
		jww.ERROR.Printf("mark notification read: %+v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not update notification")
	}
	return c.JSON(n.View(h.senderSummary(ctx, n.SenderID)))
}

// MarkAllNotificationsRead PUT /notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	n, err := h.store.MarkAllNotificationsRead(ctx, auth.UserID(c))
	if err != nil {
		jww.ERROR.Printf("mark all notifications read: %+v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "could not update notifications")
	}
	return c.JSON(fiber.Map{"message": "all notifications marked as read", "updated": n})
}

func (h *Handlers) senderSummary(ctx context.Context, id string) *models.UserSummary {
	if id == "" {
		return nil
	}
	sum := h.summary(ctx, id)
	return &sum
}
