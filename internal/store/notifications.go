package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hanish78780/skillbridge-chat/internal/models"
)

// CreateNotification stores n. ExpiresAt defaults to creation time plus the
// store's notification TTL.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.RecipientID == "" {
		return errors.New("notification needs a recipient")
	}
	if !n.Type.Valid() {
		return errors.Errorf("unknown notification type %q", n.Type)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = n.CreatedAt.Add(s.notificationTTL)
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(n).Error, "insert notification")
}

// Notifications returns up to limit live notifications for recipient, newest
// first, together with the recipient's unread count.
func (s *Store) Notifications(ctx context.Context, recipient string, limit int) ([]models.Notification, int64, error) {
	now := s.now()
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND expires_at > ?", recipient, now).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list notifications")
	}

	var unread int64
	err = s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ? AND expires_at > ?", recipient, false, now).
		Count(&unread).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "count unread notifications")
	}
	return out, unread, nil
}

// MarkNotificationRead flags one of recipient's notifications as read.
func (s *Store) MarkNotificationRead(ctx context.Context, recipient, id string) (*models.Notification, error) {
	n := &models.Notification{}
	err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ? AND expires_at > ?", id, recipient, s.now()).
		Take(n).Error
	if err != nil {
		return nil, notFound(err)
	}
	if n.Read {
		return n, nil
	}
	if err := s.db.WithContext(ctx).Model(n).Update("read", true).Error; err != nil {
		return nil, errors.Wrap(err, "mark notification read")
	}
	n.Read = true
	return n, nil
}

// MarkAllNotificationsRead flags every unread live notification of recipient
// and returns how many changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipient string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ? AND expires_at > ?", recipient, false, s.now()).
		Update("read", true)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "mark all notifications read")
	}
	return res.RowsAffected, nil
}

// PurgeExpiredNotifications deletes notifications whose TTL passed before.
func (s *Store) PurgeExpiredNotifications(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "purge notifications")
	}
	return res.RowsAffected, nil
}
