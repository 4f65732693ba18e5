package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hanish78780/skillbridge-chat/internal/models"
)

// RecordMessage inserts m and updates the parent conversation's preview and
// timestamps in one transaction. ID and CreatedAt are assigned here.
func (s *Store) RecordMessage(ctx context.Context, m *models.Message) error {
	if m.ConversationID == "" || m.SenderID == "" {
		return errors.New("message needs a conversation and a sender")
	}
	m.ID = ""
	m.CreatedAt = s.now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return errors.Wrap(err, "insert message")
		}
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", m.ConversationID).
			Updates(map[string]interface{}{
				"last_message":    m.Preview(),
				"last_message_at": m.CreatedAt,
				"updated_at":      m.CreatedAt,
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update conversation preview")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Messages returns the full history of a conversation, oldest first.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var out []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list messages of %s", conversationID)
	}
	return out, nil
}
