package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm/clause"

	"github.com/hanish78780/skillbridge-chat/internal/models"
)

// FindOrCreateConversation returns the conversation between a and b, creating
// it if none exists. The insert is ON CONFLICT DO NOTHING on the pair key, so
// two callers racing for the same pair end up with the same record. created
// reports whether this call inserted it.
func (s *Store) FindOrCreateConversation(ctx context.Context, a, b string) (conv *models.Conversation, created bool, err error) {
	if a == "" || b == "" {
		return nil, false, errors.New("both participants are required")
	}
	if a == b {
		return nil, false, errors.New("a conversation needs two distinct participants")
	}

	key := models.PairKey(a, b)
	existing := &models.Conversation{}
	switch err := notFound(s.db.WithContext(ctx).Where("pair_key = ?", key).Take(existing).Error); {
	case err == nil:
		return existing, false, nil
	case err != ErrNotFound:
		return nil, false, errors.Wrap(err, "lookup conversation")
	}

	now := s.now()
	conv = models.NewConversation(a, b)
	conv.CreatedAt, conv.UpdatedAt = now, now
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_key"}}, DoNothing: true}).
		Create(conv)
	if res.Error != nil {
		return nil, false, errors.Wrap(res.Error, "create conversation")
	}
	if res.RowsAffected == 1 {
		return conv, true, nil
	}

	// lost the race; the winner's row is authoritative
	winner := &models.Conversation{}
	if err = s.db.WithContext(ctx).Where("pair_key = ?", key).Take(winner).Error; err != nil {
		return nil, false, errors.Wrap(err, "reload conversation")
	}
	return winner, false, nil
}

// Conversation loads one conversation by id.
func (s *Store) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv := &models.Conversation{}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(conv).Error; err != nil {
		return nil, notFound(err)
	}
	return conv, nil
}

// ConversationsFor lists userID's conversations, most recently updated first.
func (s *Store) ConversationsFor(ctx context.Context, userID string) ([]models.Conversation, error) {
	var out []models.Conversation
	err := s.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list conversations for %s", userID)
	}
	return out, nil
}
