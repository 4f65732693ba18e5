package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm/clause"

	"github.com/hanish78780/skillbridge-chat/internal/models"
)

// SaveUser inserts or updates the display fields of a user. The identity
// service owns users; this keeps the local copy the chat core renders from.
func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "avatar", "updated_at"}),
	}).Create(u).Error
	return errors.Wrap(err, "save user")
}

func (s *Store) User(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(u).Error; err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// Summary resolves id to display fields. Unknown users yield ErrNotFound.
func (s *Store) Summary(ctx context.Context, id string) (models.UserSummary, error) {
	u, err := s.User(ctx, id)
	if err != nil {
		return models.UserSummary{ID: id}, err
	}
	return u.Summary(), nil
}
