package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/auth"
	"github.com/hanish78780/skillbridge-chat/internal/models"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

// invalidator is implemented by directories that cache summaries.
type invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

// SyncUser copies the profile carried by the caller's token into the local
// user table, so senders and participants render with their display fields.
// Tokens without a name are left alone. Failures are logged and never block
// the request.
func (h *Handlers) SyncUser(c *fiber.Ctx) error {
	claims := auth.ClaimsOf(c)
	if claims != nil && claims.Name != "" {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		h.syncUser(ctx, claims)
		cancel()
	}
	return c.Next()
}

func (h *Handlers) syncUser(ctx context.Context, claims *auth.Claims) {
	current, err := h.store.User(ctx, claims.UserID)
	switch {
	case err == nil:
		if current.Name == claims.Name && current.Email == claims.Email && current.Avatar == claims.Avatar {
			return
		}
	case !errors.Is(err, store.ErrNotFound):
		jww.WARN.Printf("sync user %s: %+v", claims.UserID, err)
		return
	}

	u := &models.User{ID: claims.UserID, Name: claims.Name, Email: claims.Email, Avatar: claims.Avatar}
	if err := h.store.SaveUser(ctx, u); err != nil {
		jww.WARN.Printf("sync user %s: %+v", claims.UserID, err)
		return
	}
	if inv, ok := h.directory.(invalidator); ok {
		if err := inv.Invalidate(ctx, claims.UserID); err != nil {
			jww.WARN.Printf("invalidate cached user %s: %v", claims.UserID, err)
		}
	}
	jww.DEBUG.Printf("synced profile of user %s", claims.UserID)
}
