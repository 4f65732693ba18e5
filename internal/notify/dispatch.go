// Package notify records cross-user notifications and pushes them live to
// recipients that are online.
package notify

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/chat"
	"github.com/hanish78780/skillbridge-chat/internal/models"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

// Store is where notifications are recorded.
type Store interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Registry resolves a recipient to its live connection.
type Registry interface {
	Lookup(userID string) (*chat.Client, bool)
}

// Dispatcher writes the durable record first and only then attempts the live
// push, so a pushed notification is always visible to a later poll.
type Dispatcher struct {
	store     Store
	registry  Registry
	directory store.Directory
}

func NewDispatcher(st Store, registry Registry, dir store.Directory) *Dispatcher {
	return &Dispatcher{store: st, registry: registry, directory: dir}
}

// Dispatch stores n and pushes it if the recipient is online. pushed is false
// when the recipient is offline or its connection could not take the frame;
// neither is an error.
func (d *Dispatcher) Dispatch(ctx context.Context, n *models.Notification) (view models.NotificationView, pushed bool, err error) {
	if err := d.store.CreateNotification(ctx, n); err != nil {
		return view, false, errors.Wrapf(err, "record %s notification for %s", n.Type, n.RecipientID)
	}
	view = n.View(d.sender(ctx, n.SenderID))

	client, ok := d.registry.Lookup(n.RecipientID)
	if !ok {
		jww.DEBUG.Printf("notification %s: %s offline, left for polling", n.ID, n.RecipientID)
		return view, false, nil
	}
	pushed = client.Emit(chat.EventNotification, &view)
	return view, pushed, nil
}

func (d *Dispatcher) sender(ctx context.Context, id string) *models.UserSummary {
	if id == "" {
		return nil
	}
	sum := models.UserSummary{ID: id}
	if d.directory != nil {
		if s, err := d.directory.Summary(ctx, id); err == nil {
			sum = s
		} else if !errors.Is(err, store.ErrNotFound) {
			jww.WARN.Printf("resolve notification sender %s: %v", id, err)
		}
	}
	return &sum
}
