// Package jobs holds the background tasks run by the worker command.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

const TypePurgeNotifications = "notifications:purge"

// Purger deletes notifications whose TTL has passed.
type Purger interface {
	PurgeExpiredNotifications(ctx context.Context, before time.Time) (int64, error)
}

type purgePayload struct {
	Before time.Time `json:"before,omitempty"`
}

// NewPurgeTask builds a purge task. A zero before means "now" at processing
// time, which is what the periodic schedule uses.
func NewPurgeTask(before time.Time) (*asynq.Task, error) {
	b, err := json.Marshal(purgePayload{Before: before})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePurgeNotifications, b, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// PurgeHandler processes purge tasks against p.
type PurgeHandler struct {
	p   Purger
	now func() time.Time
}

func NewPurgeHandler(p Purger) *PurgeHandler {
	return &PurgeHandler{p: p, now: func() time.Time { return time.Now().UTC() }}
}

func (h *PurgeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p purgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return errors.Wrapf(asynq.SkipRetry, "decode purge payload: %v", err)
		}
	}
	before := p.Before
	if before.IsZero() {
		before = h.now()
	}
	n, err := h.p.PurgeExpiredNotifications(ctx, before)
	if err != nil {
		return err
	}
	jww.INFO.Printf("purged %d expired notifications", n)
	return nil
}
