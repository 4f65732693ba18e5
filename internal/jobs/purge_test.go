package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	before []time.Time
	err    error
}

func (f *fakePurger) PurgeExpiredNotifications(_ context.Context, before time.Time) (int64, error) {
	f.before = append(f.before, before)
	return 2, f.err
}

func TestPurgeHandler_ExplicitCutoff(t *testing.T) {
	p := &fakePurger{}
	h := NewPurgeHandler(p)
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	task, err := NewPurgeTask(cutoff)
	require.NoError(t, err)
	require.Equal(t, TypePurgeNotifications, task.Type())
	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.Len(t, p.before, 1)
	require.True(t, p.before[0].Equal(cutoff))
}

func TestPurgeHandler_ZeroCutoffMeansNow(t *testing.T) {
	p := &fakePurger{}
	h := NewPurgeHandler(p)
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	task, err := NewPurgeTask(time.Time{})
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.True(t, p.before[0].Equal(now))

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(TypePurgeNotifications, nil)))
	require.True(t, p.before[1].Equal(now))
}

func TestPurgeHandler_BadPayloadIsNotRetried(t *testing.T) {
	p := &fakePurger{}
	h := NewPurgeHandler(p)

	err := h.ProcessTask(context.Background(), asynq.NewTask(TypePurgeNotifications, []byte("{")))
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
	require.Empty(t, p.before)
}

func TestPurgeHandler_StoreErrorIsReturned(t *testing.T) {
	h := NewPurgeHandler(&fakePurger{err: errors.New("locked")})
	task, err := NewPurgeTask(time.Time{})
	require.NoError(t, err)
	require.Error(t, h.ProcessTask(context.Background(), task))
}

func TestNewWorker_RequiresRedis(t *testing.T) {
	_, err := NewWorker("", 1, "@every 1h", &fakePurger{})
	require.Error(t, err)
}
