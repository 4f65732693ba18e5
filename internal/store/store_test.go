package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanish78780/skillbridge-chat/internal/models"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// steppingClock returns a clock that advances by step on every read.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	db, err := Open(DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	s := New(db, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	require.Error(t, err)
}

func TestFindOrCreateConversation_SamePairEitherDirection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, []string{"alice", "bob"}, first.Participants())

	again, created, err := s.FindOrCreateConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, again.ID)
}

func TestFindOrCreateConversation_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.FindOrCreateConversation(ctx, "alice", "alice")
	require.Error(t, err)
	_, _, err = s.FindOrCreateConversation(ctx, "alice", "")
	require.Error(t, err)
}

// Both users opening a chat with each other at the same moment must end up
// in one thread.
func TestFindOrCreateConversation_ConcurrentStartsYieldOneRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const callers = 16
	ids := make([]string, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			a, b := "alice", "bob"
			if i%2 == 1 {
				a, b = b, a
			}
			conv, _, err := s.FindOrCreateConversation(ctx, a, b)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, s.DB().Model(&models.Conversation{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRecordMessage_UpdatesConversationPreview(t *testing.T) {
	s := newTestStore(t, WithClock(steppingClock(epoch, time.Second)))
	ctx := context.Background()
	conv, _, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	msg := &models.Message{ConversationID: conv.ID, SenderID: "alice", Text: "hi"}
	require.NoError(t, s.RecordMessage(ctx, msg))
	require.NotEmpty(t, msg.ID)

	got, err := s.Conversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, "hi", got.LastMessage)
	require.True(t, got.LastMessageAt.Equal(msg.CreatedAt))
	require.True(t, got.UpdatedAt.Equal(msg.CreatedAt))

	att := &models.Message{
		ConversationID: conv.ID,
		SenderID:       "bob",
		Attachments:    []models.Attachment{{URL: "/uploads/x.png", FileType: models.FileImage, OriginalName: "x.png"}},
	}
	require.NoError(t, s.RecordMessage(ctx, att))
	got, err = s.Conversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, "Sent an attachment", got.LastMessage)
}

func TestRecordMessage_UnknownConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.RecordMessage(ctx, &models.Message{ConversationID: "missing", SenderID: "alice", Text: "hi"})
	require.ErrorIs(t, err, ErrNotFound)

	msgs, err := s.Messages(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestMessages_OldestFirst(t *testing.T) {
	s := newTestStore(t, WithClock(steppingClock(epoch, time.Millisecond)))
	ctx := context.Background()
	conv, _, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)

	for i, sender := range []string{"alice", "bob", "alice", "alice", "bob"} {
		m := &models.Message{ConversationID: conv.ID, SenderID: sender, Text: string(rune('a' + i))}
		require.NoError(t, s.RecordMessage(ctx, m))
	}

	msgs, err := s.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i := 1; i < len(msgs); i++ {
		require.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}
	require.Equal(t, "a", msgs[0].Text)
	require.Equal(t, "e", msgs[4].Text)
	require.NotNil(t, msgs[0].View(models.UserSummary{ID: "alice"}).Attachments)
}

func TestConversationsFor_MostRecentlyUpdatedFirst(t *testing.T) {
	s := newTestStore(t, WithClock(steppingClock(epoch, time.Second)))
	ctx := context.Background()

	withBob, _, err := s.FindOrCreateConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	withCarol, _, err := s.FindOrCreateConversation(ctx, "carol", "alice")
	require.NoError(t, err)
	_, _, err = s.FindOrCreateConversation(ctx, "bob", "carol")
	require.NoError(t, err)

	require.NoError(t, s.RecordMessage(ctx, &models.Message{ConversationID: withBob.ID, SenderID: "bob", Text: "latest"}))

	list, err := s.ConversationsFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, withBob.ID, list[0].ID)
	require.Equal(t, withCarol.ID, list[1].ID)
}

func TestNotifications_ListUnreadAndExpiry(t *testing.T) {
	clock := steppingClock(epoch, time.Minute)
	s := newTestStore(t, WithClock(clock), WithNotificationTTL(time.Hour))
	ctx := context.Background()

	old := &models.Notification{RecipientID: "bob", Type: models.NotifySystem, Message: "old",
		CreatedAt: epoch.Add(-2 * time.Hour)}
	require.NoError(t, s.CreateNotification(ctx, old))
	require.True(t, old.ExpiresAt.Equal(old.CreatedAt.Add(time.Hour)))

	for _, text := range []string{"first", "second", "third"} {
		n := &models.Notification{RecipientID: "bob", SenderID: "alice", Type: models.NotifyTaskAssigned, Message: text}
		require.NoError(t, s.CreateNotification(ctx, n))
	}
	require.NoError(t, s.CreateNotification(ctx, &models.Notification{RecipientID: "carol", Type: models.NotifySystem, Message: "x"}))

	list, unread, err := s.Notifications(ctx, "bob", 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, unread)
	require.Len(t, list, 2)
	require.Equal(t, "third", list[0].Message)
	require.Equal(t, "second", list[1].Message)

	purged, err := s.PurgeExpiredNotifications(ctx, clock())
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)
}

func TestCreateNotification_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.Error(t, s.CreateNotification(ctx, &models.Notification{Type: models.NotifySystem, Message: "x"}))
	require.Error(t, s.CreateNotification(ctx, &models.Notification{RecipientID: "bob", Type: "comment", Message: "x"}))
}

func TestMarkNotificationRead_ScopedToRecipient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{RecipientID: "bob", Type: models.NotifyReviewReceived, Message: "review"}
	require.NoError(t, s.CreateNotification(ctx, n))

	_, err := s.MarkNotificationRead(ctx, "alice", n.ID)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.MarkNotificationRead(ctx, "bob", n.ID)
	require.NoError(t, err)
	require.True(t, got.Read)

	_, unread, err := s.Notifications(ctx, "bob", 10)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateNotification(ctx, &models.Notification{RecipientID: "bob", Type: models.NotifySystem, Message: "m"}))
	}
	require.NoError(t, s.CreateNotification(ctx, &models.Notification{RecipientID: "alice", Type: models.NotifySystem, Message: "m"}))
	expired := &models.Notification{RecipientID: "bob", Type: models.NotifySystem, Message: "stale",
		CreatedAt: time.Now().UTC().Add(-60 * 24 * time.Hour)}
	require.NoError(t, s.CreateNotification(ctx, expired))

	// only notifications the recipient can still list are counted
	changed, err := s.MarkAllNotificationsRead(ctx, "bob")
	require.NoError(t, err)
	require.EqualValues(t, 3, changed)

	_, unread, err := s.Notifications(ctx, "alice", 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread)
}

func TestSaveUserAndSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveUser(ctx, &models.User{ID: "alice", Name: "Alice", Avatar: "a.png"}))
	require.NoError(t, s.SaveUser(ctx, &models.User{ID: "alice", Name: "Alice B", Avatar: "b.png"}))

	sum, err := s.Summary(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, models.UserSummary{ID: "alice", Name: "Alice B", Avatar: "b.png"}, sum)

	sum, err = s.Summary(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, "ghost", sum.ID)
}
