// Package chat is the realtime layer: presence, conversation rooms and the
// message relay.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/hanish78780/skillbridge-chat/internal/models"
	"github.com/hanish78780/skillbridge-chat/internal/store"
)

var (
	ErrNotRegistered  = errors.New("connection is not registered")
	ErrNotParticipant = errors.New("user is not a participant of this conversation")
)

// Store is the persistence the gateway needs.
type Store interface {
	Conversation(ctx context.Context, id string) (*models.Conversation, error)
	RecordMessage(ctx context.Context, m *models.Message) error
}

type Config struct {
	SendBuffer      int           // per-connection outbound queue
	EventsPerSecond int           // inbound pacing per connection, 0 disables
	OpTimeout       time.Duration // bound on each persistence call
}

// Gateway accepts connections and routes their events. Each connection's
// events are handled in order on its own goroutine; presence broadcasts are
// serialized through Run.
type Gateway struct {
	cfg       Config
	store     Store
	directory store.Directory
	presence  *Presence

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   *rooms

	presenceChanged chan struct{}
}

func NewGateway(st Store, dir store.Directory, cfg Config) *Gateway {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}
	g := &Gateway{
		cfg:             cfg,
		store:           st,
		directory:       dir,
		clients:         map[*Client]struct{}{},
		rooms:           newRooms(),
		presenceChanged: make(chan struct{}, 1),
	}
	g.presence = NewPresence(g.notifyPresence)
	return g
}

// Presence exposes the registry for read-only callers such as notification
// dispatch.
func (g *Gateway) Presence() *Presence {
	return g.presence
}

// Run broadcasts the online-user list to every connection whenever presence
// changes. Bursts of changes coalesce into one broadcast of the latest list.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.presenceChanged:
			online := g.presence.Online()
			g.mu.RLock()
			snapshot := make([]*Client, 0, len(g.clients))
			for c := range g.clients {
				snapshot = append(snapshot, c)
			}
			g.mu.RUnlock()

			for _, c := range snapshot {
				c.Emit(EventOnlineUsers, online)
			}
		}
	}
}

func (g *Gateway) notifyPresence() {
	select {
	case g.presenceChanged <- struct{}{}:
	default:
	}
}

// Serve runs one connection until it closes. authUserID is the identity
// proven at upgrade time, or "" when the connection is unauthenticated.
func (g *Gateway) Serve(ctx context.Context, conn ConnLike, authUserID string) {
	c := g.Connect(conn, authUserID)
	defer g.Disconnect(c)
	go c.WritePump()
	c.ReadPump(ctx, g)
}

// Connect admits a connection in the anonymous state.
func (g *Gateway) Connect(conn ConnLike, authUserID string) *Client {
	c := newClient(conn, authUserID, g.cfg.SendBuffer, g.cfg.EventsPerSecond)
	g.mu.Lock()
	g.clients[c] = struct{}{}
	g.mu.Unlock()
	jww.DEBUG.Printf("client %s connected", c.ID)
	return c
}

// Disconnect releases c: its presence entry if still current, and all of
// its room memberships.
func (g *Gateway) Disconnect(c *Client) {
	g.presence.Unregister(c)
	g.mu.Lock()
	delete(g.clients, c)
	g.rooms.drop(c)
	g.mu.Unlock()
	c.close()
	jww.DEBUG.Printf("client %s (%s) disconnected", c.ID, c.UserID())
}

func (g *Gateway) handle(ctx context.Context, c *Client, env *Envelope) {
	switch env.Event {
	case EventRegister:
		var userID string
		if err := json.Unmarshal(env.Data, &userID); err != nil {
			jww.WARN.Printf("client %s: bad register payload: %v", c.ID, err)
			return
		}
		g.Register(c, userID)
	case EventJoinRoom, EventLeaveRoom:
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil {
			jww.WARN.Printf("client %s: bad %s payload: %v", c.ID, env.Event, err)
			return
		}
		if env.Event == EventJoinRoom {
			_ = g.JoinRoom(ctx, c, room)
		} else {
			g.LeaveRoom(c, room)
		}
	case EventSendMessage:
		var in SendMessage
		if err := json.Unmarshal(env.Data, &in); err != nil {
			jww.WARN.Printf("client %s: bad send-message payload: %v", c.ID, err)
			return
		}
		_, _ = g.SendMessage(ctx, c, &in)
	default:
		jww.WARN.Printf("client %s: unknown event %q", c.ID, env.Event)
	}
}

// Register binds c to userID. A connection authenticated at upgrade time can
// only register as itself.
func (g *Gateway) Register(c *Client, userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		jww.WARN.Printf("client %s: register without a user id", c.ID)
		return false
	}
	if c.authUserID != "" && c.authUserID != userID {
		jww.WARN.Printf("client %s: authenticated as %s, refused register as %s", c.ID, c.authUserID, userID)
		c.emitError(ErrorEvent{Event: EventRegister, Message: "cannot register as another user"})
		return false
	}
	c.setUserID(userID)
	g.presence.Register(userID, c)
	jww.INFO.Printf("user %s registered on %s", userID, c.ID)
	return true
}

// JoinRoom adds c to the room of conversationID once the registered user is
// confirmed as one of its participants.
func (g *Gateway) JoinRoom(ctx context.Context, c *Client, conversationID string) error {
	room := normalizeRoom(conversationID)
	if room == "" {
		c.emitError(ErrorEvent{Event: EventJoinRoom, Message: "conversation id is required"})
		return errors.New("conversation id is required")
	}
	userID := c.UserID()
	if userID == "" {
		c.emitError(ErrorEvent{Event: EventJoinRoom, ConversationID: room, Message: ErrNotRegistered.Error()})
		return ErrNotRegistered
	}

	if _, err := g.authorize(ctx, room, userID); err != nil {
		jww.WARN.Printf("user %s: join %s refused: %v", userID, room, err)
		c.emitError(ErrorEvent{Event: EventJoinRoom, ConversationID: room, Message: refusal(err)})
		return err
	}

	g.mu.Lock()
	if _, connected := g.clients[c]; connected {
		g.rooms.join(room, c)
	}
	g.mu.Unlock()
	return nil
}

func (g *Gateway) LeaveRoom(c *Client, conversationID string) {
	g.mu.Lock()
	g.rooms.leave(normalizeRoom(conversationID), c)
	g.mu.Unlock()
}

// SendMessage persists the message, updates the conversation preview and then
// relays the stored message to every other connection in the room. The
// sender is not echoed; it renders its own copy. On failure nothing is
// relayed and the sender receives an error event carrying its clientId.
func (g *Gateway) SendMessage(ctx context.Context, c *Client, in *SendMessage) (*models.MessageView, error) {
	room := normalizeRoom(in.ConversationID)
	fail := func(err error, msg string) (*models.MessageView, error) {
		c.emitError(ErrorEvent{Event: EventSendMessage, ConversationID: room, ClientID: in.ClientID, Message: msg})
		return nil, err
	}

	userID := c.UserID()
	msg := &models.Message{
		ConversationID: room,
		SenderID:       userID,
		Text:           in.Text,
		Attachments:    in.Attachments,
	}
	switch {
	case userID == "":
		return fail(ErrNotRegistered, ErrNotRegistered.Error())
	case room == "":
		return fail(errors.New("conversation id is required"), "conversation id is required")
	case in.senderID() != "" && in.senderID() != userID:
		return fail(errors.New("sender does not match registered user"), "sender does not match registered user")
	case !msg.HasContent():
		return fail(errors.New("message is empty"), "message is empty")
	}

	g.mu.RLock()
	joined := g.rooms.has(room, c)
	g.mu.RUnlock()
	if !joined {
		if _, err := g.authorize(ctx, room, userID); err != nil {
			jww.WARN.Printf("user %s: send to %s refused: %v", userID, room, err)
			return fail(err, refusal(err))
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, g.cfg.OpTimeout)
	err := g.store.RecordMessage(opCtx, msg)
	cancel()
	if err != nil {
		jww.ERROR.Printf("user %s: persist message to %s failed: %+v", userID, room, err)
		return fail(err, "message could not be saved")
	}

	view := msg.View(g.summary(ctx, userID))
	frame, err := encode(EventReceiveMessage, &view)
	if err != nil {
		jww.ERROR.Printf("encode message %s: %v", msg.ID, err)
		return &view, nil
	}

	g.mu.RLock()
	targets := g.rooms.others(room, c)
	g.mu.RUnlock()
	for _, t := range targets {
		t.push(frame)
	}
	jww.DEBUG.Printf("message %s in %s relayed to %d connections", msg.ID, room, len(targets))
	return &view, nil
}

func (g *Gateway) authorize(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	opCtx, cancel := context.WithTimeout(ctx, g.cfg.OpTimeout)
	defer cancel()
	conv, err := g.store.Conversation(opCtx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (g *Gateway) summary(ctx context.Context, userID string) models.UserSummary {
	if g.directory == nil {
		return models.UserSummary{ID: userID}
	}
	opCtx, cancel := context.WithTimeout(ctx, g.cfg.OpTimeout)
	defer cancel()
	sum, err := g.directory.Summary(opCtx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			jww.WARN.Printf("resolve sender %s: %v", userID, err)
		}
		return models.UserSummary{ID: userID}
	}
	return sum
}

func refusal(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, ErrNotParticipant):
		return ErrNotParticipant.Error()
	}
	return "conversation unavailable"
}
