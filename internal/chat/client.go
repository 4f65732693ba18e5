package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	jww "github.com/spf13/jwalterweatherman"
	"go.uber.org/ratelimit"
)

// ConnLike is the part of a websocket connection the gateway needs.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// Client is one accepted connection. It starts anonymous and becomes bound to
// a user identity by a register event.
type Client struct {
	ID   string
	Conn ConnLike

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	limiter   ratelimit.Limiter

	mu         sync.RWMutex
	userID     string
	authUserID string
}

func newClient(conn ConnLike, authUserID string, buffer, perSecond int) *Client {
	if buffer <= 0 {
		buffer = 16
	}
	limiter := ratelimit.NewUnlimited()
	if perSecond > 0 {
		limiter = ratelimit.New(perSecond)
	}
	return &Client{
		ID:         uuid.NewString(),
		Conn:       conn,
		send:       make(chan []byte, buffer),
		done:       make(chan struct{}),
		limiter:    limiter,
		authUserID: authUserID,
	}
}

// UserID is the registered identity, or "" while anonymous.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) setUserID(id string) (previous string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous, c.userID = c.userID, id
	return previous
}

// Emit queues an event for the write pump. It never blocks: a full buffer or
// a closed client drops the event and returns false.
func (c *Client) Emit(event string, data interface{}) bool {
	b, err := encode(event, data)
	if err != nil {
		jww.ERROR.Printf("client %s: encode %s: %v", c.ID, event, err)
		return false
	}
	return c.push(b)
}

func (c *Client) push(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		jww.WARN.Printf("client %s (%s): send buffer full, dropping frame", c.ID, c.UserID())
		return false
	}
}

func (c *Client) emitError(e ErrorEvent) {
	c.Emit(EventError, e)
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the client has disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadPump handles inbound frames one at a time until the connection fails.
// Each event is finished before the next is read.
func (c *Client) ReadPump(ctx context.Context, g *Gateway) {
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			jww.DEBUG.Printf("client %s: read ended: %v", c.ID, err)
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			jww.WARN.Printf("client %s: malformed frame: %v", c.ID, err)
			continue
		}
		c.limiter.Take()
		g.handle(ctx, c, &env)
	}
}

// WritePump drains queued frames onto the connection.
func (c *Client) WritePump() {
	for {
		select {
		case data := <-c.send:
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				jww.DEBUG.Printf("client %s: write failed: %v", c.ID, err)
				_ = c.Conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
