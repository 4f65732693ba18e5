package chat

import (
	"sort"
	"sync"
)

// Presence maps user identities to the single connection that receives their
// pushes. The last registration for a user wins. It is written only by the
// gateway and may be read concurrently by anyone.
type Presence struct {
	mu       sync.RWMutex
	byUser   map[string]*Client
	byClient map[*Client]string

	onChange func()
}

// NewPresence returns an empty registry. onChange, if set, runs after every
// successful register or unregister.
func NewPresence(onChange func()) *Presence {
	return &Presence{
		byUser:   map[string]*Client{},
		byClient: map[*Client]string{},
		onChange: onChange,
	}
}

// Register binds userID to c, replacing any earlier connection for userID. A
// connection re-registering under another identity drops its old binding.
func (p *Presence) Register(userID string, c *Client) {
	p.mu.Lock()
	if old, ok := p.byClient[c]; ok && old != userID && p.byUser[old] == c {
		delete(p.byUser, old)
	}
	if prev, ok := p.byUser[userID]; ok && prev != c {
		delete(p.byClient, prev)
	}
	p.byUser[userID] = c
	p.byClient[c] = userID
	p.mu.Unlock()

	p.changed()
}

// Unregister removes c if it is still the registered connection of its user.
// It reports whether anything was removed; a superseded connection is a no-op.
func (p *Presence) Unregister(c *Client) bool {
	p.mu.Lock()
	userID, ok := p.byClient[c]
	if ok {
		delete(p.byClient, c)
		if p.byUser[userID] == c {
			delete(p.byUser, userID)
		}
	}
	p.mu.Unlock()

	if ok {
		p.changed()
	}
	return ok
}

// Lookup returns the connection currently registered for userID.
func (p *Presence) Lookup(userID string) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.byUser[userID]
	return c, ok
}

// Online lists registered user ids in sorted order.
func (p *Presence) Online() []string {
	p.mu.RLock()
	out := make([]string, 0, len(p.byUser))
	for id := range p.byUser {
		out = append(out, id)
	}
	p.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (p *Presence) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}
