package chat

import "strings"

// rooms tracks which connections are joined to which conversation. Callers
// hold Gateway.mu.
type rooms struct {
	members     map[string]map[*Client]struct{} // room -> connections
	memberships map[*Client]map[string]struct{} // connection -> rooms
}

func newRooms() *rooms {
	return &rooms{
		members:     map[string]map[*Client]struct{}{},
		memberships: map[*Client]map[string]struct{}{},
	}
}

func normalizeRoom(room string) string {
	return strings.TrimSpace(room)
}

func (r *rooms) join(room string, c *Client) {
	if _, ok := r.members[room]; !ok {
		r.members[room] = map[*Client]struct{}{}
	}
	r.members[room][c] = struct{}{}

	if _, ok := r.memberships[c]; !ok {
		r.memberships[c] = map[string]struct{}{}
	}
	r.memberships[c][room] = struct{}{}
}

func (r *rooms) leave(room string, c *Client) {
	if set, ok := r.members[room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
	if set, ok := r.memberships[c]; ok {
		delete(set, room)
		if len(set) == 0 {
			delete(r.memberships, c)
		}
	}
}

// drop removes c from every room it joined.
func (r *rooms) drop(c *Client) {
	for room := range r.memberships[c] {
		if set, ok := r.members[room]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(r.members, room)
			}
		}
	}
	delete(r.memberships, c)
}

func (r *rooms) has(room string, c *Client) bool {
	_, ok := r.members[room][c]
	return ok
}

// others snapshots the members of room except origin.
func (r *rooms) others(room string, origin *Client) []*Client {
	set := r.members[room]
	out := make([]*Client, 0, len(set))
	for c := range set {
		if c != origin {
			out = append(out, c)
		}
	}
	return out
}
