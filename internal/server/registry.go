package server

import (
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/louisbranch/gavel/internal/area"
)

// TargetType selects the identity space a moderation command resolves
// targets in.
type TargetType int

const (
	// TargetIP matches network address prefixes.
	TargetIP TargetType = iota
	// TargetIPID matches the pseudonymous address id exactly.
	TargetIPID
	// TargetHDID matches the hardware id exactly.
	TargetHDID
	// TargetID matches the numeric session id exactly.
	TargetID
	// TargetCharName matches selected character name prefixes.
	TargetCharName
	// TargetOOCName matches display name prefixes.
	TargetOOCName
)

// targetTypeNames maps command keywords to target types.
var targetTypeNames = map[string]TargetType{
	"ip":   TargetIP,
	"ipid": TargetIPID,
	"hdid": TargetHDID,
	"id":   TargetID,
	"char": TargetCharName,
	"ooc":  TargetOOCName,
}

// parseTargetType resolves a command keyword to its target type.
func parseTargetType(keyword string) (TargetType, bool) {
	kind, ok := targetTypeNames[strings.ToLower(keyword)]
	return kind, ok
}

// Registry tracks every live session and hands out connection ids.
type Registry struct {
	mu      sync.Mutex
	clients map[int]*Client
	nextID  int
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int]*Client)}
}

// Add registers a new session and assigns it the lowest free id.
func (r *Registry) Add(srv *Server, conn net.Conn, ipid string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := 0
	for {
		if _, taken := r.clients[id]; !taken {
			break
		}
		id++
	}
	c := &Client{
		srv:     srv,
		conn:    conn,
		ID:      id,
		ipid:    ipid,
		charID:  -1,
		isDJ:    true,
		canWTCE: true,
		area:    srv.areas.Default(),
	}
	r.clients[id] = c
	return c
}

// Remove drops a session from the registry.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c.ID)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// All returns every live session in id order.
func (r *Registry) All() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// InArea returns the sessions currently in the given room, in id order.
func (r *Registry) InArea(a *area.Area) []*Client {
	var members []*Client
	for _, c := range r.All() {
		if c.Area() == a {
			members = append(members, c)
		}
	}
	return members
}

// CountInArea returns how many sessions occupy the room.
func (r *Registry) CountInArea(a *area.Area) int {
	return len(r.InArea(a))
}

// IsCharTaken reports whether any session in the room holds the character.
func (r *Registry) IsCharTaken(a *area.Area, cid int) bool {
	return r.IsCharTakenBy(a, cid, nil)
}

// IsCharTakenBy reports whether a session other than except holds the
// character in the room.
func (r *Registry) IsCharTakenBy(a *area.Area, cid int, except *Client) bool {
	if cid == -1 {
		return false
	}
	for _, c := range r.InArea(a) {
		if c != except && c.CharID() == cid {
			return true
		}
	}
	return false
}

// GetTargets resolves a value in the given identity space to the matching
// sessions. Name spaces match on lowercase prefixes; id spaces match
// exactly. With localOnly set, only the caller's room is searched.
func (r *Registry) GetTargets(caller *Client, kind TargetType, value string, localOnly bool) []*Client {
	var pool []*Client
	if localOnly {
		pool = r.InArea(caller.Area())
	} else {
		pool = r.All()
	}

	needle := strings.ToLower(value)
	var targets []*Client
	for _, c := range pool {
		var match bool
		switch kind {
		case TargetIP:
			match = strings.HasPrefix(strings.ToLower(addrHost(c.conn)), needle)
		case TargetIPID:
			match = c.ipid == value
		case TargetHDID:
			match = c.HDID() == value
		case TargetID:
			match = strconv.Itoa(c.ID) == value
		case TargetCharName:
			match = strings.HasPrefix(strings.ToLower(c.CharName()), needle)
		case TargetOOCName:
			match = strings.HasPrefix(strings.ToLower(c.Name()), needle)
		}
		if match {
			targets = append(targets, c)
		}
	}
	return targets
}

func addrHost(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
