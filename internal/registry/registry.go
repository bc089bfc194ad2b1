package registry

import (
	"sync"

	"github.com/google/uuid"
)

// Sender is the outbound side of a live connection. Implementations must
// never block: a slow client is the sender's problem, not the dispatcher's.
type Sender interface {
	TrySend(frame []byte) error
	IsOpen() bool
}

// Conn is the registry's record of one live transport session. Identity
// fields are empty until the client joins a room.
type Conn struct {
	ID            string
	UserID        string
	UserName      string
	RoomID        string
	ScreenSlot    string
	Color         string
	WebcamEnabled bool
	Sender        Sender
}

// Registry tracks every live connection by id. Lookups return copies so
// callers never observe a half-written identity update.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func New() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Register creates an entry in the unjoined state and returns its id.
func (r *Registry) Register(s Sender) string {
	id := uuid.New().String()

	r.mu.Lock()
	r.conns[id] = &Conn{ID: id, Sender: s}
	r.mu.Unlock()
	return id
}

func (r *Registry) Lookup(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return Conn{}, false
	}
	return *c, true
}

// LookupByUserID scans for the connection a participant id is bound to.
// Linear scan; connection counts are small.
func (r *Registry) LookupByUserID(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.conns {
		if c.UserID == userID {
			return *c, true
		}
	}
	return Conn{}, false
}

// SetIdentity binds a participant identity and room membership to a
// connection after a successful join.
func (r *Registry) SetIdentity(id, userID, userName, roomID, screenSlot, color string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[id]; ok {
		c.UserID = userID
		c.UserName = userName
		c.RoomID = roomID
		c.ScreenSlot = screenSlot
		c.Color = color
	}
}

// ClearRoom detaches a connection from its room without dropping the entry.
func (r *Registry) ClearRoom(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[id]; ok {
		c.RoomID = ""
		c.ScreenSlot = ""
	}
}

func (r *Registry) SetWebcamEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[id]; ok {
		c.WebcamEnabled = enabled
	}
}

// Unregister removes the entry. Unknown ids are a no-op: connections can
// legitimately disappear mid-broadcast.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// All snapshots every live connection, for global broadcasts.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, *c)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
