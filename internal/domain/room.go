package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const RoomCapacity = 2

// Room is the ephemeral signaling group for one session. It holds at most one
// live connection per user and at most RoomCapacity users. Every membership
// change happens under the room's own lock.
type Room struct {
	SessionID uuid.UUID
	CreatedAt time.Time

	mu      sync.Mutex
	members map[uuid.UUID]*Connection
	closed  bool
}

func NewRoom(sessionID uuid.UUID) *Room {
	return &Room{
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		members:   make(map[uuid.UUID]*Connection, RoomCapacity),
	}
}

// Admission is the outcome of Admit.
type Admission struct {
	// Evicted is the user's previous connection, replaced by the new one.
	Evicted *Connection
	// Peer is the other participant's live connection, if any.
	Peer *Connection
	// Rejoined is true when conn was already the member for its user.
	Rejoined bool
}

// Admit registers conn as its user's connection. It returns closed=true when
// the room was discarded concurrently and the caller must fetch a fresh one.
func (r *Room) Admit(conn *Connection) (adm Admission, closed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Admission{}, true, nil
	}

	existing, present := r.members[conn.UserID]
	if !present && len(r.members) >= RoomCapacity {
		return Admission{}, false, ErrRoomFull
	}

	switch {
	case existing == conn:
		adm.Rejoined = true
	case present:
		adm.Evicted = existing
	}
	r.members[conn.UserID] = conn
	adm.Peer = r.peerLocked(conn.UserID)
	return adm, false, nil
}

// Remove drops conn if it is still its user's member. Once the room is empty it
// is marked closed and must not be reused.
func (r *Room) Remove(conn *Connection) (peer *Connection, removed bool, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.members[conn.UserID]; ok && current == conn {
		delete(r.members, conn.UserID)
		removed = true
	}
	peer = r.peerLocked(conn.UserID)
	if len(r.members) == 0 {
		r.closed = true
		empty = true
	}
	return peer, removed, empty
}

// Member returns the live connection registered for userID.
func (r *Room) Member(userID uuid.UUID) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[userID]
}

// Holds reports whether conn is the registered connection for its user.
func (r *Room) Holds(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[conn.UserID] == conn
}

func (r *Room) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) peerLocked(userID uuid.UUID) *Connection {
	for id, c := range r.members {
		if id != userID {
			return c
		}
	}
	return nil
}
