package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultSendBuffer = 32

// Connection is one authenticated real-time link. Outbound messages are queued
// on a bounded buffer drained by a single writer, so messages from one sender
// keep their order.
type Connection struct {
	ID          string
	UserID      uuid.UUID
	ConnectedAt time.Time

	events    chan SignalMessage
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	sessions map[uuid.UUID]struct{}
}

func NewConnection(userID uuid.UUID, buffer int) *Connection {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		events:      make(chan SignalMessage, buffer),
		done:        make(chan struct{}),
		sessions:    make(map[uuid.UUID]struct{}),
	}
}

func (c *Connection) Events() <-chan SignalMessage { return c.events }

func (c *Connection) Done() <-chan struct{} { return c.done }

// Send queues msg without blocking. It reports false when the connection is
// closed or its buffer is full.
func (c *Connection) Send(msg SignalMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- msg:
		return true
	default:
		return false
	}
}

// Close is safe to call more than once. The events channel is left open so a
// concurrent Send never panics.
func (c *Connection) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Connection) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Connection) Track(sessionID uuid.UUID) {
	c.mu.Lock()
	c.sessions[sessionID] = struct{}{}
	c.mu.Unlock()
}

func (c *Connection) Untrack(sessionID uuid.UUID) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}

func (c *Connection) Sessions() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	return ids
}
