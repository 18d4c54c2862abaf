package domain

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomAdmitAndReplace(t *testing.T) {
	room := NewRoom(uuid.New())
	host, learner := uuid.New(), uuid.New()

	first := NewConnection(host, 4)
	adm, closed, err := room.Admit(first)
	require.NoError(t, err)
	require.False(t, closed)
	assert.Nil(t, adm.Peer)
	assert.Nil(t, adm.Evicted)

	other := NewConnection(learner, 4)
	adm, _, err = room.Admit(other)
	require.NoError(t, err)
	assert.Same(t, first, adm.Peer)

	adm, _, err = room.Admit(other)
	require.NoError(t, err)
	assert.True(t, adm.Rejoined)

	replacement := NewConnection(host, 4)
	adm, _, err = room.Admit(replacement)
	require.NoError(t, err)
	assert.Same(t, first, adm.Evicted)
	assert.Same(t, other, adm.Peer)
	assert.Equal(t, 2, room.Size())
	assert.True(t, room.Holds(replacement))
	assert.False(t, room.Holds(first))
}

func TestRoomRefusesThirdUser(t *testing.T) {
	room := NewRoom(uuid.New())
	_, _, err := room.Admit(NewConnection(uuid.New(), 1))
	require.NoError(t, err)
	_, _, err = room.Admit(NewConnection(uuid.New(), 1))
	require.NoError(t, err)

	_, _, err = room.Admit(NewConnection(uuid.New(), 1))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 2, room.Size())
}

func TestRoomRemoveClosesWhenEmpty(t *testing.T) {
	room := NewRoom(uuid.New())
	a, b := NewConnection(uuid.New(), 1), NewConnection(uuid.New(), 1)
	_, _, _ = room.Admit(a)
	_, _, _ = room.Admit(b)

	peer, removed, empty := room.Remove(a)
	assert.True(t, removed)
	assert.False(t, empty)
	assert.Same(t, b, peer)

	_, removed, _ = room.Remove(a)
	assert.False(t, removed)

	_, removed, empty = room.Remove(b)
	assert.True(t, removed)
	assert.True(t, empty)

	_, closed, err := room.Admit(NewConnection(uuid.New(), 1))
	require.NoError(t, err)
	assert.True(t, closed, "an emptied room is never reused")
}

func TestRoomRemoveIgnoresStaleConnection(t *testing.T) {
	room := NewRoom(uuid.New())
	user := uuid.New()
	old, current := NewConnection(user, 1), NewConnection(user, 1)
	_, _, _ = room.Admit(old)
	_, _, _ = room.Admit(current)

	_, removed, empty := room.Remove(old)
	assert.False(t, removed)
	assert.False(t, empty)
	assert.Same(t, current, room.Member(user))
}

func TestRoomConcurrentAdmit(t *testing.T) {
	room := NewRoom(uuid.New())
	users := []uuid.UUID{uuid.New(), uuid.New()}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = room.Admit(NewConnection(users[i%2], 1))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, room.Size())
	for _, u := range users {
		assert.NotNil(t, room.Member(u))
	}
}

func TestConnectionSend(t *testing.T) {
	conn := NewConnection(uuid.New(), 1)

	assert.True(t, conn.Send(SignalMessage{Type: SignalPeerJoined}))
	assert.False(t, conn.Send(SignalMessage{Type: SignalPeerLeft}), "buffer full")

	msg := <-conn.Events()
	assert.Equal(t, SignalPeerJoined, msg.Type)

	conn.Close()
	conn.Close()
	assert.True(t, conn.Closed())
	assert.False(t, conn.Send(SignalMessage{Type: SignalPeerJoined}))
}

func TestConnectionTracksSessions(t *testing.T) {
	conn := NewConnection(uuid.New(), 1)
	id := uuid.New()

	conn.Track(id)
	assert.Equal(t, []uuid.UUID{id}, conn.Sessions())
	conn.Untrack(id)
	assert.Empty(t, conn.Sessions())
}
