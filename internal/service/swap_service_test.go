package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapCreate(t *testing.T) {
	f := newFixture(t)
	b := f.pendingRequest(t)

	req := b.request
	assert.Equal(t, domain.SwapRequestPending, req.Status)
	assert.Equal(t, b.host, req.ResponderID)
	assert.Equal(t, b.learner, req.RequesterID)
	assert.Equal(t, domain.SlotLength, req.DurationMinutes)
	assert.Equal(t, int64(120), req.Cost)
	assert.Equal(t, domain.Slot{Start: 9 * 60, End: 11 * 60}, req.ProposedSlot.Slot)
	assert.Equal(t, []domain.NotificationType{domain.NotifyRequestCreated}, f.sink.types(b.host))

	stored, err := f.swaps.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, stored.ID)
}

func TestSwapCreateRejectsOwnPost(t *testing.T) {
	f := newFixture(t)
	host := uuid.New()
	post := f.newPost(t, host, 60)

	_, err := f.swaps.Create(context.Background(), post.ID, host, f.slotStart(), 0)
	assert.ErrorIs(t, err, domain.ErrSelfRequest)
}

func TestSwapCreateRejectsUnknownPost(t *testing.T) {
	f := newFixture(t)
	_, err := f.swaps.Create(context.Background(), uuid.New(), uuid.New(), f.slotStart(), 0)
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
}

func TestSwapCreateRejectsInvalidSlots(t *testing.T) {
	f := newFixture(t)
	post := f.newPost(t, uuid.New(), 60)
	learner := uuid.New()
	monday9 := f.slotStart()

	tests := []struct {
		name     string
		startsAt time.Time
		duration int
	}{
		{name: "off the stride", startsAt: monday9.Add(time.Hour), duration: 0},
		{name: "closed day", startsAt: monday9.AddDate(0, 0, 1), duration: 0},
		{name: "already started", startsAt: monday9.AddDate(0, 0, -7), duration: 0},
		{name: "wrong length", startsAt: monday9, duration: 60},
		{name: "too late to fit", startsAt: monday9.Add(2 * time.Hour), duration: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.swaps.Create(context.Background(), post.ID, learner, tt.startsAt, tt.duration)
			assert.ErrorIs(t, err, domain.ErrInvalidSlot)
		})
	}
}

func TestSwapAcceptEscrowsCost(t *testing.T) {
	f := newFixture(t)
	b := f.pendingRequest(t)

	req, session, err := f.swaps.Accept(context.Background(), b.request.ID, b.host)
	require.NoError(t, err)

	assert.Equal(t, domain.SwapRequestAccepted, req.Status)
	assert.Equal(t, session.ID, req.SessionID)
	assert.Equal(t, domain.SessionScheduled, session.Status)
	assert.Equal(t, b.host, session.HostID)
	assert.Equal(t, b.learner, session.LearnerID)
	assert.Equal(t, f.slotStart(), session.ScheduledTime)
	assert.Equal(t, int64(120), session.Cost)

	assert.Equal(t, int64(380), f.balance(t, b.learner))
	assert.Equal(t, int64(120), f.balance(t, escrowAccount))
	assert.Zero(t, f.balance(t, b.host))

	rows, err := f.store.Transactions().FindByKey(context.Background(), domain.HoldKey(session.ID))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, []domain.NotificationType{domain.NotifyRequestAccepted}, f.sink.types(b.learner))
}

func TestSwapAcceptOnlyByResponder(t *testing.T) {
	f := newFixture(t)
	b := f.pendingRequest(t)

	_, _, err := f.swaps.Accept(context.Background(), b.request.ID, b.learner)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	req, err := f.swaps.Get(context.Background(), b.request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapRequestPending, req.Status)
}

func TestSwapAcceptTwiceReturnsSameSession(t *testing.T) {
	f := newFixture(t)
	b, session := f.acceptedSession(t)

	req, again, err := f.swaps.Accept(context.Background(), b.request.ID, b.host)
	require.ErrorIs(t, err, domain.ErrAlreadyResolved)
	require.NotNil(t, again)
	assert.Equal(t, session.ID, again.ID)
	assert.Equal(t, domain.SwapRequestAccepted, req.Status)
	assert.Equal(t, int64(380), f.balance(t, b.learner), "second accept holds nothing")
}

func TestSwapAcceptInsufficientFundsKeepsRequestPending(t *testing.T) {
	f := newFixture(t)
	host, learner := uuid.New(), uuid.New()
	post := f.newPost(t, host, 300)
	f.fund(t, learner, 500)

	req, err := f.swaps.Create(context.Background(), post.ID, learner, f.slotStart(), 0)
	require.NoError(t, err)
	require.Equal(t, int64(600), req.Cost)

	_, _, err = f.swaps.Accept(context.Background(), req.ID, host)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	stored, err := f.swaps.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapRequestPending, stored.Status)
	assert.Equal(t, uuid.Nil, stored.SessionID)

	_, err = f.store.Sessions().GetBySwapRequest(context.Background(), req.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.Equal(t, int64(500), f.balance(t, learner))
	assert.Zero(t, f.balance(t, escrowAccount))
}

func TestSwapConcurrentAcceptsCreateOneSession(t *testing.T) {
	f := newFixture(t)
	b := f.pendingRequest(t)

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	sessions := map[uuid.UUID]struct{}{}
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, session, err := f.swaps.Accept(context.Background(), b.request.ID, b.host)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
			}
			if session != nil {
				sessions[session.ID] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Len(t, sessions, 1)
	assert.Equal(t, int64(380), f.balance(t, b.learner))
	assert.Equal(t, int64(120), f.balance(t, escrowAccount))
}

func TestSwapRejectThenAccept(t *testing.T) {
	f := newFixture(t)
	b := f.pendingRequest(t)

	_, err := f.swaps.Reject(context.Background(), b.request.ID, b.learner)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	req, err := f.swaps.Reject(context.Background(), b.request.ID, b.host)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapRequestRejected, req.Status)
	assert.False(t, req.ResolvedAt.IsZero())
	assert.Contains(t, f.sink.types(b.learner), domain.NotifyRequestRejected)

	_, session, err := f.swaps.Accept(context.Background(), b.request.ID, b.host)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	assert.Nil(t, session)
	assert.Equal(t, int64(500), f.balance(t, b.learner))
}

func TestSwapCancelByRequester(t *testing.T) {
	f := newFixture(t)
	b := f.pendingRequest(t)

	_, err := f.swaps.Cancel(context.Background(), b.request.ID, b.host)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	req, err := f.swaps.Cancel(context.Background(), b.request.ID, b.learner)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapRequestCancelled, req.Status)
	assert.Contains(t, f.sink.types(b.host), domain.NotifyRequestCancelled)

	again, err := f.swaps.Cancel(context.Background(), b.request.ID, b.learner)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	require.NotNil(t, again)
	assert.Equal(t, domain.SwapRequestCancelled, again.Status)
}

func TestSwapExpire(t *testing.T) {
	f := newFixture(t)
	b := f.pendingRequest(t)

	req, err := f.swaps.Expire(context.Background(), b.request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapRequestExpired, req.Status)
	assert.Contains(t, f.sink.types(b.learner), domain.NotifyRequestExpired)
}

func TestSwapExpireLeavesAcceptedRequest(t *testing.T) {
	f := newFixture(t)
	b, session := f.acceptedSession(t)

	req, err := f.swaps.Expire(context.Background(), b.request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapRequestAccepted, req.Status)
	assert.Equal(t, session.ID, req.SessionID)
	assert.NotContains(t, f.sink.types(b.learner), domain.NotifyRequestExpired)
}

func TestSwapAcceptFreePostHoldsNothing(t *testing.T) {
	f := newFixture(t)
	host, learner := uuid.New(), uuid.New()
	post := f.newPost(t, host, 0)

	req, err := f.swaps.Create(context.Background(), post.ID, learner, f.slotStart(), 0)
	require.NoError(t, err)

	_, session, err := f.swaps.Accept(context.Background(), req.ID, host)
	require.NoError(t, err)
	assert.Zero(t, session.Cost)

	rows, err := f.store.Transactions().ListBySession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
