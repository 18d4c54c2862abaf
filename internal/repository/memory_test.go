package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestAtomicallyRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	user := uuid.New()
	require.NoError(t, store.Wallets().Save(ctx, &domain.Wallet{UserID: user, Balance: 10}))

	err := store.Atomically(ctx, func(ctx context.Context, tx Repositories) error {
		w, err := tx.Wallets().GetForUpdate(ctx, user)
		require.NoError(t, err)
		w.Balance = 0
		require.NoError(t, tx.Wallets().Save(ctx, w))
		require.NoError(t, tx.Wallets().Save(ctx, &domain.Wallet{UserID: uuid.New(), Balance: 10}))
		require.NoError(t, tx.Transactions().Append(ctx, &domain.Transaction{
			ID:             uuid.New(),
			ToUserID:       user,
			Type:           domain.TransactionCredit,
			IdempotencyKey: "k1",
		}))
		post := domain.NewPost(user, "piano", 10, domain.AvailabilityWindow{}, time.Now())
		require.NoError(t, tx.Posts().Create(ctx, post))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	w, err := store.Wallets().Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.Balance)
	assert.Len(t, store.wallets, 1)
	assert.Empty(t, store.txns)
	assert.Empty(t, store.keys)
	assert.Empty(t, store.posts)
}

func TestAtomicallyRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	user := uuid.New()

	assert.Panics(t, func() {
		_ = store.Atomically(ctx, func(ctx context.Context, tx Repositories) error {
			_ = tx.Wallets().Save(ctx, &domain.Wallet{UserID: user, Balance: 5})
			panic("boom")
		})
	})

	w, err := store.Wallets().Get(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, w.Balance)
}

func TestAppendRejectsDuplicateKeyAndType(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	debit := &domain.Transaction{ID: uuid.New(), FromUserID: uuid.New(), Type: domain.TransactionDebit, IdempotencyKey: "hold:1"}
	credit := &domain.Transaction{ID: uuid.New(), ToUserID: uuid.New(), Type: domain.TransactionCredit, IdempotencyKey: "hold:1"}
	require.NoError(t, store.Transactions().Append(ctx, debit, credit))

	again := *debit
	again.ID = uuid.New()
	assert.ErrorIs(t, store.Transactions().Append(ctx, &again), ErrDuplicateKey)

	rows, err := store.Transactions().FindByKey(ctx, "hold:1")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSessionCreateIsUniquePerRequest(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	requestID := uuid.New()

	require.NoError(t, store.Sessions().Create(ctx, &domain.Session{ID: uuid.New(), SwapRequestID: requestID}))
	err := store.Sessions().Create(ctx, &domain.Session{ID: uuid.New(), SwapRequestID: requestID})
	assert.ErrorIs(t, err, ErrSessionExists)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	post := domain.NewPost(uuid.New(), "go", 10, domain.AvailabilityWindow{Days: []time.Weekday{time.Monday}}, time.Now())
	require.NoError(t, store.Posts().Create(ctx, post))

	got, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	got.Title = "changed"
	got.Availability.Days[0] = time.Friday

	again, err := store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "go", again.Title)
	assert.Equal(t, time.Monday, again.Availability.Days[0])
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Now().UTC()

	past := &domain.SwapRequest{ID: uuid.New(), Status: domain.SwapRequestPending, ProposedSlot: domain.ProposedSlot{StartsAt: now.Add(-time.Hour)}}
	future := &domain.SwapRequest{ID: uuid.New(), Status: domain.SwapRequestPending, ProposedSlot: domain.ProposedSlot{StartsAt: now.Add(time.Hour)}}
	done := &domain.SwapRequest{ID: uuid.New(), Status: domain.SwapRequestRejected, ProposedSlot: domain.ProposedSlot{StartsAt: now.Add(-time.Hour)}}
	for _, r := range []*domain.SwapRequest{past, future, done} {
		require.NoError(t, store.SwapRequests().Create(ctx, r))
	}

	pending, err := store.SwapRequests().ListPending(ctx, now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, past.ID, pending[0].ID)

	s := &domain.Session{ID: uuid.New(), SwapRequestID: past.ID, Status: domain.SessionScheduled, ScheduledTime: now.Add(-time.Hour)}
	require.NoError(t, store.Sessions().Create(ctx, s))

	found, err := store.Sessions().ListByStatus(ctx, domain.SessionScheduled, now)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = store.Sessions().ListByStatus(ctx, domain.SessionInProgress, now)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCancelledContextFailsFast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewInMemoryStore()

	err := store.Atomically(ctx, func(context.Context, Repositories) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Wallets().Get(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
