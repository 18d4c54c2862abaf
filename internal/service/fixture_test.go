package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/immxrtalbeast/skillswap/internal/testutil"
	"github.com/stretchr/testify/require"
)

var (
	escrowAccount   = uuid.MustParse("00000000-0000-0000-0000-00000000e5c0")
	platformAccount = uuid.MustParse("00000000-0000-0000-0000-0000000000fe")
)

const feeRate = 0.1

type recordingSink struct {
	mu   sync.Mutex
	sent []domain.Notification
	fail bool
}

func (s *recordingSink) Notify(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSink) types(user uuid.UUID) []domain.NotificationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NotificationType
	for _, n := range s.sent {
		if n.UserID == user {
			out = append(out, n.Type)
		}
	}
	return out
}

type fixture struct {
	store    *repository.InMemoryStore
	clock    *testutil.Clock
	sink     *recordingSink
	ledger   *LedgerService
	posts    *PostService
	swaps    *SwapService
	sessions *SessionService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewInMemoryStore()
	clock := testutil.NewClock(time.Time{})
	sink := &recordingSink{}
	log := discardLogger()

	ledger := NewLedgerService(store, LedgerOptions{
		EscrowAccount:   escrowAccount,
		PlatformAccount: platformAccount,
		PlatformFeeRate: feeRate,
		Now:             clock.NowFunc(),
	}, log, nil)

	return &fixture{
		store:    store,
		clock:    clock,
		sink:     sink,
		ledger:   ledger,
		posts:    NewPostService(store.Posts(), clock.NowFunc(), log),
		swaps:    NewSwapService(store, ledger, sink, SwapOptions{Location: time.UTC, Now: clock.NowFunc()}, log, nil),
		sessions: NewSessionService(store, ledger, sink, SessionOptions{JoinLeadTime: 5 * time.Minute, Now: clock.NowFunc()}, log, nil),
	}
}

// slotStart is the first slot of the fixture post: Monday 09:00 UTC, one hour
// after the fixture clock starts.
func (f *fixture) slotStart() time.Time {
	return testutil.ReferenceTime().Add(time.Hour)
}

func (f *fixture) fund(t *testing.T, user uuid.UUID, amount int64) {
	t.Helper()
	_, err := f.ledger.Credit(context.Background(), user, amount, domain.Meta{Memo: "test top-up"})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, user uuid.UUID) int64 {
	t.Helper()
	w, err := f.ledger.Balance(context.Background(), user)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) newPost(t *testing.T, owner uuid.UUID, coinsPerHour int64) *domain.Post {
	t.Helper()
	post, err := f.posts.CreatePost(context.Background(), owner, "guitar lessons", coinsPerHour, domain.AvailabilityWindow{
		Days:      []time.Weekday{time.Monday, time.Wednesday},
		StartTime: "09:00",
		EndTime:   "11:30",
	})
	require.NoError(t, err)
	return post
}

type booking struct {
	host, learner uuid.UUID
	post          *domain.Post
	request       *domain.SwapRequest
}

// pendingRequest books the fixture slot on a 60 coins/hour post, so the
// session costs 120. The learner is funded with 500.
func (f *fixture) pendingRequest(t *testing.T) booking {
	t.Helper()
	b := booking{host: uuid.New(), learner: uuid.New()}
	b.post = f.newPost(t, b.host, 60)
	f.fund(t, b.learner, 500)

	req, err := f.swaps.Create(context.Background(), b.post.ID, b.learner, f.slotStart(), 0)
	require.NoError(t, err)
	b.request = req
	return b
}

func (f *fixture) acceptedSession(t *testing.T) (booking, *domain.Session) {
	t.Helper()
	b := f.pendingRequest(t)
	_, session, err := f.swaps.Accept(context.Background(), b.request.ID, b.host)
	require.NoError(t, err)
	return b, session
}

func (f *fixture) startedSession(t *testing.T) (booking, *domain.Session) {
	t.Helper()
	b, session := f.acceptedSession(t)
	f.clock.Set(session.ScheduledTime)
	_, err := f.sessions.Join(context.Background(), session.ID, b.host)
	require.NoError(t, err)
	session, err = f.sessions.Join(context.Background(), session.ID, b.learner)
	require.NoError(t, err)
	require.Equal(t, domain.SessionInProgress, session.Status)
	return b, session
}
