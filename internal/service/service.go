package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
)

type PostInteractor interface {
	CreatePost(ctx context.Context, owner uuid.UUID, title string, coinsPerHour int64, window domain.AvailabilityWindow) (*domain.Post, error)
	UpdateAvailability(ctx context.Context, postID, owner uuid.UUID, window domain.AvailabilityWindow) (*domain.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	Slots(ctx context.Context, postID uuid.UUID) ([]domain.Slot, error)
}

type LedgerInteractor interface {
	Credit(ctx context.Context, userID uuid.UUID, amount int64, meta domain.Meta) ([]*domain.Transaction, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int64, meta domain.Meta) ([]*domain.Transaction, error)
	Transfer(ctx context.Context, from, to uuid.UUID, amount int64, platformFeeRate float64, meta domain.Meta) ([]*domain.Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error)
}

type SwapInteractor interface {
	Create(ctx context.Context, postID, requesterID uuid.UUID, startsAt time.Time, durationMinutes int) (*domain.SwapRequest, error)
	Accept(ctx context.Context, requestID, responderID uuid.UUID) (*domain.SwapRequest, *domain.Session, error)
	Reject(ctx context.Context, requestID, responderID uuid.UUID) (*domain.SwapRequest, error)
	Cancel(ctx context.Context, requestID, requesterID uuid.UUID) (*domain.SwapRequest, error)
	Expire(ctx context.Context, requestID uuid.UUID) (*domain.SwapRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*domain.SwapRequest, error)
}

type SessionInteractor interface {
	Join(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Session, error)
	Leave(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Session, error)
	Complete(ctx context.Context, sessionID uuid.UUID, actor domain.Actor) (*domain.Session, error)
	Cancel(ctx context.Context, sessionID uuid.UUID, actor domain.Actor) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
}

type RelayInteractor interface {
	Connect(userID uuid.UUID) *domain.Connection
	Handle(ctx context.Context, conn *domain.Connection, msg domain.SignalMessage) error
	Disconnect(conn *domain.Connection)
}

// SessionDirectory is the relay's read-only view of sessions.
type SessionDirectory interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
}

// Notifier delivers lifecycle events to users. Delivery failures never fail
// the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
