package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrSwapRequestNotFound = errors.New("swap request not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExists       = errors.New("session already exists for swap request")
	ErrDuplicateKey        = errors.New("idempotency key already used")
)

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
}

type SwapRequestRepository interface {
	Create(ctx context.Context, req *domain.SwapRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SwapRequest, error)
	// GetForUpdate locks the row for the rest of the enclosing transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.SwapRequest, error)
	Update(ctx context.Context, req *domain.SwapRequest) error
	ListPending(ctx context.Context, startsBefore time.Time) ([]*domain.SwapRequest, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetBySwapRequest(ctx context.Context, swapRequestID uuid.UUID) (*domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
	ListByStatus(ctx context.Context, status domain.SessionStatus, scheduledBefore time.Time) ([]*domain.Session, error)
}

type WalletRepository interface {
	// Get returns a zero-balance wallet for users that never transacted.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Save(ctx context.Context, wallet *domain.Wallet) error
}

type TransactionRepository interface {
	Append(ctx context.Context, txns ...*domain.Transaction) error
	FindByKey(ctx context.Context, key string) ([]*domain.Transaction, error)
	ListByAccount(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Transaction, error)
}

type Repositories interface {
	Posts() PostRepository
	SwapRequests() SwapRequestRepository
	Sessions() SessionRepository
	Wallets() WalletRepository
	Transactions() TransactionRepository
}

// Store is the unit-of-work boundary. Everything fn does through tx commits
// together or not at all.
type Store interface {
	Repositories
	Atomically(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}
