package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
)

// InMemoryStore keeps every entity in process memory. Transactions hold the
// store lock for their whole duration and roll back through an undo log.
type InMemoryStore struct {
	mu sync.Mutex

	posts     map[uuid.UUID]*domain.Post
	requests  map[uuid.UUID]*domain.SwapRequest
	sessions  map[uuid.UUID]*domain.Session
	byRequest map[uuid.UUID]uuid.UUID
	wallets   map[uuid.UUID]*domain.Wallet
	txns      []*domain.Transaction
	keys      map[string][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		posts:     make(map[uuid.UUID]*domain.Post),
		requests:  make(map[uuid.UUID]*domain.SwapRequest),
		sessions:  make(map[uuid.UUID]*domain.Session),
		byRequest: make(map[uuid.UUID]uuid.UUID),
		wallets:   make(map[uuid.UUID]*domain.Wallet),
		keys:      make(map[string][]int),
	}
}

type memoryTx struct {
	undo []func()
}

func (s *InMemoryStore) Atomically(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()

	return fn(ctx, memoryView{store: s, tx: tx})
}

func (tx *memoryTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (s *InMemoryStore) Posts() PostRepository               { return memoryPosts{memoryView{store: s}} }
func (s *InMemoryStore) SwapRequests() SwapRequestRepository { return memorySwapRequests{memoryView{store: s}} }
func (s *InMemoryStore) Sessions() SessionRepository         { return memorySessions{memoryView{store: s}} }
func (s *InMemoryStore) Wallets() WalletRepository           { return memoryWallets{memoryView{store: s}} }
func (s *InMemoryStore) Transactions() TransactionRepository { return memoryTransactions{memoryView{store: s}} }

// memoryView is either bound to a running transaction, in which case the store
// lock is already held, or locks per call.
type memoryView struct {
	store *InMemoryStore
	tx    *memoryTx
}

func (v memoryView) Posts() PostRepository               { return memoryPosts{v} }
func (v memoryView) SwapRequests() SwapRequestRepository { return memorySwapRequests{v} }
func (v memoryView) Sessions() SessionRepository         { return memorySessions{v} }
func (v memoryView) Wallets() WalletRepository           { return memoryWallets{v} }
func (v memoryView) Transactions() TransactionRepository { return memoryTransactions{v} }

func (v memoryView) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx == nil {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn()
}

func (v memoryView) onRollback(undo func()) {
	if v.tx != nil {
		v.tx.undo = append(v.tx.undo, undo)
	}
}

type memoryPosts struct{ memoryView }

func (r memoryPosts) Create(ctx context.Context, post *domain.Post) error {
	return r.run(ctx, func() error {
		r.store.posts[post.ID] = clonePost(post)
		r.onRollback(func() { delete(r.store.posts, post.ID) })
		return nil
	})
}

func (r memoryPosts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var out *domain.Post
	err := r.run(ctx, func() error {
		post, ok := r.store.posts[id]
		if !ok {
			return ErrPostNotFound
		}
		out = clonePost(post)
		return nil
	})
	return out, err
}

func (r memoryPosts) Update(ctx context.Context, post *domain.Post) error {
	return r.run(ctx, func() error {
		prev, ok := r.store.posts[post.ID]
		if !ok {
			return ErrPostNotFound
		}
		r.store.posts[post.ID] = clonePost(post)
		r.onRollback(func() { r.store.posts[post.ID] = prev })
		return nil
	})
}

type memorySwapRequests struct{ memoryView }

func (r memorySwapRequests) Create(ctx context.Context, req *domain.SwapRequest) error {
	return r.run(ctx, func() error {
		cp := *req
		r.store.requests[req.ID] = &cp
		r.onRollback(func() { delete(r.store.requests, req.ID) })
		return nil
	})
}

func (r memorySwapRequests) GetByID(ctx context.Context, id uuid.UUID) (*domain.SwapRequest, error) {
	var out *domain.SwapRequest
	err := r.run(ctx, func() error {
		req, ok := r.store.requests[id]
		if !ok {
			return ErrSwapRequestNotFound
		}
		cp := *req
		out = &cp
		return nil
	})
	return out, err
}

func (r memorySwapRequests) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.SwapRequest, error) {
	return r.GetByID(ctx, id)
}

func (r memorySwapRequests) Update(ctx context.Context, req *domain.SwapRequest) error {
	return r.run(ctx, func() error {
		prev, ok := r.store.requests[req.ID]
		if !ok {
			return ErrSwapRequestNotFound
		}
		cp := *req
		r.store.requests[req.ID] = &cp
		r.onRollback(func() { r.store.requests[req.ID] = prev })
		return nil
	})
}

func (r memorySwapRequests) ListPending(ctx context.Context, startsBefore time.Time) ([]*domain.SwapRequest, error) {
	var out []*domain.SwapRequest
	err := r.run(ctx, func() error {
		for _, req := range r.store.requests {
			if req.Status == domain.SwapRequestPending && req.ProposedSlot.StartsAt.Before(startsBefore) {
				cp := *req
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ProposedSlot.StartsAt.Before(out[j].ProposedSlot.StartsAt) })
	return out, err
}

type memorySessions struct{ memoryView }

func (r memorySessions) Create(ctx context.Context, session *domain.Session) error {
	return r.run(ctx, func() error {
		if _, ok := r.store.byRequest[session.SwapRequestID]; ok {
			return ErrSessionExists
		}
		cp := *session
		r.store.sessions[session.ID] = &cp
		r.store.byRequest[session.SwapRequestID] = session.ID
		r.onRollback(func() {
			delete(r.store.sessions, session.ID)
			delete(r.store.byRequest, session.SwapRequestID)
		})
		return nil
	})
}

func (r memorySessions) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var out *domain.Session
	err := r.run(ctx, func() error {
		session, ok := r.store.sessions[id]
		if !ok {
			return ErrSessionNotFound
		}
		cp := *session
		out = &cp
		return nil
	})
	return out, err
}

func (r memorySessions) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return r.GetByID(ctx, id)
}

func (r memorySessions) GetBySwapRequest(ctx context.Context, swapRequestID uuid.UUID) (*domain.Session, error) {
	var out *domain.Session
	err := r.run(ctx, func() error {
		id, ok := r.store.byRequest[swapRequestID]
		if !ok {
			return ErrSessionNotFound
		}
		cp := *r.store.sessions[id]
		out = &cp
		return nil
	})
	return out, err
}

func (r memorySessions) Update(ctx context.Context, session *domain.Session) error {
	return r.run(ctx, func() error {
		prev, ok := r.store.sessions[session.ID]
		if !ok {
			return ErrSessionNotFound
		}
		cp := *session
		r.store.sessions[session.ID] = &cp
		r.onRollback(func() { r.store.sessions[session.ID] = prev })
		return nil
	})
}

func (r memorySessions) ListByStatus(ctx context.Context, status domain.SessionStatus, scheduledBefore time.Time) ([]*domain.Session, error) {
	var out []*domain.Session
	err := r.run(ctx, func() error {
		for _, session := range r.store.sessions {
			if session.Status == status && session.ScheduledTime.Before(scheduledBefore) {
				cp := *session
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, err
}

type memoryWallets struct{ memoryView }

func (r memoryWallets) Get(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := r.run(ctx, func() error {
		if wallet, ok := r.store.wallets[userID]; ok {
			cp := *wallet
			out = &cp
			return nil
		}
		out = &domain.Wallet{UserID: userID}
		return nil
	})
	return out, err
}

func (r memoryWallets) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.Get(ctx, userID)
}

func (r memoryWallets) Save(ctx context.Context, wallet *domain.Wallet) error {
	return r.run(ctx, func() error {
		prev, existed := r.store.wallets[wallet.UserID]
		cp := *wallet
		r.store.wallets[wallet.UserID] = &cp
		r.onRollback(func() {
			if existed {
				r.store.wallets[wallet.UserID] = prev
			} else {
				delete(r.store.wallets, wallet.UserID)
			}
		})
		return nil
	})
}

type memoryTransactions struct{ memoryView }

func (r memoryTransactions) Append(ctx context.Context, txns ...*domain.Transaction) error {
	return r.run(ctx, func() error {
		for _, t := range txns {
			for _, idx := range r.store.keys[t.IdempotencyKey] {
				if r.store.txns[idx].Type == t.Type {
					return ErrDuplicateKey
				}
			}
		}

		mark := len(r.store.txns)
		for _, t := range txns {
			cp := *t
			r.store.txns = append(r.store.txns, &cp)
			r.store.keys[t.IdempotencyKey] = append(r.store.keys[t.IdempotencyKey], len(r.store.txns)-1)
		}
		r.onRollback(func() {
			for _, t := range r.store.txns[mark:] {
				idx := r.store.keys[t.IdempotencyKey]
				r.store.keys[t.IdempotencyKey] = idx[:len(idx)-1]
				if len(r.store.keys[t.IdempotencyKey]) == 0 {
					delete(r.store.keys, t.IdempotencyKey)
				}
			}
			r.store.txns = r.store.txns[:mark]
		})
		return nil
	})
}

func (r memoryTransactions) FindByKey(ctx context.Context, key string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.run(ctx, func() error {
		for _, idx := range r.store.keys[key] {
			cp := *r.store.txns[idx]
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r memoryTransactions) ListByAccount(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.run(ctx, func() error {
		for i := len(r.store.txns) - 1; i >= 0; i-- {
			t := r.store.txns[i]
			if t.Account() != userID {
				continue
			}
			cp := *t
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r memoryTransactions) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	err := r.run(ctx, func() error {
		for _, t := range r.store.txns {
			if t.RelatedSessionID == sessionID {
				cp := *t
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func clonePost(p *domain.Post) *domain.Post {
	cp := *p
	cp.Availability.Days = slices.Clone(p.Availability.Days)
	return &cp
}
