package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/observability"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
)

const basisPoints = 10_000

type LedgerOptions struct {
	// EscrowAccount holds coins between acceptance and settlement.
	EscrowAccount uuid.UUID
	// PlatformAccount receives the platform share of settled sessions.
	PlatformAccount uuid.UUID
	PlatformFeeRate float64
	Now             func() time.Time
}

// LedgerService owns wallet balances. Each operation writes its balances and
// its transaction rows in one store transaction.
type LedgerService struct {
	store    repository.Store
	escrow   uuid.UUID
	platform uuid.UUID
	feeRate  float64
	now      func() time.Time
	log      *slog.Logger
	metrics  *observability.Metrics
}

func NewLedgerService(store repository.Store, opts LedgerOptions, log *slog.Logger, metrics *observability.Metrics) *LedgerService {
	if log == nil {
		log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LedgerService{
		store:    store,
		escrow:   opts.EscrowAccount,
		platform: opts.PlatformAccount,
		feeRate:  opts.PlatformFeeRate,
		now:      opts.Now,
		log:      log,
		metrics:  metrics,
	}
}

func (l *LedgerService) EscrowAccount() uuid.UUID   { return l.escrow }
func (l *LedgerService) PlatformAccount() uuid.UUID { return l.platform }
func (l *LedgerService) FeeRate() float64           { return l.feeRate }

func (l *LedgerService) Credit(ctx context.Context, userID uuid.UUID, amount int64, meta domain.Meta) ([]*domain.Transaction, error) {
	return l.atomically(ctx, "credit", meta, func(ctx context.Context, tx repository.Repositories) ([]*domain.Transaction, error) {
		return l.credit(ctx, tx, userID, amount, meta)
	})
}

func (l *LedgerService) Debit(ctx context.Context, userID uuid.UUID, amount int64, meta domain.Meta) ([]*domain.Transaction, error) {
	return l.atomically(ctx, "debit", meta, func(ctx context.Context, tx repository.Repositories) ([]*domain.Transaction, error) {
		return l.debit(ctx, tx, userID, amount, meta)
	})
}

func (l *LedgerService) Transfer(ctx context.Context, from, to uuid.UUID, amount int64, platformFeeRate float64, meta domain.Meta) ([]*domain.Transaction, error) {
	return l.atomically(ctx, "transfer", meta, func(ctx context.Context, tx repository.Repositories) ([]*domain.Transaction, error) {
		return l.transfer(ctx, tx, from, to, amount, platformFeeRate, meta)
	})
}

func (l *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return l.store.Wallets().Get(ctx, userID)
}

func (l *LedgerService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	return l.store.Transactions().ListByAccount(ctx, userID, limit)
}

// Hold moves a session's cost from the learner into escrow. It runs inside
// the caller's transaction.
func (l *LedgerService) Hold(ctx context.Context, tx repository.Repositories, learner uuid.UUID, amount int64, sessionID uuid.UUID) error {
	_, err := l.transfer(ctx, tx, learner, l.escrow, amount, 0, domain.Meta{
		Key:       domain.HoldKey(sessionID),
		SessionID: sessionID,
		Memo:      "session escrow hold",
	})
	l.metrics.ObserveLedger("hold", err)
	return err
}

// Settle releases escrow to the host minus the platform share.
func (l *LedgerService) Settle(ctx context.Context, tx repository.Repositories, host uuid.UUID, amount int64, sessionID uuid.UUID) error {
	_, err := l.transfer(ctx, tx, l.escrow, host, amount, l.feeRate, domain.Meta{
		Key:       domain.SettleKey(sessionID),
		SessionID: sessionID,
		Memo:      "session settlement",
	})
	l.metrics.ObserveLedger("settle", err)
	return err
}

// Refund returns escrow to the learner in full.
func (l *LedgerService) Refund(ctx context.Context, tx repository.Repositories, learner uuid.UUID, amount int64, sessionID uuid.UUID) error {
	_, err := l.transfer(ctx, tx, l.escrow, learner, amount, 0, domain.Meta{
		Key:       domain.RefundKey(sessionID),
		SessionID: sessionID,
		Memo:      "session refund",
	})
	l.metrics.ObserveLedger("refund", err)
	return err
}

type ledgerOp func(ctx context.Context, tx repository.Repositories) ([]*domain.Transaction, error)

func (l *LedgerService) atomically(ctx context.Context, op string, meta domain.Meta, fn ledgerOp) ([]*domain.Transaction, error) {
	log := l.log.With(slog.String("op", "service.ledger."+op), slog.String("key", meta.Key))

	var out []*domain.Transaction
	err := l.store.Atomically(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		out, err = fn(ctx, tx)
		return err
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		// A concurrent call with the same key committed first.
		out, err = l.store.Transactions().FindByKey(ctx, meta.Key)
	}
	l.metrics.ObserveLedger(op, err)
	if err != nil {
		log.Info("ledger operation rejected", sl.Err(err))
		return nil, err
	}
	log.Debug("ledger operation committed", slog.Int("rows", len(out)))
	return out, nil
}

func (l *LedgerService) credit(ctx context.Context, tx repository.Repositories, userID uuid.UUID, amount int64, meta domain.Meta) ([]*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	meta = withKey(meta)
	if prior, err := tx.Transactions().FindByKey(ctx, meta.Key); err != nil || len(prior) > 0 {
		return prior, err
	}

	wallet, err := tx.Wallets().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := l.now().UTC()
	wallet.Balance += amount
	wallet.UpdatedAt = now
	if err := tx.Wallets().Save(ctx, wallet); err != nil {
		return nil, err
	}

	row := newTransaction(uuid.Nil, userID, amount, 0, domain.TransactionCredit, meta, now)
	if err := tx.Transactions().Append(ctx, row); err != nil {
		return nil, err
	}
	return []*domain.Transaction{row}, nil
}

func (l *LedgerService) debit(ctx context.Context, tx repository.Repositories, userID uuid.UUID, amount int64, meta domain.Meta) ([]*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	meta = withKey(meta)
	if prior, err := tx.Transactions().FindByKey(ctx, meta.Key); err != nil || len(prior) > 0 {
		return prior, err
	}

	wallet, err := tx.Wallets().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance < amount {
		return nil, fmt.Errorf("%w: balance %d, need %d", domain.ErrInsufficientFunds, wallet.Balance, amount)
	}
	now := l.now().UTC()
	wallet.Balance -= amount
	wallet.UpdatedAt = now
	if err := tx.Wallets().Save(ctx, wallet); err != nil {
		return nil, err
	}

	row := newTransaction(userID, uuid.Nil, amount, 0, domain.TransactionDebit, meta, now)
	if err := tx.Transactions().Append(ctx, row); err != nil {
		return nil, err
	}
	return []*domain.Transaction{row}, nil
}

// transfer debits from the full amount and credits to the amount less the
// platform share. The share is recorded on the credit row and booked to the
// platform account.
func (l *LedgerService) transfer(ctx context.Context, tx repository.Repositories, from, to uuid.UUID, amount int64, rate float64, meta domain.Meta) ([]*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if from == to {
		return nil, errors.New("cannot transfer to the same account")
	}
	if rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("platform fee rate %v out of range", rate)
	}
	meta = withKey(meta)
	if prior, err := tx.Transactions().FindByKey(ctx, meta.Key); err != nil || len(prior) > 0 {
		return prior, err
	}

	share := PlatformShare(amount, rate)
	accounts := []uuid.UUID{from, to}
	if share > 0 {
		accounts = append(accounts, l.platform)
	}
	wallets, err := lockWallets(ctx, tx, accounts)
	if err != nil {
		return nil, err
	}

	payer, payee := wallets[from], wallets[to]
	if payer.Balance < amount {
		return nil, fmt.Errorf("%w: balance %d, need %d", domain.ErrInsufficientFunds, payer.Balance, amount)
	}

	now := l.now().UTC()
	payer.Balance -= amount
	payee.Balance += amount - share
	if share > 0 {
		wallets[l.platform].Balance += share
	}
	for _, w := range wallets {
		w.UpdatedAt = now
		if err := tx.Wallets().Save(ctx, w); err != nil {
			return nil, err
		}
	}

	debit := newTransaction(from, to, amount, 0, domain.TransactionDebit, meta, now)
	credit := newTransaction(from, to, amount-share, share, domain.TransactionCredit, meta, now)
	if err := tx.Transactions().Append(ctx, debit, credit); err != nil {
		return nil, err
	}
	return []*domain.Transaction{debit, credit}, nil
}

// PlatformShare is the platform fee on amount, rounded down. The rate is
// applied in whole basis points.
func PlatformShare(amount int64, rate float64) int64 {
	if amount <= 0 || rate <= 0 {
		return 0
	}
	bp := int64(math.Round(rate * basisPoints))
	return amount * bp / basisPoints
}

// lockWallets locks accounts in a fixed order so concurrent transfers between
// the same wallets cannot deadlock.
func lockWallets(ctx context.Context, tx repository.Repositories, accounts []uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	ordered := make([]uuid.UUID, 0, len(accounts))
	seen := make(map[uuid.UUID]struct{}, len(accounts))
	for _, id := range accounts {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	slices.SortFunc(ordered, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	wallets := make(map[uuid.UUID]*domain.Wallet, len(ordered))
	for _, id := range ordered {
		w, err := tx.Wallets().GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		wallets[id] = w
	}
	return wallets, nil
}

func withKey(meta domain.Meta) domain.Meta {
	if meta.Key == "" {
		meta.Key = "op:" + uuid.NewString()
	}
	return meta
}

func newTransaction(from, to uuid.UUID, amount, share int64, typ domain.TransactionType, meta domain.Meta, now time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:               uuid.New(),
		FromUserID:       from,
		ToUserID:         to,
		Amount:           amount,
		PlatformShare:    share,
		Type:             typ,
		RelatedSessionID: meta.SessionID,
		IdempotencyKey:   meta.Key,
		Memo:             meta.Memo,
		CreatedAt:        now,
	}
}
