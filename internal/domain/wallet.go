package domain

import (
	"time"

	"github.com/google/uuid"
)

type Wallet struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction is one append-only ledger row. A debit row belongs to FromUserID,
// a credit row to ToUserID. External parties are uuid.Nil.
type Transaction struct {
	ID               uuid.UUID       `json:"id"`
	FromUserID       uuid.UUID       `json:"from_user_id"`
	ToUserID         uuid.UUID       `json:"to_user_id"`
	Amount           int64           `json:"amount"`
	PlatformShare    int64           `json:"platform_share"`
	Type             TransactionType `json:"type"`
	RelatedSessionID uuid.UUID       `json:"related_session_id,omitempty"`
	IdempotencyKey   string          `json:"idempotency_key"`
	Memo             string          `json:"memo,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Account returns the wallet a row is booked against.
func (t Transaction) Account() uuid.UUID {
	if t.Type == TransactionDebit {
		return t.FromUserID
	}
	return t.ToUserID
}

// Meta carries the caller's context for a ledger operation. Key makes the
// operation idempotent: a repeated key returns the rows already written.
type Meta struct {
	Key       string
	SessionID uuid.UUID
	Memo      string
}

func HoldKey(sessionID uuid.UUID) string   { return "hold:" + sessionID.String() }
func SettleKey(sessionID uuid.UUID) string { return "settle:" + sessionID.String() }
func RefundKey(sessionID uuid.UUID) string { return "refund:" + sessionID.String() }
