package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
)

type WalletResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionResponse struct {
	ID            uuid.UUID              `json:"id"`
	Type          domain.TransactionType `json:"type"`
	FromUserID    uuid.UUID              `json:"from_user_id"`
	ToUserID      uuid.UUID              `json:"to_user_id"`
	Amount        int64                  `json:"amount"`
	PlatformShare int64                  `json:"platform_share"`
	SessionID     *uuid.UUID             `json:"session_id,omitempty"`
	Memo          string                 `json:"memo,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func WalletToApi(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{UserID: w.UserID, Balance: w.Balance, UpdatedAt: w.UpdatedAt}
}

func TransactionsToApi(txs []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		row := TransactionResponse{
			ID:            t.ID,
			Type:          t.Type,
			FromUserID:    t.FromUserID,
			ToUserID:      t.ToUserID,
			Amount:        t.Amount,
			PlatformShare: t.PlatformShare,
			Memo:          t.Memo,
			CreatedAt:     t.CreatedAt,
		}
		if t.RelatedSessionID != uuid.Nil {
			id := t.RelatedSessionID
			row.SessionID = &id
		}
		out = append(out, row)
	}
	return out
}
