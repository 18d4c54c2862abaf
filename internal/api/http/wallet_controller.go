package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/api/http/converter"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type WalletController struct {
	ledger service.LedgerInteractor
}

func NewWalletController(ledger service.LedgerInteractor) *WalletController {
	return &WalletController{ledger: ledger}
}

func (c *WalletController) GetWallet(ctx *gin.Context) {
	wallet, err := c.ledger.Balance(ctx.Request.Context(), identityFrom(ctx).UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"wallet": converter.WalletToApi(wallet)})
}

func (c *WalletController) ListTransactions(ctx *gin.Context) {
	limit := defaultHistoryLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	txs, err := c.ledger.History(ctx.Request.Context(), identityFrom(ctx).UserID, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"transactions": converter.TransactionsToApi(txs)})
}

// Credit tops up a wallet from an external payment. The idempotency key makes
// a retried top-up land once.
func (c *WalletController) Credit(ctx *gin.Context) {
	userID, ok := parseID(ctx, "userID")
	if !ok {
		return
	}
	type CreditRequest struct {
		Amount         int64  `json:"amount" binding:"required"`
		IdempotencyKey string `json:"idempotency_key"`
		Memo           string `json:"memo"`
	}
	var req CreditRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = "topup:" + uuid.NewString()
	}

	txs, err := c.ledger.Credit(ctx.Request.Context(), userID, req.Amount, domain.Meta{Key: key, Memo: req.Memo})
	if err != nil {
		respondError(ctx, err)
		return
	}
	wallet, err := c.ledger.Balance(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"wallet":       converter.WalletToApi(wallet),
		"transactions": converter.TransactionsToApi(txs),
	})
}
