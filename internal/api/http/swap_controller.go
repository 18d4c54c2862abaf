package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/api/http/converter"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/service"
)

type SwapController struct {
	swaps service.SwapInteractor
}

func NewSwapController(swaps service.SwapInteractor) *SwapController {
	return &SwapController{swaps: swaps}
}

func (c *SwapController) CreateRequest(ctx *gin.Context) {
	type CreateSwapRequest struct {
		PostID          string    `json:"post_id" binding:"required"`
		StartsAt        time.Time `json:"starts_at" binding:"required"`
		DurationMinutes int       `json:"duration_minutes"`
	}
	var req CreateSwapRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	swap, err := c.swaps.Create(ctx.Request.Context(), postID, identityFrom(ctx).UserID, req.StartsAt, req.DurationMinutes)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"request": converter.SwapRequestToApi(swap)})
}

func (c *SwapController) GetRequest(ctx *gin.Context) {
	requestID, ok := parseID(ctx, "requestID")
	if !ok {
		return
	}
	swap, err := c.swaps.Get(ctx.Request.Context(), requestID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	caller := identityFrom(ctx)
	if caller.UserID != swap.RequesterID && caller.UserID != swap.ResponderID && !caller.IsAdmin() {
		respondError(ctx, domain.ErrForbidden)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"request": converter.SwapRequestToApi(swap)})
}

// Accept answers a retried accept with the existing session instead of a
// conflict.
func (c *SwapController) Accept(ctx *gin.Context) {
	requestID, ok := parseID(ctx, "requestID")
	if !ok {
		return
	}
	swap, session, err := c.swaps.Accept(ctx.Request.Context(), requestID, identityFrom(ctx).UserID)
	if err != nil {
		if unchanged(err, swap, domain.SwapRequestAccepted) {
			ctx.JSON(http.StatusOK, gin.H{
				"request":   converter.SwapRequestToApi(swap),
				"session":   converter.SessionToApi(session),
				"unchanged": true,
			})
			return
		}
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"request": converter.SwapRequestToApi(swap),
		"session": converter.SessionToApi(session),
	})
}

func (c *SwapController) Reject(ctx *gin.Context) {
	c.resolve(ctx, domain.SwapRequestRejected, c.swaps.Reject)
}

func (c *SwapController) Cancel(ctx *gin.Context) {
	c.resolve(ctx, domain.SwapRequestCancelled, c.swaps.Cancel)
}

type resolveFunc func(ctx context.Context, requestID, userID uuid.UUID) (*domain.SwapRequest, error)

func (c *SwapController) resolve(ctx *gin.Context, target domain.SwapRequestStatus, fn resolveFunc) {
	requestID, ok := parseID(ctx, "requestID")
	if !ok {
		return
	}
	swap, err := fn(ctx.Request.Context(), requestID, identityFrom(ctx).UserID)
	if err != nil {
		if unchanged(err, swap, target) {
			ctx.JSON(http.StatusOK, gin.H{"request": converter.SwapRequestToApi(swap), "unchanged": true})
			return
		}
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"request": converter.SwapRequestToApi(swap)})
}

// unchanged reports a repeated call whose effect already landed.
func unchanged(err error, swap *domain.SwapRequest, target domain.SwapRequestStatus) bool {
	return errors.Is(err, domain.ErrAlreadyResolved) && swap != nil && swap.Status == target
}
