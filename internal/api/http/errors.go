package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/repository"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidPost, http.StatusBadRequest},
	{domain.ErrInvalidWindow, http.StatusBadRequest},
	{domain.ErrInvalidSlot, http.StatusBadRequest},
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{domain.ErrSelfRequest, http.StatusUnprocessableEntity},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotAParticipant, http.StatusForbidden},
	{repository.ErrPostNotFound, http.StatusNotFound},
	{repository.ErrSwapRequestNotFound, http.StatusNotFound},
	{repository.ErrSessionNotFound, http.StatusNotFound},
	{domain.ErrAlreadyResolved, http.StatusConflict},
	{domain.ErrAlreadyEnded, http.StatusConflict},
	{domain.ErrNotInProgress, http.StatusConflict},
	{domain.ErrNotCancellable, http.StatusConflict},
	{domain.ErrSessionNotActive, http.StatusConflict},
	{domain.ErrNotYetStarted, http.StatusTooEarly},
	{domain.ErrInsufficientFunds, http.StatusPaymentRequired},
	{domain.ErrRoomFull, http.StatusConflict},
}

func errorStatus(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(ctx *gin.Context, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	ctx.JSON(status, gin.H{"error": msg})
}
