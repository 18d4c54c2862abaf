package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/api/http/converter"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/service"
)

type SessionController struct {
	sessions service.SessionInteractor
}

func NewSessionController(sessions service.SessionInteractor) *SessionController {
	return &SessionController{sessions: sessions}
}

func (c *SessionController) GetSession(ctx *gin.Context) {
	sessionID, ok := parseID(ctx, "sessionID")
	if !ok {
		return
	}
	session, err := c.sessions.GetSession(ctx.Request.Context(), sessionID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	caller := identityFrom(ctx)
	if !session.IsParticipant(caller.UserID) && !caller.IsAdmin() {
		respondError(ctx, domain.ErrForbidden)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) Join(ctx *gin.Context) {
	sessionID, ok := parseID(ctx, "sessionID")
	if !ok {
		return
	}
	session, err := c.sessions.Join(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) Leave(ctx *gin.Context) {
	sessionID, ok := parseID(ctx, "sessionID")
	if !ok {
		return
	}
	session, err := c.sessions.Leave(ctx.Request.Context(), sessionID, identityFrom(ctx).UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}

func (c *SessionController) Complete(ctx *gin.Context) {
	c.end(ctx, c.sessions.Complete, domain.ParticipantActor(identityFrom(ctx).UserID))
}

func (c *SessionController) Cancel(ctx *gin.Context) {
	c.end(ctx, c.sessions.Cancel, domain.ParticipantActor(identityFrom(ctx).UserID))
}

// ForceEnd completes any live session on an administrator's behalf.
func (c *SessionController) ForceEnd(ctx *gin.Context) {
	c.end(ctx, c.sessions.Complete, domain.AdminActor(identityFrom(ctx).UserID))
}

func (c *SessionController) AdminCancel(ctx *gin.Context) {
	c.end(ctx, c.sessions.Cancel, domain.AdminActor(identityFrom(ctx).UserID))
}

type endFunc = func(ctx context.Context, sessionID uuid.UUID, actor domain.Actor) (*domain.Session, error)

func (c *SessionController) end(ctx *gin.Context, fn endFunc, actor domain.Actor) {
	sessionID, ok := parseID(ctx, "sessionID")
	if !ok {
		return
	}
	session, err := fn(ctx.Request.Context(), sessionID, actor)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session": converter.SessionToApi(session)})
}
