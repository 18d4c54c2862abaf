package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/auth"
	"github.com/immxrtalbeast/skillswap/internal/observability"
)

const identityKey = "identity"

type TokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

// AuthMiddleware requires a valid bearer token and stores the caller's
// identity in the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := authenticate(ctx, tokens)
		if !ok {
			return
		}
		ctx.Set(identityKey, id)
		ctx.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !identityFrom(ctx).IsAdmin() {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		ctx.Next()
	}
}

func MetricsMiddleware(metrics *observability.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		metrics.ObserveHTTP(ctx.Request.Method, endpoint, strconv.Itoa(ctx.Writer.Status()), time.Since(start))
	}
}

func authenticate(ctx *gin.Context, tokens TokenValidator) (auth.Identity, bool) {
	token := bearerToken(ctx.Request)
	if token == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return auth.Identity{}, false
	}
	id, err := tokens.Validate(token)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return auth.Identity{}, false
	}
	return id, true
}

// bearerToken reads the Authorization header, falling back to the token query
// parameter that browsers must use for websocket upgrades.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("token")
}

func identityFrom(ctx *gin.Context) auth.Identity {
	v, ok := ctx.Get(identityKey)
	if !ok {
		return auth.Identity{}
	}
	id, _ := v.(auth.Identity)
	return id
}

func parseID(ctx *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(param))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
