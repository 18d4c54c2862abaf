package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/skillswap/internal/api/http/converter"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/service"
)

type PostController struct {
	posts service.PostInteractor
}

func NewPostController(posts service.PostInteractor) *PostController {
	return &PostController{posts: posts}
}

type availabilityRequest struct {
	Days      []int  `json:"days"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (r availabilityRequest) window() domain.AvailabilityWindow {
	days := make([]time.Weekday, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, time.Weekday(d))
	}
	return domain.AvailabilityWindow{Days: days, StartTime: r.StartTime, EndTime: r.EndTime}
}

func (c *PostController) CreatePost(ctx *gin.Context) {
	type CreatePostRequest struct {
		Title        string              `json:"title" binding:"required"`
		CoinsPerHour int64               `json:"coins_per_hour"`
		Availability availabilityRequest `json:"availability"`
	}
	var req CreatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	post, err := c.posts.CreatePost(ctx.Request.Context(), identityFrom(ctx).UserID, req.Title, req.CoinsPerHour, req.Availability.window())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"post": converter.PostToApi(post)})
}

func (c *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseID(ctx, "postID")
	if !ok {
		return
	}
	post, err := c.posts.GetPost(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"post": converter.PostToApi(post)})
}

// UpdateAvailability replaces the window; slots are derived again from it.
func (c *PostController) UpdateAvailability(ctx *gin.Context) {
	postID, ok := parseID(ctx, "postID")
	if !ok {
		return
	}
	var req availabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	post, err := c.posts.UpdateAvailability(ctx.Request.Context(), postID, identityFrom(ctx).UserID, req.window())
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"post": converter.PostToApi(post)})
}

func (c *PostController) ListSlots(ctx *gin.Context) {
	postID, ok := parseID(ctx, "postID")
	if !ok {
		return
	}
	slots, err := c.posts.Slots(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"slots": converter.SlotsToApi(slots)})
}
