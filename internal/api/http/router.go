package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/skillswap/internal/observability"
)

type RouterOptions struct {
	AllowedOrigins []string
	Tokens         TokenValidator
	Metrics        *observability.Metrics

	Posts     *PostController
	Swaps     *SwapController
	Sessions  *SessionController
	Wallets   *WalletController
	Signaling *SignalingController
}

func SetupRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), MetricsMiddleware(opts.Metrics))

	config := cors.DefaultConfig()
	config.AllowOrigins = opts.AllowedOrigins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	if opts.Signaling != nil {
		router.GET("/ws", opts.Signaling.Connect)
	}

	api := router.Group("/api", AuthMiddleware(opts.Tokens))

	if opts.Posts != nil {
		posts := api.Group("/posts")
		posts.POST("", opts.Posts.CreatePost)
		posts.GET("/:postID", opts.Posts.GetPost)
		posts.PUT("/:postID/availability", opts.Posts.UpdateAvailability)
		posts.GET("/:postID/slots", opts.Posts.ListSlots)
	}

	if opts.Swaps != nil {
		swaps := api.Group("/swap-requests")
		swaps.POST("", opts.Swaps.CreateRequest)
		swaps.GET("/:requestID", opts.Swaps.GetRequest)
		swaps.POST("/:requestID/accept", opts.Swaps.Accept)
		swaps.POST("/:requestID/reject", opts.Swaps.Reject)
		swaps.POST("/:requestID/cancel", opts.Swaps.Cancel)
	}

	if opts.Sessions != nil {
		sessions := api.Group("/sessions")
		sessions.GET("/:sessionID", opts.Sessions.GetSession)
		sessions.POST("/:sessionID/join", opts.Sessions.Join)
		sessions.POST("/:sessionID/leave", opts.Sessions.Leave)
		sessions.POST("/:sessionID/complete", opts.Sessions.Complete)
		sessions.POST("/:sessionID/cancel", opts.Sessions.Cancel)
	}

	if opts.Wallets != nil {
		wallets := api.Group("/wallets")
		wallets.GET("/me", opts.Wallets.GetWallet)
		wallets.GET("/me/transactions", opts.Wallets.ListTransactions)
	}

	admin := api.Group("/admin", AdminMiddleware())
	if opts.Sessions != nil {
		admin.POST("/sessions/:sessionID/force-end", opts.Sessions.ForceEnd)
		admin.POST("/sessions/:sessionID/cancel", opts.Sessions.AdminCancel)
	}
	if opts.Wallets != nil {
		admin.POST("/wallets/:userID/credit", opts.Wallets.Credit)
	}

	return router
}
