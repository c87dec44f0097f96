package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"videotube/pkg/middleware"
)

type RouterConfig struct {
	CORSOrigins []string
	// AuthRateLimit is the per-IP request rate allowed on login, register
	// and refresh. Zero disables the limit.
	AuthRateLimit float64
	AuthRateBurst int
}

func (h *Handler) Router(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(h.log))
	r.Use(middleware.Metrics())
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(ErrorCollector(h.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := func(c *gin.Context) { c.Next() }
	if cfg.AuthRateLimit > 0 {
		burst := cfg.AuthRateBurst
		if burst <= 0 {
			burst = 1
		}
		limit = middleware.RateLimitPerIP(cfg.AuthRateLimit, burst, 10000, 10*time.Minute)
	}
	verify := middleware.VerifyJWT(h.tokens, h.users, h.deny)

	users := r.Group("/api/v1/users")
	users.POST("/register", limit, h.Register)
	users.POST("/login", limit, h.Login)
	users.POST("/refresh-token", limit, h.RefreshToken)

	secured := users.Group("", verify)
	secured.POST("/logout", h.Logout)
	secured.POST("/changepsk", h.ChangePassword)
	secured.POST("/changeavatar", h.ChangeAvatar)
	secured.POST("/changecover", h.ChangeCover)
	secured.GET("/current-user", h.CurrentUser)
	secured.PATCH("/update-account", h.UpdateAccount)
	secured.GET("/channel/:username", h.ChannelProfile)
	secured.GET("/history", h.WatchHistory)
	secured.POST("/subscriptions/:channelId", h.ToggleSubscription)

	vids := r.Group("/api/v1/videos", verify)
	vids.POST("", h.PublishVideo)
	vids.GET("", h.ListVideos)
	vids.POST("/:videoId/watch", h.WatchVideo)

	return r
}
