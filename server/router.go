package server

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Config holds router settings.
type Config struct {
	AllowOrigins []string

	// TrustedProxies may set X-Forwarded-For. Empty trusts none, so the
	// client IP is the connection's remote address.
	TrustedProxies []string

	// Rate limiting is enabled when RedisClient is set and RateLimit > 0.
	RedisClient *redis.Client
	RateLimit   int
	RateWindow  time.Duration
}

// NewRouter wires the dashboard API under /api/v1.
func NewRouter(cfg Config, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Printf("⚠️ Ignoring trusted proxies %v: %v", cfg.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", Health)

	v1 := r.Group("/api/v1")
	if cfg.RedisClient != nil && cfg.RateLimit > 0 {
		v1.Use(NewRateLimiter(RateLimiterConfig{
			RedisClient: cfg.RedisClient,
			Limit:       cfg.RateLimit,
			Window:      cfg.RateWindow,
		}))
		log.Printf("🚦 Rate limit: %d requests per %s", cfg.RateLimit, cfg.RateWindow)
	}
	{
		v1.POST("/upload", h.Upload)
		v1.GET("/data", h.Data)
		v1.GET("/summary", h.Summary)
		v1.GET("/view", h.View)
		v1.GET("/charts", h.Charts)
		v1.GET("/history", h.History)
		v1.GET("/history/:id", h.Detail)
		v1.GET("/history/:id/raw", h.Raw)
		v1.GET("/export", h.Export)
	}
	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
