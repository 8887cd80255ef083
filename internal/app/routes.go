package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dinefind/core/internal/middleware"
	"github.com/dinefind/core/internal/modules/analytics"
	"github.com/dinefind/core/internal/modules/auth"
	"github.com/dinefind/core/internal/modules/gateway/gateway"
	"github.com/dinefind/core/internal/modules/photos"
	"github.com/dinefind/core/internal/modules/search"
	"github.com/dinefind/core/internal/modules/system"
	"github.com/dinefind/core/internal/pkg/response"
)

func (a *App) registerRoutes(authHandler *auth.Handler) {
	r := a.router

	var rdb *goredis.Client
	if a.rc != nil {
		rdb = a.rc.Raw()
	}

	r.NoRoute(func(c *gin.Context) { response.NotFoundMsg(c, "no such endpoint") })
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"ok":      0,
			"code":    http.StatusMethodNotAllowed,
			"message": "method not allowed",
		})
	})

	// socket.io lives outside the versioned prefix so the client
	// default path works unchanged.
	root := r.Group("")
	gateway.RegisterRoutes(root, a.hub)

	api := r.Group("/api/v1")
	api.Use(middleware.OptionalAuth())
	api.Use(middleware.RateLimit(rdb, "api",
		time.Duration(a.cfg.RateLimit.WindowMS)*time.Millisecond, a.cfg.RateLimit.Max))
	api.Use(middleware.Idempotence(rdb))

	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	authMW := middleware.Auth()

	statsCache := middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{
		TTL:     5 * time.Second,
		Disable: a.cfg.IsDev(),
	})
	search.NewHandler(a.logger, a.pipe, a.jobs, a.places).RegisterRoutes(api, statsCache)
	authHandler.RegisterRoutes(api, authMW)
	analytics.NewHandler(a.cfg.Analytics.RingSize, a.logger).RegisterRoutes(api, authMW)
	system.NewHandler(a.cfg, rdb, a.sched).RegisterRoutes(api, authMW)

	photoLimit := middleware.RateLimit(rdb, "photos", time.Minute, a.cfg.RateLimit.PhotoPerMinute)
	photos.NewHandler(a.places, a.logger).RegisterRoutes(api, photoLimit)
}
