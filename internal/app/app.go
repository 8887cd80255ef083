// Package app assembles the service: config, Redis, the model client,
// the search pipeline, the push hub, and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/middleware"
	"github.com/dinefind/core/internal/modules/auth"
	"github.com/dinefind/core/internal/modules/gateway/gateway"
	"github.com/dinefind/core/internal/modules/jobs"
	"github.com/dinefind/core/internal/modules/places"
	"github.com/dinefind/core/internal/modules/search/intent"
	"github.com/dinefind/core/internal/modules/search/pipeline"
	pkgcron "github.com/dinefind/core/internal/pkg/cron"
	jwtpkg "github.com/dinefind/core/internal/pkg/jwt"
	"github.com/dinefind/core/internal/pkg/llm"
	pkgredis "github.com/dinefind/core/internal/pkg/redis"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	rc     *pkgredis.Client
	hub    *gateway.Hub
	jobs   jobs.Store
	places *places.Service
	pipe   *pipeline.Pipeline
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: config → Redis → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		if cfg.RedisRequired {
			return nil, fmt.Errorf("redis: %w", err)
		}
		// Degraded single-instance mode: in-memory jobs, no L2 cache,
		// no cross-instance fan-out, no rate limiting.
		logger.Warn("redis unavailable, running with in-memory fallbacks", zap.Error(err))
		rc = nil
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())
	router.Use(cors.New(corsConfig(cfg)))

	authHandler := auth.NewHandler(cfg, logger)
	hub := gateway.NewHub(cfg, rc, logger, auth.ValidateTicket, auth.ValidateDebugToken)

	modelClient := llm.New(cfg.Model, logger)
	intentSvc := intent.NewService(cfg, modelClient)
	placesSvc := places.NewService(cfg, logger, rc)
	store := jobs.NewStore(cfg, logger, rc)
	pipe := pipeline.New(cfg, logger, intentSvc, placesSvc, store, hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	sched := pkgcron.New()
	registerCronJobs(sched, logger, hub, store)
	go sched.Start(ctx)

	app := &App{
		cfg:    cfg,
		router: router,
		rc:     rc,
		hub:    hub,
		jobs:   store,
		places: placesSvc,
		pipe:   pipe,
		logger: logger,
		cancel: cancel,
		sched:  sched,
	}
	app.registerRoutes(authHandler)

	return app, nil
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "x-df-cache", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		c.AllowOriginFunc = func(origin string) bool { return true }
	}
	return c
}

func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) error {
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else if !cfg.IsDev() {
		logger.Warn("jwt_secret is empty, sessions will not survive a restart")
	}
	if tz := strings.TrimSpace(cfg.Locale.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		time.Local = loc
	}
	return nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and closes Redis.
func (a *App) Shutdown() {
	a.cancel()
	if a.rc != nil {
		_ = a.rc.Close()
	}
}
