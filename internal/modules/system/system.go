// Package system exposes liveness and operational introspection:
// a public healthz endpoint plus auth-gated cron job inspection.
package system

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/middleware"
	"github.com/dinefind/core/internal/pkg/cron"
	"github.com/dinefind/core/internal/pkg/response"
)

type Handler struct {
	cfg       *config.AppConfig
	rdb       *redis.Client
	sched     *cron.Scheduler
	startedAt time.Time
}

func NewHandler(cfg *config.AppConfig, rdb *redis.Client, sched *cron.Scheduler) *Handler {
	return &Handler{cfg: cfg, rdb: rdb, sched: sched, startedAt: time.Now()}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/healthz", h.healthz)
	rg.GET("/system/time", h.serverTime)

	admin := rg.Group("/system", authMW)
	admin.GET("/cron", h.cronList)
	admin.POST("/cron/run/:name", h.cronRun)
	admin.GET("/cron/task/:name", h.cronTask)
	admin.POST("/cache/purge", h.cachePurge)
}

// healthz reports liveness plus readiness bits. Redis being down only
// degrades the report; the process keeps serving with in-memory
// fallbacks unless it was configured as required.
func (h *Handler) healthz(c *gin.Context) {
	redisOK := false
	if h.rdb != nil {
		pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		redisOK = h.rdb.Ping(pctx).Err() == nil
		cancel()
	}

	status := "ok"
	code := http.StatusOK
	if h.cfg.RedisRequired && !redisOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":        status,
		"uptimeSeconds": int(time.Since(h.startedAt).Seconds()),
		"redis":         redisOK,
		"provider":      h.cfg.Provider.APIKey != "",
		"model":         h.cfg.Model.APIKey != "" || h.cfg.Model.Endpoint != "",
	})
}

// serverTime lets clients compute clock skew before sending
// destination-local open-at times.
func (h *Handler) serverTime(c *gin.Context) {
	now := time.Now()
	response.OK(c, gin.H{
		"unixMs":   now.UnixMilli(),
		"iso":      now.Format(time.RFC3339Nano),
		"timezone": h.cfg.Locale.Timezone,
	})
}

func (h *Handler) cronList(c *gin.Context) {
	items := h.sched.List()
	byName := make(map[string]cron.ListItem, len(items))
	for _, item := range items {
		byName[item.Name] = item
	}
	response.OK(c, byName)
}

func (h *Handler) cronRun(c *gin.Context) {
	if err := h.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.OK(c, gin.H{"message": "job triggered"})
}

func (h *Handler) cronTask(c *gin.Context) {
	result, err := h.sched.GetTask(c.Param("name"))
	if err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.OK(c, result)
}

// cachePurge drops every cached API response so operators can force
// fresh stats after a config change.
func (h *Handler) cachePurge(c *gin.Context) {
	deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), h.rdb)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}
