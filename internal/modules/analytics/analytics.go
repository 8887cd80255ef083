// Package analytics collects lightweight client events into a bounded
// in-memory ring. Events are best-effort telemetry, not durable data:
// a restart drops the ring and that is fine.
package analytics

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/middleware"
	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/response"
)

const (
	defaultRingSize = 1000
	maxBatch        = 50
	maxTypeLen      = 64
)

// Ring is a fixed-size circular buffer of analytics events. Writes
// overwrite the oldest entry once full.
type Ring struct {
	mu    sync.Mutex
	buf   []models.AnalyticsEvent
	next  int
	count int
	total int64
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = defaultRingSize
	}
	return &Ring{buf: make([]models.AnalyticsEvent, size)}
}

func (r *Ring) Add(ev models.AnalyticsEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.total++
}

// Recent returns up to limit events, newest first.
func (r *Ring) Recent(limit int) []models.AnalyticsEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > r.count {
		limit = r.count
	}
	out := make([]models.AnalyticsEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Total is the all-time ingest count, including overwritten events.
func (r *Ring) Total() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

type Handler struct {
	ring   *Ring
	logger *zap.Logger
}

func NewHandler(ringSize int, logger *zap.Logger) *Handler {
	return &Handler{ring: NewRing(ringSize), logger: logger.Named("analytics")}
}

// Ring exposes the underlying buffer, mainly for tests and stats.
func (h *Handler) Ring() *Ring { return h.ring }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/analytics/events", h.ingest)
	rg.GET("/analytics/events", authMW, h.list)
}

type eventBody struct {
	Type      string                 `json:"type" binding:"required"`
	RequestID string                 `json:"requestId"`
	Payload   map[string]interface{} `json:"payload"`
}

type ingestBody struct {
	Events []eventBody `json:"events" binding:"required"`
}

// ingest accepts a small batch of events. Invalid entries are skipped
// rather than failing the batch; telemetry should never break a client.
func (h *Handler) ingest(c *gin.Context) {
	var body ingestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if len(body.Events) > maxBatch {
		body.Events = body.Events[:maxBatch]
	}

	sid := c.GetString(middleware.ContextKeySID)
	now := time.Now()
	accepted := 0
	for _, ev := range body.Events {
		typ := strings.TrimSpace(ev.Type)
		if typ == "" || len(typ) > maxTypeLen {
			continue
		}
		h.ring.Add(models.AnalyticsEvent{
			Type:      typ,
			SessionID: sid,
			RequestID: ev.RequestID,
			Payload:   ev.Payload,
			IP:        c.ClientIP(),
			UA:        c.Request.UserAgent(),
			Timestamp: now,
		})
		accepted++
	}
	response.OK(c, gin.H{"accepted": accepted})
}

func (h *Handler) list(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, ok := atoiInRange(v, 1, 1000); ok {
			limit = n
		}
	}
	events := h.ring.Recent(limit)
	response.OK(c, gin.H{
		"events": events,
		"count":  len(events),
		"total":  h.ring.Total(),
	})
}

func atoiInRange(s string, lo, hi int) (int, bool) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > hi {
			return 0, false
		}
	}
	if n < lo {
		return 0, false
	}
	return n, true
}
