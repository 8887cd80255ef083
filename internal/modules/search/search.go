// Package search exposes the pipeline over HTTP: the sync/async search
// entry, async result polling, and the orchestrator stats endpoint.
package search

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/middleware"
	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/modules/jobs"
	"github.com/dinefind/core/internal/modules/places"
	"github.com/dinefind/core/internal/modules/search/pipeline"
	"github.com/dinefind/core/internal/pkg/response"
)

const maxQueryLength = 500

// Handler serves the /search routes.
type Handler struct {
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	jobs     jobs.Store
	places   *places.Service
}

func NewHandler(logger *zap.Logger, p *pipeline.Pipeline, store jobs.Store, placesSvc *places.Service) *Handler {
	return &Handler{
		logger:   logger.Named("search"),
		pipeline: p,
		jobs:     store,
		places:   placesSvc,
	}
}

// RegisterRoutes mounts the search endpoints on the API group.
// statsMWs runs on the stats route only; job results and the search
// entry itself must never be served from a shared cache.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, statsMWs ...gin.HandlerFunc) {
	rg.POST("/search", h.handleSearch)
	rg.GET("/search/:requestId/result", h.handleResult)
	rg.GET("/search/stats", append(append([]gin.HandlerFunc{}, statsMWs...), h.handleStats)...)
}

type userLocationBody struct {
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	RegionHint string   `json:"regionHint"`
}

type searchBody struct {
	Query        string            `json:"query"`
	SessionID    string            `json:"sessionId"`
	UserLocation *userLocationBody `json:"userLocation"`
	Mode         string            `json:"mode"`
	CategoryHint string            `json:"categoryHint"`
}

// buildRequest validates the body and produces the immutable pipeline
// input. The request id always comes from the edge, never the client.
func (h *Handler) buildRequest(c *gin.Context, body searchBody) (models.SearchRequest, error) {
	query := strings.TrimSpace(body.Query)
	if query == "" {
		return models.SearchRequest{}, errors.New("query is required")
	}
	if len([]rune(query)) > maxQueryLength {
		return models.SearchRequest{}, errors.New("query too long")
	}

	mode := models.SearchModeSync
	switch strings.ToLower(strings.TrimSpace(body.Mode)) {
	case "", "sync":
	case "async":
		mode = models.SearchModeAsync
	default:
		return models.SearchRequest{}, errors.New("mode must be sync or async")
	}

	req := models.SearchRequest{
		RequestID:    requestID(c),
		Query:        query,
		SessionID:    strings.TrimSpace(body.SessionID),
		Mode:         mode,
		CategoryHint: strings.TrimSpace(body.CategoryHint),
	}
	if loc := body.UserLocation; loc != nil {
		if loc.Lat == nil || loc.Lng == nil {
			return models.SearchRequest{}, errors.New("userLocation requires lat and lng")
		}
		if *loc.Lat < -90 || *loc.Lat > 90 || *loc.Lng < -180 || *loc.Lng > 180 {
			return models.SearchRequest{}, errors.New("userLocation out of range")
		}
		req.UserLocation = &models.LatLng{Lat: *loc.Lat, Lng: *loc.Lng}
		req.RegionHint = strings.TrimSpace(loc.RegionHint)
	}
	return req, nil
}

func (h *Handler) handleSearch(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	req, err := h.buildRequest(c, body)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Mode == models.SearchModeAsync {
		id, err := h.pipeline.Enqueue(c.Request.Context(), req)
		if err != nil {
			h.logger.Error("enqueue failed", zap.String("requestId", req.RequestID), zap.Error(err))
			response.InternalError(c, errors.New("could not enqueue search"))
			return
		}
		response.Accepted(c, gin.H{"requestId": id})
		return
	}

	resp := h.pipeline.Run(c.Request.Context(), req)
	response.OK(c, resp)
}

func (h *Handler) handleResult(c *gin.Context) {
	id := strings.TrimSpace(c.Param("requestId"))
	if id == "" {
		response.BadRequest(c, "requestId is required")
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		response.NotFoundMsg(c, "unknown or expired request id")
		return
	}
	if err != nil {
		h.logger.Warn("job lookup failed", zap.String("requestId", id), zap.Error(err))
		response.InternalError(c, errors.New("job lookup failed"))
		return
	}

	switch job.Status {
	case models.JobDoneSuccess:
		response.OK(c, job.Result)
	case models.JobDoneFailed:
		c.JSON(http.StatusOK, gin.H{
			"requestId": job.ID,
			"status":    job.Status,
			"error":     job.Error,
		})
	default:
		response.Accepted(c, gin.H{"requestId": job.ID, "status": job.Status})
	}
}

func (h *Handler) handleStats(c *gin.Context) {
	response.OK(c, gin.H{
		"pipeline": h.pipeline.Stats(),
		"cache":    h.places.CacheStats(),
		"l1Size":   h.places.CacheSize(),
	})
}

// requestID prefers the id assigned by the request-id middleware so
// logs, jobs and push events correlate with the response header.
func requestID(c *gin.Context) string {
	if id := c.GetString(middleware.ContextKeyRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
