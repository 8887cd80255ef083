// Package photos proxies place photo media so the provider credential
// never reaches a browser. Clients only ever see the opaque
// "<place-id>/photos/<photo-id>" reference emitted in search results.
package photos

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/modules/places"
	"github.com/dinefind/core/internal/pkg/response"
)

const (
	defaultWidthPx = 800
	maxWidthPx     = 1600
)

// refPattern matches the opaque reference shape. Anything else is
// rejected before a byte is sent upstream.
var refPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+/photos/[A-Za-z0-9_-]+$`)

type Handler struct {
	places *places.Service
	logger *zap.Logger
}

func NewHandler(placesSvc *places.Service, logger *zap.Logger) *Handler {
	return &Handler{places: placesSvc, logger: logger.Named("photos")}
}

// RegisterRoutes mounts the media proxy. The caller supplies the
// rate-limit middleware so the per-IP budget lives in one place.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, mws...), h.serve)
	rg.GET("/photos/*ref", handlers...)
}

func (h *Handler) serve(c *gin.Context) {
	ref := strings.TrimPrefix(c.Param("ref"), "/")
	if !refPattern.MatchString(ref) {
		response.BadRequest(c, "malformed photo reference")
		return
	}

	width := defaultWidthPx
	if v := c.Query("maxWidthPx"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(c, "maxWidthPx must be a positive integer")
			return
		}
		if n > maxWidthPx {
			n = maxWidthPx
		}
		width = n
	}

	body, contentType, err := h.places.FetchPhoto(c.Request.Context(), ref, width)
	if err != nil {
		h.logger.Warn("photo_fetch_failed", zap.String("ref", ref), zap.Error(err))
		response.NotFoundMsg(c, "photo not available")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Header("Content-Type", contentType)
	c.Status(200)
	if _, err := io.Copy(c.Writer, body); err != nil {
		// Client went away mid-stream; nothing actionable.
		h.logger.Debug("photo_stream_aborted", zap.String("ref", ref), zap.Error(err))
	}
}
