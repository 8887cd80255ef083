// Package auth issues session cookies from the configured bearer
// credential, reports the caller identity, and mints the short-lived
// tickets the push gateway requires on subscribe.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/middleware"
	"github.com/dinefind/core/internal/pkg/jwt"
	"github.com/dinefind/core/internal/pkg/response"
	"github.com/dinefind/core/internal/pkg/session"
)

// TicketTTL bounds a gateway-subscribe ticket. Tickets are single-use
// in spirit: the client exchanges one immediately on connect.
const TicketTTL = 60 * time.Second

type Handler struct {
	cfg    *config.AppConfig
	logger *zap.Logger
}

func NewHandler(cfg *config.AppConfig, logger *zap.Logger) *Handler {
	return &Handler{cfg: cfg, logger: logger.Named("auth")}
}

// RegisterRoutes mounts the auth endpoints on the API group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/auth/session", h.handleSession)
	rg.GET("/auth/whoami", h.handleWhoami)
	rg.POST("/auth/gateway-ticket", authMW, h.handleGatewayTicket)
}

// handleSession exchanges the configured bearer credential for a
// session cookie. The subject is a stable digest of the credential, so
// identity survives restarts without any account storage.
func (h *Handler) handleSession(c *gin.Context) {
	configured := strings.TrimSpace(h.cfg.Auth.APIToken)
	if configured == "" {
		response.ForbiddenMsg(c, "session issuance is not configured")
		return
	}

	presented := bearerToken(c)
	if presented == "" {
		response.Unauthorized(c)
		return
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
		response.Unauthorized(c)
		return
	}

	subject := subjectFor(presented)
	token, s, err := session.Issue(subject, h.cfg.SessionTTL())
	if err != nil {
		h.logger.Error("session issue failed", zap.Error(err))
		response.InternalError(c, errors.New("could not issue session"))
		return
	}

	session.SetCookie(c, token, h.cfg.SessionTTL(), h.cfg.Session.CookieDomain)
	response.OK(c, gin.H{
		"sessionId": s.ID,
		"subject":   s.Subject,
		"expiresAt": s.ExpiresAt,
	})
}

func (h *Handler) handleWhoami(c *gin.Context) {
	sid := c.GetString(middleware.ContextKeySID)
	if sid == "" {
		response.OK(c, gin.H{"authenticated": false})
		return
	}
	response.OK(c, gin.H{
		"authenticated": true,
		"sessionId":     sid,
		"subject":       c.GetString(middleware.ContextKeySubject),
	})
}

// handleGatewayTicket mints a short-lived subscribe ticket bound to the
// caller's session.
func (h *Handler) handleGatewayTicket(c *gin.Context) {
	sid := c.GetString(middleware.ContextKeySID)
	subject := c.GetString(middleware.ContextKeySubject)
	ticket, err := jwt.Sign(subject, sid, jwt.PurposeTicket, TicketTTL)
	if err != nil {
		h.logger.Error("ticket issue failed", zap.Error(err))
		response.InternalError(c, errors.New("could not issue ticket"))
		return
	}
	response.OK(c, gin.H{
		"ticket":           ticket,
		"expiresInSeconds": int(TicketTTL.Seconds()),
	})
}

// ValidateTicket is the gateway hub's subscription check.
func ValidateTicket(token string) (string, bool) {
	claims, err := jwt.ParsePurpose(token, jwt.PurposeTicket)
	if err != nil {
		return "", false
	}
	return claims.SessionID, true
}

// ValidateDebugToken gates the debug log-stream namespace: any valid
// session token qualifies.
func ValidateDebugToken(token string) bool {
	_, err := jwt.ParsePurpose(token, jwt.PurposeSession)
	return err == nil
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return ""
}

func subjectFor(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "api-" + hex.EncodeToString(sum[:6])
}
