package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dinefind/core/internal/pkg/jwt"
	"github.com/dinefind/core/internal/pkg/response"
	"github.com/dinefind/core/internal/pkg/session"
)

// Context keys set by the auth middleware.
const (
	ContextKeySubject = "auth_subject"
	ContextKeySID     = "session_id"
)

// resolveSessionToken looks for a session JWT in the Authorization
// header first, then in the session cookie.
func resolveSessionToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	if cookie, err := c.Cookie(session.CookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func authenticate(c *gin.Context) bool {
	token := resolveSessionToken(c)
	if token == "" {
		return false
	}
	claims, err := jwt.ParsePurpose(token, jwt.PurposeSession)
	if err != nil {
		return false
	}
	c.Set(ContextKeySubject, claims.Subject)
	c.Set(ContextKeySID, claims.SessionID)
	return true
}

// Auth requires a valid session on the route.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the session identity when present and lets the
// request through either way.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c)
		c.Next()
	}
}

// IsAuthenticated reports whether the auth middleware identified the
// caller on this request.
func IsAuthenticated(c *gin.Context) bool {
	return c.GetString(ContextKeySID) != ""
}
