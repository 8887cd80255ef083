package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextKeyRequestID is where the per-request id lives in the gin
	// context; the id seeds the pipeline trace.
	ContextKeyRequestID = "request_id"

	HeaderRequestID = "X-Request-Id"

	maxInboundRequestIDLength = 64
)

// RequestID honors a sane inbound X-Request-Id and generates one
// otherwise. The response always carries the header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > maxInboundRequestIDLength || !plainToken(id) {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func plainToken(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
