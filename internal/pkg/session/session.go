// Package session handles the stateless session cookie: a purpose-bound
// JWT carrying the subject and a generated session id. The token is an
// opaque credential to everything downstream and is never logged.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwtpkg "github.com/dinefind/core/internal/pkg/jwt"
)

const (
	// CookieName carries the session JWT.
	CookieName = "df_session"

	DefaultTTL = 7 * 24 * time.Hour
)

// Session is the issued identity pair.
type Session struct {
	ID        string    `json:"sessionId"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issue mints a session id and a signed session token for the subject.
func Issue(subject string, ttl time.Duration) (string, Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		ExpiresAt: time.Now().Add(ttl),
	}
	token, err := jwtpkg.Sign(subject, s.ID, jwtpkg.PurposeSession, ttl)
	if err != nil {
		return "", Session{}, err
	}
	return token, s, nil
}

// SetCookie writes the session cookie. With a cookie domain configured
// the API and frontend sit on different origins, so the cookie must be
// cross-site: SameSite=None and Secure.
func SetCookie(c *gin.Context, token string, ttl time.Duration, domain string) {
	crossSite := strings.TrimSpace(domain) != ""
	sameSite := http.SameSiteLaxMode
	if crossSite {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(CookieName, token, int(ttl.Seconds()), "/", domain, crossSite, true)
}

// ClearCookie expires the session cookie.
func ClearCookie(c *gin.Context, domain string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", domain, strings.TrimSpace(domain) != "", true)
}
