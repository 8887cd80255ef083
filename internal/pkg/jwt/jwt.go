package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultSecret = "dinefind-secret-change-me"

var secret = []byte(defaultSecret)

// SetSecret configures the JWT signing secret (call on startup).
func SetSecret(s string) {
	if s != "" {
		secret = []byte(s)
	}
}

// Token purposes. Session tokens ride the cookie; ticket tokens authorize
// a single gateway subscription and live for about a minute.
const (
	PurposeSession = "session"
	PurposeTicket  = "ticket"
)

// Claims is the JWT payload.
type Claims struct {
	SessionID string `json:"sid"`
	Purpose   string `json:"purpose"`
	jwtlib.RegisteredClaims
}

// Sign creates a signed token for the given subject and session.
func Sign(subject, sessionID, purpose string, ttl time.Duration) (string, error) {
	claims := Claims{
		SessionID: sessionID,
		Purpose:   purpose,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Parse validates a token string and returns the claims.
func Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ParsePurpose validates a token and additionally checks its purpose.
func ParsePurpose(tokenStr, purpose string) (*Claims, error) {
	claims, err := Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose mismatch")
	}
	return claims, nil
}
