package places

import (
	"errors"
	"net"
	"net/http"
)

// Sentinel errors callers branch on. A failed landmark resolution is a
// different user-visible outcome than generic provider trouble.
var (
	ErrGeocode   = errors.New("geocoding failed")
	ErrQueueWait = errors.New("provider queue wait exceeded")
)

// errTransient marks provider failures worth one more attempt.
var errTransient = errors.New("transient provider error")

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// isTransient reports whether an attempt may be retried: rate limits,
// upstream 5xx, and network timeouts qualify. 4xx and malformed
// responses fail fast.
func isTransient(err error) bool {
	if errors.Is(err, errTransient) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
