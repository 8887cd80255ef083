package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// fakeAuth marks the request as authenticated the way the auth
// middleware would.
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeySID, "sid-1")
		c.Next()
	}
}

func TestRateLimitBlocksAfterMax(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := newTestRedis(t)

	r := gin.New()
	r.Use(RateLimit(rdb, "api", time.Minute, 2))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w
	}

	assert.Equal(t, http.StatusOK, get().Code)
	assert.Equal(t, http.StatusOK, get().Code)

	w := get()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "too many requests")
}

func TestRateLimitSkipsAuthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := newTestRedis(t)

	r := gin.New()
	r.Use(fakeAuth(), RateLimit(rdb, "api", time.Minute, 1))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for range 5 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(nil, "api", time.Minute, 1))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestIdempotenceRejectsDuplicatePost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := newTestRedis(t)

	r := gin.New()
	r.Use(Idempotence(rdb))
	r.POST("/api/v1/search", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"pizza"}`))
		req.Header.Set("x-idempotence", "abc123")
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, post().Code)

	w := post()
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate request")
}

func TestIdempotenceSkipsGetAndSessionIssue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := newTestRedis(t)

	r := gin.New()
	r.Use(Idempotence(rdb))
	r.GET("/api/v1/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.POST("/api/v1/auth/session", func(c *gin.Context) { c.String(http.StatusOK, "issued") })

	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/session", strings.NewReader(`{}`))
		req.Header.Set("x-idempotence", "same-key")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func newCachedRouter(t *testing.T, rdb *redis.Client, opts HTTPCacheOptions, hits *int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stats", HTTPCache(rdb, opts), func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusOK, gin.H{"pipeline": gin.H{"total": *hits}})
	})
	return r
}

func TestHTTPCacheServesSecondRequestFromRedis(t *testing.T) {
	rdb := newTestRedis(t)
	hits := 0
	r := newCachedRouter(t, rdb, HTTPCacheOptions{TTL: 5 * time.Second}, &hits)

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	first := get("/stats")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "miss", first.Header().Get(HeaderCache))

	second := get("/stats")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "hit", second.Header().Get(HeaderCache))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, hits)

	// Timestamp query parameters force a fresh response.
	bypass := get("/stats?ts=123")
	require.Equal(t, http.StatusOK, bypass.Code)
	assert.Empty(t, bypass.Header().Get(HeaderCache))
	assert.Equal(t, 2, hits)
}

func TestHTTPCacheSkipsAuthenticatedCallers(t *testing.T) {
	rdb := newTestRedis(t)
	hits := 0
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stats", fakeAuth(), HTTPCache(rdb, HTTPCacheOptions{TTL: 5 * time.Second}), func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"total": hits})
	})

	for want := 1; want <= 2; want++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, hits)
	}
}

func TestHTTPCacheDisabled(t *testing.T) {
	rdb := newTestRedis(t)
	hits := 0
	r := newCachedRouter(t, rdb, HTTPCacheOptions{TTL: 5 * time.Second, Disable: true}, &hits)

	for want := 1; want <= 2; want++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, hits)
	}
}

func TestPurgeHTTPCache(t *testing.T) {
	rdb := newTestRedis(t)
	hits := 0
	r := newCachedRouter(t, rdb, HTTPCacheOptions{TTL: time.Minute}, &hits)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	deleted, err := PurgeHTTPCache(t.Context(), rdb)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get(HeaderCache))
	assert.Equal(t, 2, hits)
}
