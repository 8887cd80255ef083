package analytics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/models"
)

func TestRingOverwritesOldest(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Add(models.AnalyticsEvent{Type: fmt.Sprintf("ev-%d", i)})
	}
	require.Equal(t, 3, r.Len())
	assert.EqualValues(t, 5, r.Total())

	recent := r.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "ev-4", recent[0].Type)
	assert.Equal(t, "ev-2", recent[2].Type)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(10, zap.NewNop())
	r := gin.New()
	// The readback auth gate is exercised with a stub middleware.
	authMW := func(c *gin.Context) {
		if c.GetHeader("X-Test-Auth") == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
		}
	}
	h.RegisterRoutes(r.Group("/api/v1"), authMW)
	return r, h
}

func TestIngestSkipsInvalidEvents(t *testing.T) {
	r, h := newTestRouter(t)

	body := `{"events":[{"type":"search_submitted","requestId":"req-1"},{"type":""},{"type":"result_clicked"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":2`)
	assert.Equal(t, 2, h.Ring().Len())
}

func TestIngestRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/events", strings.NewReader(`{"nope":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRequiresAuth(t *testing.T) {
	r, h := newTestRouter(t)
	h.Ring().Add(models.AnalyticsEvent{Type: "search_submitted"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/events?limit=5", nil)
	req.Header.Set("X-Test-Auth", "1")
	r.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), "search_submitted")
}
