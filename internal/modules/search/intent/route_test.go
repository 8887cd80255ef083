package intent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/llm"
)

func TestPlanRouteCoreSkipsModel(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	gate := models.GateDecision{Route: models.GateRouteCore, FoodSignal: models.FoodSignalYes, HasFood: true, HasLocation: true, Confidence: 0.9}

	plan, err := svc.PlanRoute(context.Background(), models.SearchRequest{Query: "pizza in Ashdod"}, gate, llm.Meta{})
	require.NoError(t, err)

	assert.Equal(t, "gate_core", plan.SkipReason)
	assert.False(t, plan.FullIntentUsed)
	assert.Equal(t, models.RouteTextSearch, plan.Decision.Route)
	assert.EqualValues(t, 0, hits.Load(), "core route must not call the model")
}

func TestPlanRouteGateTimeoutSimpleQuerySkips(t *testing.T) {
	svc := newTestService(t, "http://unused")
	gate := synthesizedGateDecision(llm.ErrTimeout)

	plan, err := svc.PlanRoute(context.Background(), models.SearchRequest{Query: "pizza in tel aviv"}, gate, llm.Meta{})
	require.NoError(t, err)

	assert.Equal(t, "gate_timeout_simple_query", plan.SkipReason)
	assert.False(t, plan.FullIntentUsed)
	assert.Equal(t, models.RouteTextSearch, plan.Decision.Route)
}

func TestPlanRouteFullUsesModel(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"route":         "TEXTSEARCH",
		"category":      "pizza",
		"categoryLocal": nil,
		"locationText":  "Tel Aviv",
		"landmark":      nil,
		"language":      "en",
		"region":        "IL",
		"confidence":    0.8,
		"reason":        "city_anchor",
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	gate := models.GateDecision{Route: models.GateRouteFull, FoodSignal: models.FoodSignalYes, HasFood: true, HasLocation: true, Confidence: 0.7}

	plan, err := svc.PlanRoute(context.Background(), models.SearchRequest{Query: "cheap pizza somewhere in Tel Aviv"}, gate, llm.Meta{})
	require.NoError(t, err)

	assert.True(t, plan.FullIntentUsed)
	assert.Empty(t, plan.SkipReason)
	assert.Equal(t, models.RouteTextSearch, plan.Decision.Route)
	assert.Equal(t, "pizza Tel Aviv", plan.Params.TextQuery)
}

// A complex query the parser cannot split still goes to the model even
// when the gate said CORE.
func TestPlanRouteCoreFallsThroughToModel(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"route":         "LANDMARK",
		"category":      "coffee",
		"categoryLocal": nil,
		"locationText":  nil,
		"landmark":      "Dizengoff Center",
		"language":      "en",
		"region":        "IL",
		"confidence":    0.75,
		"reason":        "landmark_anchor",
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	gate := models.GateDecision{Route: models.GateRouteCore, Confidence: 0.9}

	plan, err := svc.PlanRoute(context.Background(), models.SearchRequest{Query: "coffee next to Dizengoff Center"}, gate, llm.Meta{})
	require.NoError(t, err)
	assert.True(t, plan.FullIntentUsed)
	assert.Equal(t, models.RouteLandmark, plan.Decision.Route)
}

func TestPlanRouteFullIntentFailureIsFatal(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad request"}}`)
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	gate := models.GateDecision{Route: models.GateRouteFull}

	_, err := svc.PlanRoute(context.Background(), models.SearchRequest{Query: "cheap pizza near the beach"}, gate, llm.Meta{})
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}
