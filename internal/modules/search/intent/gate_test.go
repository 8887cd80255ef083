package intent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/llm"
)

func TestDeriveGateRoute(t *testing.T) {
	svc := newTestService(t, "http://unused")

	tests := []struct {
		name     string
		decision models.GateDecision
		want     models.GateRoute
	}{
		{
			name:     "not food stops",
			decision: models.GateDecision{FoodSignal: models.FoodSignalNo, HasFood: false, HasLocation: true, Confidence: 0.9},
			want:     models.GateRouteStop,
		},
		{
			name:     "no anchors clarifies",
			decision: models.GateDecision{FoodSignal: models.FoodSignalUncertain, HasFood: false, HasLocation: false, Confidence: 0.9},
			want:     models.GateRouteClarify,
		},
		{
			name:     "complete anchors with confidence is core",
			decision: models.GateDecision{FoodSignal: models.FoodSignalYes, HasFood: true, HasLocation: true, Confidence: 0.92},
			want:     models.GateRouteCore,
		},
		{
			name:     "threshold is inclusive",
			decision: models.GateDecision{FoodSignal: models.FoodSignalYes, HasFood: true, HasLocation: true, Confidence: 0.85},
			want:     models.GateRouteCore,
		},
		{
			name:     "below threshold goes full",
			decision: models.GateDecision{FoodSignal: models.FoodSignalYes, HasFood: true, HasLocation: true, Confidence: 0.84},
			want:     models.GateRouteFull,
		},
		{
			name:     "modifiers force full",
			decision: models.GateDecision{FoodSignal: models.FoodSignalYes, HasFood: true, HasLocation: true, Confidence: 0.95, HasModifiers: true},
			want:     models.GateRouteFull,
		},
		{
			name:     "missing location with food goes full",
			decision: models.GateDecision{FoodSignal: models.FoodSignalYes, HasFood: true, HasLocation: false, Confidence: 0.95},
			want:     models.GateRouteFull,
		},
		{
			name:     "uncertain signal with anchors goes full",
			decision: models.GateDecision{FoodSignal: models.FoodSignalUncertain, HasFood: true, HasLocation: true, Confidence: 0.95},
			want:     models.GateRouteFull,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.deriveGateRoute(tt.decision))
		})
	}
}

// Whatever the anchors say, CLARIFY can only come out of the
// no-food-and-no-location case.
func TestGateClarifyRequiresBothAnchorsMissing(t *testing.T) {
	svc := newTestService(t, "http://unused")

	for _, signal := range []models.FoodSignal{models.FoodSignalUncertain, models.FoodSignalYes} {
		for _, hasFood := range []bool{false, true} {
			for _, hasLocation := range []bool{false, true} {
				route := svc.deriveGateRoute(models.GateDecision{
					FoodSignal: signal, HasFood: hasFood, HasLocation: hasLocation, Confidence: 0.5,
				})
				if route == models.GateRouteClarify {
					assert.False(t, hasFood, "clarify with hasFood")
					assert.False(t, hasLocation, "clarify with hasLocation")
				}
			}
		}
	}
}

func TestGateParsesModelOutput(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"foodSignal":   "YES",
		"confidence":   0.91,
		"hasFood":      true,
		"hasLocation":  true,
		"hasModifiers": false,
		"language":     "en",
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	decision := svc.Gate(context.Background(), models.SearchRequest{Query: "pizza in Ashdod"}, llm.Meta{RequestID: "r1"})

	assert.Equal(t, models.GateRouteCore, decision.Route)
	assert.Equal(t, models.FoodSignalYes, decision.FoodSignal)
	assert.Equal(t, "en", decision.Language)
	assert.False(t, decision.Synthesized())
}

func TestGateTimeoutSynthesizesFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	svc.cfg.Pipeline.GateTimeoutMS = 50

	decision := svc.Gate(context.Background(), models.SearchRequest{Query: "pizza"}, llm.Meta{})
	assert.Equal(t, models.GateRouteFull, decision.Route)
	assert.Equal(t, "gate_timeout", decision.Reason)
	assert.Zero(t, decision.Confidence)
	assert.True(t, decision.Synthesized())
}

func TestGateInvalidOutputSynthesizesFull(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"foodSignal":   "MAYBE",
		"confidence":   0.5,
		"hasFood":      true,
		"hasLocation":  true,
		"hasModifiers": false,
		"language":     "en",
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	decision := svc.Gate(context.Background(), models.SearchRequest{Query: "pizza"}, llm.Meta{})

	assert.Equal(t, models.GateRouteFull, decision.Route)
	assert.Equal(t, "invalid_schema", decision.Reason)
}
