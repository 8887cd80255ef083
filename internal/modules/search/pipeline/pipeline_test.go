package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/modules/jobs"
	"github.com/dinefind/core/internal/modules/places"
	"github.com/dinefind/core/internal/modules/search/intent"
	"github.com/dinefind/core/internal/pkg/llm"
)

// modelStub answers the chat-completions endpoint per stage, picking
// the response by the schema embedded in the request body.
type modelStub struct {
	mu     sync.Mutex
	gate   interface{}
	route  interface{}
	base   interface{}
	post   interface{}
	calls  map[string]int
	server *httptest.Server
}

func newModelStub(t *testing.T) *modelStub {
	t.Helper()
	s := &modelStub{
		gate: map[string]interface{}{
			"foodSignal": "YES", "confidence": 0.95,
			"hasFood": true, "hasLocation": true, "hasModifiers": false,
			"language": "en",
		},
		route: map[string]interface{}{
			"route": "TEXTSEARCH", "category": "pizza", "categoryLocal": nil,
			"locationText": "Tel Aviv", "landmark": nil,
			"language": "en", "region": "IL", "confidence": 0.9, "reason": "city search",
		},
		base: map[string]interface{}{
			"language": "en", "openState": nil, "openAt": nil,
			"openBetween": nil, "regionHint": nil,
		},
		post: map[string]interface{}{
			"openState": nil, "openAt": nil, "openBetween": nil,
			"priceLevel": nil, "kosher": nil,
			"requirements": map[string]interface{}{"accessible": nil, "parking": nil},
		},
		calls: map[string]int{},
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		text := string(body)

		s.mu.Lock()
		var content interface{}
		switch {
		case strings.Contains(text, "foodSignal"):
			s.calls["gate"]++
			content = s.gate
		case strings.Contains(text, "priceLevel"):
			s.calls["post"]++
			content = s.post
		case strings.Contains(text, "landmark"):
			s.calls["route"]++
			content = s.route
		default:
			s.calls["base"]++
			content = s.base
		}
		s.mu.Unlock()

		raw, _ := json.Marshal(content)
		resp, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(raw)}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
		fmt.Fprint(w, string(resp))
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *modelStub) callCount(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[stage]
}

// providerStub serves the places search endpoints and counts calls per
// path suffix.
type providerStub struct {
	mu     sync.Mutex
	calls  map[string]int
	places []map[string]interface{}
	status int
	server *httptest.Server
}

func newProviderStub(t *testing.T, ids ...string) *providerStub {
	t.Helper()
	s := &providerStub{calls: map[string]int{}, status: http.StatusOK}
	for _, id := range ids {
		s.places = append(s.places, map[string]interface{}{
			"id":               id,
			"displayName":      map[string]interface{}{"text": "Place " + id},
			"formattedAddress": "1 Test St",
			"location":         map[string]interface{}{"latitude": 32.08, "longitude": 34.78},
			"rating":           4.4,
			"userRatingCount":  80,
			"types":            []string{"restaurant"},
			"primaryType":      "restaurant",
			"photos":           []map[string]interface{}{{"name": "places/" + id + "/photos/ph-" + id}},
		})
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		switch {
		case strings.HasSuffix(r.URL.Path, ":searchText"):
			s.calls["text"]++
		case strings.HasSuffix(r.URL.Path, ":searchNearby"):
			s.calls["nearby"]++
		}
		status := s.status
		body := map[string]interface{}{"places": s.places}
		s.mu.Unlock()

		if status != http.StatusOK {
			http.Error(w, `{"error":{"message":"boom"}}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *providerStub) callCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

type capturedEvent struct {
	Channel   string
	RequestID string
	Type      string
	Data      interface{}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *capturePublisher) Publish(_ context.Context, channel, requestID, typ string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{channel, requestID, typ, data})
}

func (p *capturePublisher) byType(typ string) []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedEvent
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func testConfig(modelURL, providerURL string) *config.AppConfig {
	return &config.AppConfig{
		Pipeline: config.PipelineConfig{
			GateTimeoutMS:       2000,
			FullIntentTimeoutMS: 2000,
			FilterTimeoutMS:     2000,
			ProviderTimeoutMS:   2000,
			GateConfidence:      0.85,
		},
		Model: config.ModelConfig{
			Provider:        "openai-compatible",
			APIKey:          "test-key",
			Endpoint:        modelURL,
			Name:            "test-model",
			MaxOutputTokens: 512,
		},
		Provider: config.ProviderConfig{
			APIKey:        "test-key",
			BaseURL:       providerURL,
			GeocodeURL:    providerURL + "/maps/api/geocode/json",
			MaxConcurrent: 4,
			QueueWaitMS:   500,
		},
		Cache: config.CacheConfig{
			L1Size:              50,
			L1TTLSeconds:        60,
			L2TTLSeconds:        900,
			L2OpenNowTTLSeconds: 120,
		},
		Jobs:   config.JobsConfig{TTLSeconds: 60},
		Locale: config.LocaleConfig{Region: "IL", Language: "he", Timezone: "Asia/Jerusalem"},
	}
}

func newTestPipeline(t *testing.T, model *modelStub, provider *providerStub, pub Publisher) (*Pipeline, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	cfg := testConfig(model.server.URL, provider.server.URL)
	intentSvc := intent.NewService(cfg, llm.New(cfg.Model, logger))
	placesSvc := places.NewService(cfg, logger, nil)
	store := jobs.NewStore(cfg, logger, nil)
	return New(cfg, logger, intentSvc, placesSvc, store, pub), logs
}

func request(query string) models.SearchRequest {
	return models.SearchRequest{
		RequestID: "req-" + strings.ReplaceAll(query, " ", "-"),
		Query:     query,
		Mode:      models.SearchModeSync,
	}
}

func TestRunSimpleTextSearch(t *testing.T) {
	model := newModelStub(t)
	provider := newProviderStub(t, "a", "b", "c")
	p, logs := newTestPipeline(t, model, provider, nil)

	resp := p.Run(context.Background(), request("pizza in Ashdod"))

	require.NotNil(t, resp)
	assert.Equal(t, models.FailureNone, resp.Meta.FailureReason)
	assert.Len(t, resp.Results, 3)
	assert.Nil(t, resp.Assist)
	assert.Nil(t, resp.Meta.AppliedFilters)

	// CORE route: the heuristic parser replaces the full-intent call.
	assert.Equal(t, 1, model.callCount("gate"))
	assert.Equal(t, 0, model.callCount("route"))
	assert.Equal(t, 1, provider.callCount("text"))

	// Exactly one start and one completion per stage, and one
	// pipeline_completed for the run.
	started := logs.FilterMessage("stage_started").All()
	completed := logs.FilterMessage("stage_completed").All()
	assert.Equal(t, len(started), len(completed))
	seen := map[string]int{}
	for _, e := range completed {
		seen[e.ContextMap()["stage"].(string)]++
	}
	for stage, n := range seen {
		assert.Equalf(t, 1, n, "stage %s completed %d times", stage, n)
	}
	require.Equal(t, 1, len(logs.FilterMessage("pipeline_completed").All()))
	done := logs.FilterMessage("pipeline_completed").All()[0].ContextMap()
	assert.Equal(t, false, done["nearMeOverride"])
	assert.Equal(t, "NONE", done["failureReason"])
}

func TestRunPhotoURLsAreOpaque(t *testing.T) {
	model := newModelStub(t)
	provider := newProviderStub(t, "a")
	p, _ := newTestPipeline(t, model, provider, nil)

	resp := p.Run(context.Background(), request("pizza in Ashdod"))

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "/api/v1/photos/a/photos/ph-a", resp.Results[0].PhotoURL)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "key=")
	assert.NotContains(t, string(raw), "googleapis.com")
}

func TestRunNearMeWithoutLocation(t *testing.T) {
	model := newModelStub(t)
	provider := newProviderStub(t, "a")
	p, logs := newTestPipeline(t, model, provider, nil)

	resp := p.Run(context.Background(), request("מסעדות לידי"))

	assert.Equal(t, models.FailureLocationRequired, resp.Meta.FailureReason)
	assert.Empty(t, resp.Results)
	require.NotNil(t, resp.Assist)
	assert.Equal(t, models.AssistClarify, resp.Assist.Type)
	assert.Equal(t, 1, len(logs.FilterMessage("near_me_location_required").All()))
	assert.Equal(t, 0, provider.callCount("text")+provider.callCount("nearby"))
}

func TestRunNearMeOverridesMapperRoute(t *testing.T) {
	model := newModelStub(t)
	// Modifiers force the FULL route so the mapper's TEXTSEARCH
	// proposal is exercised and then overridden.
	model.gate = map[string]interface{}{
		"foodSignal": "YES", "confidence": 0.9,
		"hasFood": true, "hasLocation": true, "hasModifiers": true,
		"language": "en",
	}
	provider := newProviderStub(t, "a", "b")
	p, logs := newTestPipeline(t, model, provider, nil)

	req := request("pizza near me")
	req.UserLocation = &models.LatLng{Lat: 32.0853, Lng: 34.7818}
	resp := p.Run(context.Background(), req)

	assert.Equal(t, models.FailureNone, resp.Meta.FailureReason)
	assert.Equal(t, 1, provider.callCount("nearby"))
	assert.Equal(t, 0, provider.callCount("text"))

	overrides := logs.FilterMessage("route_overridden").All()
	require.Equal(t, 1, len(overrides))
	assert.Equal(t, "near_me_override", overrides[0].ContextMap()["reason"])
	assert.Equal(t, "TEXTSEARCH", overrides[0].ContextMap()["proposed"])

	done := logs.FilterMessage("pipeline_completed").All()[0].ContextMap()
	assert.Equal(t, true, done["nearMeOverride"])
}

func TestRunGateStop(t *testing.T) {
	model := newModelStub(t)
	model.gate = map[string]interface{}{
		"foodSignal": "NO", "confidence": 0.99,
		"hasFood": false, "hasLocation": false, "hasModifiers": false,
		"language": "en",
	}
	provider := newProviderStub(t)
	p, _ := newTestPipeline(t, model, provider, nil)

	resp := p.Run(context.Background(), request("how tall is the eiffel tower"))

	assert.Equal(t, models.FailureNone, resp.Meta.FailureReason)
	assert.Empty(t, resp.Results)
	require.NotNil(t, resp.Assist)
	assert.Equal(t, 0, model.callCount("route"))
	assert.Equal(t, 0, provider.callCount("text")+provider.callCount("nearby"))
}

func TestRunGateClarify(t *testing.T) {
	model := newModelStub(t)
	model.gate = map[string]interface{}{
		"foodSignal": "UNCERTAIN", "confidence": 0.4,
		"hasFood": false, "hasLocation": false, "hasModifiers": false,
		"language": "en",
	}
	provider := newProviderStub(t)
	p, _ := newTestPipeline(t, model, provider, nil)

	resp := p.Run(context.Background(), request("hmm"))

	require.NotNil(t, resp.Assist)
	assert.Equal(t, models.AssistClarify, resp.Assist.Type)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, provider.callCount("text")+provider.callCount("nearby"))
}

func TestRunProviderErrorBecomesEnvelope(t *testing.T) {
	model := newModelStub(t)
	provider := newProviderStub(t, "a")
	provider.status = http.StatusInternalServerError
	p, _ := newTestPipeline(t, model, provider, nil)

	resp := p.Run(context.Background(), request("pizza in Ashdod"))

	assert.Equal(t, models.FailureProviderError, resp.Meta.FailureReason)
	assert.Empty(t, resp.Results)
	require.NotNil(t, resp.Assist)
}

func TestRunBudgetConstraintFiltersPrice(t *testing.T) {
	model := newModelStub(t)
	price := 2
	model.post = map[string]interface{}{
		"openState": nil, "openAt": nil, "openBetween": nil,
		"priceLevel": price, "kosher": nil,
		"requirements": map[string]interface{}{"accessible": nil, "parking": nil},
	}
	provider := newProviderStub(t)
	provider.places = []map[string]interface{}{
		{
			"id": "cheap", "displayName": map[string]interface{}{"text": "Cheap"},
			"location":   map[string]interface{}{"latitude": 32.0, "longitude": 34.7},
			"priceLevel": "PRICE_LEVEL_INEXPENSIVE", "types": []string{"restaurant"},
		},
		{
			"id": "fancy", "displayName": map[string]interface{}{"text": "Fancy"},
			"location":   map[string]interface{}{"latitude": 32.1, "longitude": 34.8},
			"priceLevel": "PRICE_LEVEL_VERY_EXPENSIVE", "types": []string{"restaurant"},
		},
	}
	p, _ := newTestPipeline(t, model, provider, nil)

	resp := p.Run(context.Background(), request("cheap pizza in Tel Aviv"))

	require.NotNil(t, resp.Meta.AppliedFilters)
	require.NotNil(t, resp.Meta.AppliedFilters.PriceLevel)
	assert.LessOrEqual(t, *resp.Meta.AppliedFilters.PriceLevel, 2)
	for _, r := range resp.Results {
		if r.PriceLevel > 0 {
			assert.LessOrEqual(t, r.PriceLevel, 2)
		}
	}
	require.NotNil(t, resp.Meta.FilterStats)
	assert.Equal(t, 1, resp.Meta.FilterStats.Removed)
}

func TestEnqueuePublishesTerminalResult(t *testing.T) {
	model := newModelStub(t)
	provider := newProviderStub(t, "a", "b")
	pub := &capturePublisher{}
	p, _ := newTestPipeline(t, model, provider, pub)

	req := request("pizza in Ashdod")
	req.Mode = models.SearchModeAsync
	id, err := p.Enqueue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.RequestID, id)

	var job *models.Job
	require.Eventually(t, func() bool {
		job, err = p.jobs.Get(context.Background(), id)
		return err == nil && job != nil && job.Status.Terminal()
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, models.JobDoneSuccess, job.Status)
	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Results, 2)

	terminal := pub.byType("results")
	require.Equal(t, 1, len(terminal))
	assert.Equal(t, ChannelSearch, terminal[0].Channel)
	assert.Equal(t, id, terminal[0].RequestID)
	assert.NotEmpty(t, pub.byType("progress"))
}

func TestStatsCountFailureReasons(t *testing.T) {
	model := newModelStub(t)
	provider := newProviderStub(t, "a")
	p, _ := newTestPipeline(t, model, provider, nil)

	p.Run(context.Background(), request("pizza in Ashdod"))
	p.Run(context.Background(), request("מסעדות לידי"))

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Succeeded)
	assert.Equal(t, int64(1), stats.ByFailureReason["LOCATION_REQUIRED"])
}
