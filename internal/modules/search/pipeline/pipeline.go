// Package pipeline is the search orchestrator: it drives the gate,
// route, filter-extraction, provider and post-filter stages in order,
// owns all stage timing and lifecycle logging, and turns every failure
// into a response envelope. Nothing escapes its boundary as an error.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/modules/jobs"
	"github.com/dinefind/core/internal/modules/places"
	"github.com/dinefind/core/internal/modules/search/filters"
	"github.com/dinefind/core/internal/modules/search/intent"
	"github.com/dinefind/core/internal/pkg/llm"
)

// ChannelSearch is the push channel async results are published on.
const ChannelSearch = "search"

// Publisher pushes progress and terminal events for async runs. The
// gateway hub satisfies it; a nil publisher disables push.
type Publisher interface {
	Publish(ctx context.Context, channel, requestID, typ string, data interface{})
}

// Pipeline composes the stage services. One instance serves all
// requests; per-request state lives in runContext.
type Pipeline struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	intent *intent.Service
	places *places.Service
	jobs   jobs.Store
	pub    Publisher

	counters counters
}

func New(cfg *config.AppConfig, logger *zap.Logger, intentSvc *intent.Service, placesSvc *places.Service, store jobs.Store, pub Publisher) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: logger.Named("pipeline"),
		intent: intentSvc,
		places: placesSvc,
		jobs:   store,
		pub:    pub,
	}
}

// Run executes the pipeline synchronously and always returns a valid
// response envelope.
func (p *Pipeline) Run(ctx context.Context, req models.SearchRequest) *models.SearchResponse {
	rc := newRunContext(req)
	resp := p.execute(ctx, rc)
	p.finish(rc, resp)
	return resp
}

// Enqueue registers an async job for the request and starts the run in
// the background. The returned id is the request id; the caller polls
// the job store or subscribes to the search channel for the result.
func (p *Pipeline) Enqueue(ctx context.Context, req models.SearchRequest) (string, error) {
	if _, err := p.jobs.Create(ctx, req.RequestID); err != nil {
		return "", err
	}
	rc := newRunContext(req)
	rc.enqueuedAt = time.Now()
	go p.runAsync(rc)
	return req.RequestID, nil
}

// runAsync drives one background job: status transitions, the run
// itself, result persistence and the terminal publish. The job TTL
// bounds the whole run so an expired job releases its resources.
func (p *Pipeline) runAsync(rc *runContext) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.JobTTL())
	defer cancel()

	rc.startedAt = time.Now() // queue delay = startedAt - enqueuedAt

	id := rc.req.RequestID
	if err := p.jobs.SetStatus(ctx, id, models.JobRunning); err != nil {
		p.logger.Warn("job start transition failed", zap.String("requestId", id), zap.Error(err))
	}
	if p.pub != nil {
		rc.progress = func(stage string, ms int64) {
			p.pub.Publish(ctx, ChannelSearch, id, "progress", map[string]interface{}{
				"stage":      stage,
				"durationMs": ms,
			})
		}
	}

	resp := p.execute(ctx, rc)
	p.finish(rc, resp)

	// The envelope is the result even when it reports a failure
	// reason; DONE_FAILED is reserved for runs that produced nothing.
	if err := p.jobs.SetResult(ctx, id, resp); err != nil {
		p.logger.Error("job result write failed", zap.String("requestId", id), zap.Error(err))
	}
	if p.pub != nil {
		p.pub.Publish(ctx, ChannelSearch, id, "results", resp)
	}
}

// execute runs the stages. Every return path yields a complete
// envelope; a panic in a stage is caught by the deferred recover and
// reported as a provider error rather than crossing the boundary.
func (p *Pipeline) execute(ctx context.Context, rc *runContext) (resp *models.SearchResponse) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic",
				zap.String("requestId", rc.req.RequestID),
				zap.Any("panic", r),
			)
			resp = p.failureResponse(rc, models.FailureProviderError, assistRetry())
		}
	}()

	req := rc.req
	meta := llm.Meta{
		RequestID: req.RequestID,
		TraceID:   rc.traceID,
		SessionID: req.SessionID,
	}

	// Stage 1: gate. A category hint from the edge replaces the model
	// call with a synthesized food decision.
	var gate models.GateDecision
	endGate := p.startStage(rc, "intent_gate")
	if req.CategoryHint != "" {
		gate = models.GateDecision{
			FoodSignal: models.FoodSignalYes,
			Confidence: 1,
			Route:      models.GateRouteFull,
			HasFood:    true,
		}
	} else {
		rc.gateUsed = true
		gate = p.intent.Gate(ctx, req, meta)
	}
	endGate(
		zap.String("route", string(gate.Route)),
		zap.Float64("confidence", gate.Confidence),
		zap.Bool("synthesized", gate.Synthesized()),
	)
	if gate.Synthesized() {
		p.counters.gateFallbacks.Add(1)
		p.logger.Warn("intent_gate_failed",
			zap.String("requestId", req.RequestID),
			zap.String("reason", strings.TrimPrefix(gate.Reason, "gate_")),
		)
		p.logger.Info("gate_fallback_used", zap.String("requestId", req.RequestID))
	}

	// Stage 2: early exits.
	switch gate.Route {
	case models.GateRouteStop:
		p.logger.Info("intent_gate_stopped", zap.String("requestId", req.RequestID))
		return p.plainResponse(rc, assistNotFood())
	case models.GateRouteClarify:
		p.logger.Info("intent_gate_clarify", zap.String("requestId", req.RequestID))
		return p.plainResponse(rc, assistClarifyQuery())
	}

	// Stage 3: deterministic near-me override.
	nearMe := intent.HasNearMeMarker(req.Query)
	if nearMe && req.UserLocation == nil {
		p.logger.Info("near_me_location_required", zap.String("requestId", req.RequestID))
		return p.failureResponse(rc, models.FailureLocationRequired, assistShareLocation())
	}

	// Stage 4: route selection and parameter mapping.
	endRoute := p.startStage(rc, "route")
	plan, err := p.intent.PlanRoute(ctx, req, gate, meta)
	if err != nil {
		endRoute(zap.Error(err))
		p.logger.Warn("intent_full_failed", zap.String("requestId", req.RequestID), zap.Error(err))
		return p.failureResponse(rc, models.FailureLowConfidence, assistClarifyQuery())
	}
	rc.fullIntentUsed = plan.FullIntentUsed
	if plan.SkipReason != "" {
		p.counters.smartSkips.Add(1)
		p.logger.Info("intent_full_skipped",
			zap.String("requestId", req.RequestID),
			zap.String("reason", plan.SkipReason),
		)
	}
	if nearMe && req.UserLocation != nil && plan.Decision.Route != models.RouteNearby {
		p.logger.Info("route_overridden",
			zap.String("requestId", req.RequestID),
			zap.String("proposed", string(plan.Decision.Route)),
			zap.String("reason", "near_me_override"),
		)
		plan = p.intent.ForceNearby(plan, req)
		rc.nearMeOverride = true
		p.counters.nearMeOverrides.Add(1)
	}
	endRoute(
		zap.String("route", string(plan.Decision.Route)),
		zap.Bool("fullIntentUsed", plan.FullIntentUsed),
	)

	// Stage 5: the filter parallel group. The two extractors share no
	// state and fail independently; a failed extractor contributes its
	// zero value and the run continues.
	endFilters := p.startStage(rc, "filter_extract")
	base, post := p.extractFilters(ctx, req, meta)
	final := filters.Resolve(base, post, plan.Decision, p.fallbackRegion(req))
	endFilters(zap.Bool("empty", final.IsZero()))

	plan.Params.OpenNow = final.OpenState == models.OpenStateNow

	// Stage 6: provider call through the cache tiers.
	endProvider := p.startStage(rc, "provider_search")
	provCtx, cancelProv := context.WithTimeout(ctx, p.cfg.ProviderTimeout())
	candidates, err := p.places.Search(provCtx, plan.Params)
	cancelProv()
	endProvider(zap.Int("candidates", len(candidates)), zap.Error(err))
	if err != nil {
		reason := models.FailureProviderError
		if errors.Is(err, places.ErrGeocode) {
			reason = models.FailureGeocodingFailed
		}
		p.logger.Warn("provider_failed",
			zap.String("requestId", req.RequestID),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return p.failureResponse(rc, reason, assistRetry())
	}

	// Stage 7: deterministic post-filter.
	endPost := p.startStage(rc, "post_filter")
	kept, stats := filters.Apply(candidates, final)
	endPost(
		zap.Int("before", stats.Before),
		zap.Int("after", stats.After),
		zap.Int("removed", stats.Removed),
	)

	if len(kept) == 0 {
		resp := p.failureResponse(rc, models.FailureNoResults, assistBroaden())
		resp.Meta.AppliedFilters = appliedFilters(final)
		resp.Meta.FilterStats = &stats
		return resp
	}
	if final.OpenState == models.OpenStateNow && allHoursUnknown(kept) {
		resp := p.failureResponse(rc, models.FailureLiveDataUnavailable, assistLiveDataUnavailable())
		resp.Meta.AppliedFilters = appliedFilters(final)
		resp.Meta.FilterStats = &stats
		return resp
	}

	// Stage 8: response build. Provider photo resource names become
	// opaque references here; nothing credentialed survives this step.
	endBuild := p.startStage(rc, "build_response")
	resp = &models.SearchResponse{
		RequestID: req.RequestID,
		SessionID: req.SessionID,
		Results:   buildResults(kept),
		Meta: models.SearchMeta{
			DurationMs:     time.Since(rc.startedAt).Milliseconds(),
			AppliedFilters: appliedFilters(final),
			FilterStats:    &stats,
			FailureReason:  models.FailureNone,
			Source:         "provider",
		},
	}
	endBuild(zap.Int("results", len(resp.Results)))
	return resp
}

// extractFilters runs the base and post-constraint extractors as a
// parallel group with a single join point. Group cancellation is wired
// to the request context; an extractor that cannot react in time runs
// to completion and has its output discarded with the group.
func (p *Pipeline) extractFilters(ctx context.Context, req models.SearchRequest, meta llm.Meta) (models.BaseFilters, models.PostConstraints) {
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		base    models.BaseFilters
		post    models.PostConstraints
		baseErr error
		postErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		base, baseErr = p.intent.ExtractBaseFilters(groupCtx, req, meta)
	}()
	go func() {
		defer wg.Done()
		post, postErr = p.intent.ExtractPostConstraints(groupCtx, req, meta)
	}()
	wg.Wait()

	if baseErr != nil {
		base = models.BaseFilters{}
		p.logger.Warn("filter_extract_failed",
			zap.String("requestId", req.RequestID),
			zap.String("extractor", "base"),
			zap.Error(baseErr),
		)
	}
	if postErr != nil {
		post = models.PostConstraints{}
		p.logger.Warn("filter_extract_failed",
			zap.String("requestId", req.RequestID),
			zap.String("extractor", "post"),
			zap.Error(postErr),
		)
	}
	return base, post
}

func (p *Pipeline) fallbackRegion(req models.SearchRequest) string {
	if r := strings.ToUpper(strings.TrimSpace(req.RegionHint)); len(r) == 2 {
		return r
	}
	return p.cfg.Locale.Region
}

func allHoursUnknown(candidates []models.Candidate) bool {
	for _, c := range candidates {
		if c.HoursKnown() {
			return false
		}
	}
	return true
}

func buildResults(candidates []models.Candidate) []models.PlaceResult {
	results := make([]models.PlaceResult, 0, len(candidates))
	for _, c := range candidates {
		r := models.PlaceResult{
			ID:          c.ProviderID,
			Name:        c.DisplayName,
			Address:     c.FormattedAddress,
			Location:    c.Location,
			Rating:      c.Rating,
			ReviewCount: c.ReviewCount,
			PriceLevel:  c.PriceLevel,
			OpenNow:     c.OpenNow,
			Types:       c.Types,
			PrimaryType: c.PrimaryType,
		}
		if len(c.PhotoRefs) > 0 {
			if ref := opaquePhotoRef(c.PhotoRefs[0]); ref != "" {
				r.PhotoURL = "/api/v1/photos/" + ref
			}
		}
		results = append(results, r)
	}
	return results
}

// opaquePhotoRef reduces a provider photo resource name to the
// provider-id/photos/photo-id shape the proxy accepts. Anything that
// does not match yields no photo at all.
func opaquePhotoRef(resource string) string {
	ref := strings.TrimPrefix(resource, "places/")
	parts := strings.Split(ref, "/")
	if len(parts) != 3 || parts[1] != "photos" || parts[0] == "" || parts[2] == "" {
		return ""
	}
	return ref
}

func appliedFilters(f models.FinalFilters) *models.FinalFilters {
	if f.IsZero() {
		return nil
	}
	return &f
}
