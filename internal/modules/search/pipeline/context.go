package pipeline

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dinefind/core/internal/models"
)

// runContext is the per-request pipeline state. It is owned by the one
// goroutine driving the stages; the filter parallel group never touches
// it, so no field needs a lock.
type runContext struct {
	req        models.SearchRequest
	traceID    string
	startedAt  time.Time
	enqueuedAt time.Time // zero for sync runs

	timings []stageTiming

	gateUsed       bool
	fullIntentUsed bool
	nearMeOverride bool

	// progress, when set, is called once per completed stage. Async
	// runs point it at the push channel.
	progress func(stage string, ms int64)
}

type stageTiming struct {
	name string
	ms   int64
}

func newRunContext(req models.SearchRequest) *runContext {
	return &runContext{
		req:       req,
		traceID:   uuid.NewString(),
		startedAt: time.Now(),
	}
}

// startStage emits the stage_started event and returns the closer that
// emits stage_completed and records the elapsed milliseconds. Stage
// functions themselves never log lifecycle events; both events come
// from here exactly once.
func (p *Pipeline) startStage(rc *runContext, name string) func(fields ...zap.Field) {
	start := time.Now()
	p.logger.Info("stage_started",
		zap.String("stage", name),
		zap.String("requestId", rc.req.RequestID),
		zap.String("traceId", rc.traceID),
	)
	return func(fields ...zap.Field) {
		ms := time.Since(start).Milliseconds()
		rc.timings = append(rc.timings, stageTiming{name: name, ms: ms})
		all := append([]zap.Field{
			zap.String("stage", name),
			zap.String("requestId", rc.req.RequestID),
			zap.Int64("durationMs", ms),
		}, fields...)
		p.logger.Info("stage_completed", all...)
		if rc.progress != nil {
			rc.progress(name, ms)
		}
	}
}

// finish emits the pipeline_completed event with the per-stage
// durations, their sum, the wall-clock remainder, and the queue delay
// for async runs, then bumps the counters.
func (p *Pipeline) finish(rc *runContext, resp *models.SearchResponse) {
	wallMs := time.Since(rc.startedAt).Milliseconds()
	var sumMs int64
	stageMs := make(map[string]int64, len(rc.timings))
	for _, t := range rc.timings {
		stageMs[t.name] = t.ms
		sumMs += t.ms
	}

	fields := []zap.Field{
		zap.String("requestId", rc.req.RequestID),
		zap.String("traceId", rc.traceID),
		zap.Any("stages", stageMs),
		zap.Int64("sumMs", sumMs),
		zap.Int64("wallMs", wallMs),
		zap.Int64("unaccountedMs", wallMs-sumMs),
		zap.Bool("gateUsed", rc.gateUsed),
		zap.Bool("fullIntentUsed", rc.fullIntentUsed),
		zap.Bool("nearMeOverride", rc.nearMeOverride),
		zap.String("failureReason", string(resp.Meta.FailureReason)),
		zap.Int("results", len(resp.Results)),
	}
	if !rc.enqueuedAt.IsZero() {
		fields = append(fields, zap.Int64("queueDelayMs", rc.startedAt.Sub(rc.enqueuedAt).Milliseconds()))
	}
	p.logger.Info("pipeline_completed", fields...)

	p.counters.record(resp.Meta.FailureReason)
}
