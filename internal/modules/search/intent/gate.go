package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/llm"
)

type gateOutput struct {
	FoodSignal   string  `json:"foodSignal"`
	Confidence   float64 `json:"confidence"`
	HasFood      bool    `json:"hasFood"`
	HasLocation  bool    `json:"hasLocation"`
	HasModifiers bool    `json:"hasModifiers"`
	Language     string  `json:"language"`
}

func (o *gateOutput) Validate() error {
	switch o.FoodSignal {
	case "NO", "UNCERTAIN", "YES":
	default:
		return fmt.Errorf("foodSignal %q out of range", o.FoodSignal)
	}
	if o.Confidence < 0 || o.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", o.Confidence)
	}
	return nil
}

// Gate runs the fast classifier within its own deadline. It never fails:
// on timeout or invalid output it returns a synthesized FULL decision
// with Reason set so the orchestrator can record the fallback.
func (s *Service) Gate(ctx context.Context, req models.SearchRequest, meta llm.Meta) models.GateDecision {
	meta.Stage = "intent_gate"
	meta.PromptVersion = gatePromptVersion
	meta.PromptHash = gatePromptHash

	gateCtx, cancel := context.WithTimeout(ctx, s.cfg.GateTimeout())
	defer cancel()

	system, prompt := buildGatePrompt(req.Query, req.RegionHint, req.UserLocation != nil)
	var out gateOutput
	err := s.llm.CompleteJSON(gateCtx, llm.Request{
		System: system,
		Prompt: prompt,
		Schema: gateSchema,
		Model:  s.gateModel(),
		Meta:   meta,
	}, &out)
	if err != nil {
		return synthesizedGateDecision(err)
	}

	decision := models.GateDecision{
		FoodSignal:   models.FoodSignal(out.FoodSignal),
		Confidence:   out.Confidence,
		HasFood:      out.HasFood,
		HasLocation:  out.HasLocation,
		HasModifiers: out.HasModifiers,
		Language:     normalizeLanguageTag(out.Language),
	}
	decision.Route = s.deriveGateRoute(decision)
	return decision
}

// deriveGateRoute applies the routing rules to the model's anchors. The
// route is never model-decided; deriving it here keeps the CLARIFY rule
// (no food and no location) mechanical.
func (s *Service) deriveGateRoute(d models.GateDecision) models.GateRoute {
	switch {
	case d.FoodSignal == models.FoodSignalNo:
		return models.GateRouteStop
	case !d.HasFood && !d.HasLocation:
		return models.GateRouteClarify
	case d.FoodSignal == models.FoodSignalYes && d.HasFood && d.HasLocation &&
		d.Confidence >= s.cfg.Pipeline.GateConfidence && !d.HasModifiers:
		return models.GateRouteCore
	default:
		return models.GateRouteFull
	}
}

func synthesizedGateDecision(err error) models.GateDecision {
	reason := "gate_timeout"
	if errors.Is(err, llm.ErrSchema) {
		reason = "invalid_schema"
	}
	return models.GateDecision{
		FoodSignal: models.FoodSignalUncertain,
		Confidence: 0,
		Route:      models.GateRouteFull,
		Reason:     reason,
	}
}
