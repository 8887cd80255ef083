package intent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/llm"
)

// RoutePlan is the route stage result: the decision, the provider
// parameters, and how they were produced. Category keeps the chosen
// category token on its own so the near-me override can rebuild the
// parameters without re-extracting.
type RoutePlan struct {
	Decision       models.RouteDecision
	Params         models.ProviderParams
	Category       string
	FullIntentUsed bool
	SkipReason     string // set when the full extractor was skipped
}

type routeOutput struct {
	Route         string  `json:"route"`
	Category      *string `json:"category"`
	CategoryLocal *string `json:"categoryLocal"`
	LocationText  *string `json:"locationText"`
	Landmark      *string `json:"landmark"`
	Language      string  `json:"language"`
	Region        *string `json:"region"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

func (o *routeOutput) Validate() error {
	switch o.Route {
	case "NEARBY", "TEXTSEARCH", "LANDMARK":
	default:
		return fmt.Errorf("route %q out of range", o.Route)
	}
	if o.Confidence < 0 || o.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", o.Confidence)
	}
	if o.Route == "LANDMARK" && strval(o.Landmark) == "" {
		return errors.New("landmark route without a landmark")
	}
	if o.Route == "TEXTSEARCH" && strval(o.Category) == "" && strval(o.LocationText) == "" {
		return errors.New("text search with neither category nor location")
	}
	return nil
}

// PlanRoute turns the query into a route decision plus provider
// parameters. CORE queries and smart-skip fallbacks use deterministic
// parsing; everything else goes through the full-intent model call,
// whose failure is fatal for the request.
func (s *Service) PlanRoute(ctx context.Context, req models.SearchRequest, gate models.GateDecision, meta llm.Meta) (RoutePlan, error) {
	if gate.Route == models.GateRouteCore {
		if plan, ok := s.heuristicPlan(req, gate); ok {
			plan.SkipReason = "gate_core"
			return plan, nil
		}
		// the gate called it simple but the parser disagreed; use the model
	}
	if gate.Synthesized() && gate.Reason == "gate_timeout" {
		if plan, ok := s.heuristicPlan(req, gate); ok {
			plan.SkipReason = "gate_timeout_simple_query"
			return plan, nil
		}
	}
	return s.fullIntentPlan(ctx, req, gate, meta)
}

func (s *Service) fullIntentPlan(ctx context.Context, req models.SearchRequest, gate models.GateDecision, meta llm.Meta) (RoutePlan, error) {
	meta.Stage = "intent_full"
	meta.PromptVersion = routePromptVersion
	meta.PromptHash = routePromptHash

	fullCtx, cancel := context.WithTimeout(ctx, s.cfg.FullIntentTimeout())
	defer cancel()

	system, prompt := buildRoutePrompt(req.Query, req.RegionHint, req.UserLocation != nil)
	var out routeOutput
	err := s.llm.CompleteJSON(fullCtx, llm.Request{
		System: system,
		Prompt: prompt,
		Schema: routeSchema,
		Meta:   meta,
	}, &out)
	if err != nil {
		return RoutePlan{}, fmt.Errorf("full intent extraction: %w", err)
	}

	plan, err := s.buildPlan(req, gate, out)
	if err != nil {
		return RoutePlan{}, err
	}
	plan.FullIntentUsed = true
	return plan, nil
}
