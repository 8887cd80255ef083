package intent

import (
	"errors"
	"strings"

	"github.com/dinefind/core/internal/models"
)

const (
	defaultNearbyRadiusMeters   = 1500
	defaultLandmarkRadiusMeters = 1000
	defaultBiasRadiusMeters     = 5000
)

func strval(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// buildPlan converts model output into a validated plan. Coordinates
// come only from the caller; the model never supplies any.
func (s *Service) buildPlan(req models.SearchRequest, gate models.GateDecision, out routeOutput) (RoutePlan, error) {
	lang := normalizeLanguageTag(out.Language)
	if lang == "" {
		lang = gate.Language
	}
	region := normalizeRegion(strval(out.Region))
	if region == "" {
		region = s.requestRegion(req)
	}

	decision := models.RouteDecision{
		Route:        models.SearchRoute(out.Route),
		LanguageHint: lang,
		RegionHint:   region,
		Confidence:   out.Confidence,
		Reason:       out.Reason,
	}

	// NEARBY cannot be satisfied without caller coordinates; fall back
	// to a text search over the words we have.
	if decision.Route == models.RouteNearby && req.UserLocation == nil {
		decision.Route = models.RouteTextSearch
		decision.Reason = "nearby_without_coords"
	}

	category := s.chooseCategory(out, decision)
	params, err := s.mapParams(req, decision, category, out)
	if err != nil {
		return RoutePlan{}, err
	}
	if err := params.Validate(); err != nil {
		return RoutePlan{}, err
	}
	return RoutePlan{Decision: decision, Params: params, Category: category}, nil
}

// chooseCategory picks the canonical English category, except when the
// query language is local to the target region, where the original
// wording finds more local results.
func (s *Service) chooseCategory(out routeOutput, decision models.RouteDecision) string {
	local := strval(out.CategoryLocal)
	if local != "" && languageMatchesRegion(decision.LanguageHint, decision.RegionHint) {
		return local
	}
	return strval(out.Category)
}

func (s *Service) mapParams(req models.SearchRequest, decision models.RouteDecision, category string, out routeOutput) (models.ProviderParams, error) {
	switch decision.Route {
	case models.RouteNearby:
		return s.mapNearby(req, decision, category)
	case models.RouteLandmark:
		return s.mapLandmark(decision, category, out)
	default:
		return s.mapTextSearch(req, decision, category, out)
	}
}

func (s *Service) mapNearby(req models.SearchRequest, decision models.RouteDecision, category string) (models.ProviderParams, error) {
	if req.UserLocation == nil {
		return models.ProviderParams{}, errors.New("nearby route without caller coordinates")
	}
	center := *req.UserLocation
	return models.ProviderParams{
		Route:        models.RouteNearby,
		Center:       &center,
		RadiusMeters: defaultNearbyRadiusMeters,
		Keyword:      category,
		Region:       decision.RegionHint,
		Language:     decision.LanguageHint,
	}, nil
}

func (s *Service) mapTextSearch(req models.SearchRequest, decision models.RouteDecision, category string, out routeOutput) (models.ProviderParams, error) {
	location := strval(out.LocationText)
	if location == "" {
		location = strval(out.Landmark)
	}

	var parts []string
	if category != "" {
		parts = append(parts, category)
	}
	if location != "" {
		parts = append(parts, location)
	}
	text := strings.Join(parts, " ")
	if text == "" {
		text = strings.TrimSpace(req.Query)
	}

	params := models.ProviderParams{
		Route:     models.RouteTextSearch,
		TextQuery: text,
		Region:    decision.RegionHint,
		Language:  decision.LanguageHint,
	}
	if req.UserLocation != nil {
		params.Bias = &models.CircleBias{
			Lat:          req.UserLocation.Lat,
			Lng:          req.UserLocation.Lng,
			RadiusMeters: defaultBiasRadiusMeters,
		}
	}
	return params, nil
}

func (s *Service) mapLandmark(decision models.RouteDecision, category string, out routeOutput) (models.ProviderParams, error) {
	landmark := strval(out.Landmark)
	if landmark == "" {
		return models.ProviderParams{}, errors.New("landmark route without a landmark")
	}
	return models.ProviderParams{
		Route:        models.RouteLandmark,
		GeocodeQuery: landmark,
		RadiusMeters: defaultLandmarkRadiusMeters,
		Keyword:      category,
		Region:       decision.RegionHint,
		Language:     decision.LanguageHint,
	}, nil
}

// ForceNearby rewrites a plan to the NEARBY route around the caller's
// coordinates, keeping the chosen category as keyword. The caller must
// have coordinates.
func (s *Service) ForceNearby(plan RoutePlan, req models.SearchRequest) RoutePlan {
	center := *req.UserLocation
	plan.Decision.Route = models.RouteNearby
	plan.Decision.Reason = "near_me_override"
	plan.Params = models.ProviderParams{
		Route:        models.RouteNearby,
		Center:       &center,
		RadiusMeters: defaultNearbyRadiusMeters,
		Keyword:      plan.Category,
		Region:       plan.Params.Region,
		Language:     plan.Params.Language,
	}
	return plan
}

func (s *Service) requestRegion(req models.SearchRequest) string {
	if region := normalizeRegion(req.RegionHint); region != "" {
		return region
	}
	return s.cfg.Locale.Region
}
