package intent

import (
	"regexp"
	"strings"

	"github.com/dinefind/core/internal/models"
)

// simplePatterns recognize the unambiguous "<category> in <location>"
// shapes the legacy parser accepts, per script. First submatch is the
// category, second the location.
var simplePatterns = []struct {
	lang string
	re   *regexp.Regexp
}{
	{"en", regexp.MustCompile(`(?i)^([\p{Latin}\d'&\- ]+?)\s+(?:in|at)\s+([\p{Latin}\d'&\- ]+)$`)},
	{"he", regexp.MustCompile(`^([\p{Hebrew}\d"' ]+?)\s+ב([\p{Hebrew}\d"' ]+)$`)},
	{"ru", regexp.MustCompile(`^([\p{Cyrillic}\d ]+?)\s+в\s+([\p{Cyrillic}\d ]+)$`)},
	{"ar", regexp.MustCompile(`^([\p{Arabic}\d ]+?)\s+في\s+([\p{Arabic}\d ]+)$`)},
	{"es", regexp.MustCompile(`(?i)^([\p{Latin}\d'&\- ]+?)\s+en\s+([\p{Latin}\d'&\- ]+)$`)},
}

type simpleQuery struct {
	Category string
	Location string
	Language string
}

// parseSimpleQuery splits a city-anchor query into category and location
// without a model call. Returns false for anything ambiguous.
func parseSimpleQuery(query string) (simpleQuery, bool) {
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return simpleQuery{}, false
	}
	for _, p := range simplePatterns {
		m := p.re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		category := strings.TrimSpace(m[1])
		location := strings.TrimSpace(m[2])
		if category == "" || location == "" {
			continue
		}
		return simpleQuery{Category: category, Location: location, Language: p.lang}, true
	}
	return simpleQuery{}, false
}

// heuristicPlan builds a plan without a model call: parsed simple
// queries become a text search over the original query, and a category
// hint plus coordinates becomes a nearby search. Returns false when
// neither applies.
func (s *Service) heuristicPlan(req models.SearchRequest, gate models.GateDecision) (RoutePlan, bool) {
	parsed, ok := parseSimpleQuery(req.Query)
	if !ok {
		if strings.TrimSpace(req.CategoryHint) == "" || req.UserLocation == nil {
			return RoutePlan{}, false
		}
		category := strings.TrimSpace(req.CategoryHint)
		center := *req.UserLocation
		decision := models.RouteDecision{
			Route:        models.RouteNearby,
			LanguageHint: gate.Language,
			RegionHint:   s.requestRegion(req),
			Confidence:   gate.Confidence,
			Reason:       "category_hint",
		}
		return RoutePlan{
			Decision: decision,
			Params: models.ProviderParams{
				Route:        models.RouteNearby,
				Center:       &center,
				RadiusMeters: defaultNearbyRadiusMeters,
				Keyword:      category,
				Region:       decision.RegionHint,
				Language:     decision.LanguageHint,
			},
			Category: category,
		}, true
	}

	lang := parsed.Language
	if lang == "" {
		lang = gate.Language
	}
	category := parsed.Category
	if hint := strings.TrimSpace(req.CategoryHint); hint != "" {
		category = hint
	}

	decision := models.RouteDecision{
		Route:        models.RouteTextSearch,
		LanguageHint: lang,
		RegionHint:   s.requestRegion(req),
		Confidence:   gate.Confidence,
		Reason:       "heuristic_parse",
	}
	params := models.ProviderParams{
		Route:     models.RouteTextSearch,
		TextQuery: strings.Join(strings.Fields(req.Query), " "),
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
	return RoutePlan{Decision: decision, Params: params, Category: category}, true
}
