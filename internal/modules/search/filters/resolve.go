// Package filters merges extractor outputs into the final filter set and
// applies it to provider candidates. Everything here is deterministic
// and free of side effects; stage timing and logging belong to the
// orchestrator.
package filters

import "github.com/dinefind/core/internal/models"

// Resolve merges base filters and post constraints with the route
// context. Precedence: intent language/region beat the base extractor,
// post constraints beat base filters on temporal fields, then the
// result is tightened into a consistent open-state.
func Resolve(base models.BaseFilters, post models.PostConstraints, decision models.RouteDecision, fallbackRegion string) models.FinalFilters {
	f := models.FinalFilters{
		Language:    decision.LanguageHint,
		Region:      decision.RegionHint,
		OpenState:   base.OpenState,
		OpenAt:      base.OpenAt,
		OpenBetween: base.OpenBetween,
		PriceLevel:  post.PriceLevel,
		Kosher:      post.Kosher,
		Accessible:  post.Requirements.Accessible,
		Parking:     post.Requirements.Parking,
	}
	if f.Language == "" {
		f.Language = base.Language
	}
	if f.Region == "" {
		f.Region = base.RegionHint
	}
	if f.Region == "" {
		f.Region = fallbackRegion
	}

	if post.OpenState != "" || post.OpenAt != nil || post.OpenBetween != nil {
		f.OpenState = post.OpenState
		f.OpenAt = post.OpenAt
		f.OpenBetween = post.OpenBetween
	}

	tighten(&f)
	return f
}

// tighten forces a consistent temporal shape: OPEN_NOW stands alone, a
// concrete time implies its state, and a state without a time is
// dropped because nothing can honor it.
func tighten(f *models.FinalFilters) {
	if f.OpenState == models.OpenStateNow {
		f.OpenAt, f.OpenBetween = nil, nil
		return
	}
	if f.OpenAt != nil {
		f.OpenState = models.OpenStateAt
		f.OpenBetween = nil
		return
	}
	if f.OpenBetween != nil {
		f.OpenState = models.OpenStateBetween
		return
	}
	f.OpenState = ""
}
