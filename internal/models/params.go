package models

import (
	"errors"
	"fmt"
)

// CircleBias nudges a text search toward a point without constraining it.
// Either all three fields are meaningful or the bias is absent entirely.
type CircleBias struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters int     `json:"radiusMeters"`
}

// ProviderParams is one provider call in canonical form. Route
// discriminates which field group is populated.
type ProviderParams struct {
	Route SearchRoute `json:"route"`

	// TEXTSEARCH
	TextQuery string      `json:"textQuery,omitempty"`
	Bias      *CircleBias `json:"bias,omitempty"`

	// NEARBY
	Center         *LatLng `json:"center,omitempty"`
	RadiusMeters   int     `json:"radiusMeters,omitempty"`
	Keyword        string  `json:"keyword,omitempty"`
	RankByDistance bool    `json:"rankByDistance,omitempty"`

	// LANDMARK: geocode first, then a NEARBY-shaped search at the result
	GeocodeQuery string `json:"geocodeQuery,omitempty"`

	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
	OpenNow  bool   `json:"openNow,omitempty"`
}

// Validate enforces the shape rules the mapper must respect: no center
// alongside free text, no rank-by-distance with text search, no route
// missing its anchor field.
func (p ProviderParams) Validate() error {
	switch p.Route {
	case RouteNearby:
		if p.Center == nil {
			return errors.New("nearby parameters require a center")
		}
		if p.TextQuery != "" {
			return errors.New("nearby parameters must not carry a text query")
		}
		if !p.RankByDistance && p.RadiusMeters <= 0 {
			return errors.New("nearby parameters require a radius or rank-by-distance")
		}
		if p.RankByDistance && p.RadiusMeters > 0 {
			return errors.New("rank-by-distance excludes a radius")
		}
	case RouteTextSearch:
		if p.TextQuery == "" {
			return errors.New("text search requires a text query")
		}
		if p.Center != nil {
			return errors.New("text search must not carry a center")
		}
		if p.RankByDistance {
			return errors.New("rank-by-distance cannot be combined with text search")
		}
	case RouteLandmark:
		if p.GeocodeQuery == "" {
			return errors.New("landmark parameters require a geocode query")
		}
		if p.Center != nil {
			return errors.New("landmark parameters resolve their center by geocoding")
		}
	default:
		return fmt.Errorf("unknown route %q", p.Route)
	}
	return nil
}
