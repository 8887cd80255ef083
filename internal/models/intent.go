package models

// FoodSignal is the gate's verdict on whether a query is about food.
type FoodSignal string

const (
	FoodSignalNo        FoodSignal = "NO"
	FoodSignalUncertain FoodSignal = "UNCERTAIN"
	FoodSignalYes       FoodSignal = "YES"
)

// GateRoute decides how much of the pipeline the request needs.
type GateRoute string

const (
	GateRouteCore    GateRoute = "CORE"    // anchors complete, skip full extraction
	GateRouteFull    GateRoute = "FULL"    // run the full extractor
	GateRouteClarify GateRoute = "CLARIFY" // ask the user before searching
	GateRouteStop    GateRoute = "STOP"    // not a food query
)

// GateDecision is the fast classifier output. Immutable once built.
// Reason is set only on synthesized fallback decisions.
type GateDecision struct {
	FoodSignal   FoodSignal `json:"foodSignal"`
	Confidence   float64    `json:"confidence"`
	Route        GateRoute  `json:"route"`
	HasFood      bool       `json:"hasFood"`
	HasLocation  bool       `json:"hasLocation"`
	HasModifiers bool       `json:"hasModifiers"`
	Language     string     `json:"language,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// Synthesized reports whether the decision came from a fallback path
// rather than the model.
func (d GateDecision) Synthesized() bool { return d.Reason != "" }

// SearchRoute selects the provider call shape.
type SearchRoute string

const (
	RouteNearby     SearchRoute = "NEARBY"
	RouteTextSearch SearchRoute = "TEXTSEARCH"
	RouteLandmark   SearchRoute = "LANDMARK"
)

// RouteDecision is the selector's choice plus the hints the mapper used.
type RouteDecision struct {
	Route        SearchRoute `json:"route"`
	LanguageHint string      `json:"languageHint,omitempty"`
	RegionHint   string      `json:"regionHint,omitempty"` // two-letter, uppercase
	Confidence   float64     `json:"confidence"`
	Reason       string      `json:"reason,omitempty"`
}
