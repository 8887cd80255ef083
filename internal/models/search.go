package models

// SearchMode selects how a pipeline result is delivered.
type SearchMode string

const (
	SearchModeSync  SearchMode = "sync"
	SearchModeAsync SearchMode = "async"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchRequest is the immutable input to one pipeline run.
// RequestID is assigned by the edge, never taken from the client body.
type SearchRequest struct {
	RequestID    string     `json:"-"`
	Query        string     `json:"query"`
	SessionID    string     `json:"sessionId,omitempty"`
	UserLocation *LatLng    `json:"userLocation,omitempty"`
	RegionHint   string     `json:"regionHint,omitempty"`
	Mode         SearchMode `json:"mode,omitempty"`
	CategoryHint string     `json:"categoryHint,omitempty"`
}

// FailureReason classifies why a search produced no usable results.
type FailureReason string

const (
	FailureNone                FailureReason = "NONE"
	FailureNoResults           FailureReason = "NO_RESULTS"
	FailureLocationRequired    FailureReason = "LOCATION_REQUIRED"
	FailureLowConfidence       FailureReason = "LOW_CONFIDENCE"
	FailureGeocodingFailed     FailureReason = "GEOCODING_FAILED"
	FailureLiveDataUnavailable FailureReason = "LIVE_DATA_UNAVAILABLE"
	FailureProviderError       FailureReason = "PROVIDER_ERROR"
)

// AssistType tags the kind of follow-up the client should render.
type AssistType string

const (
	AssistClarify AssistType = "clarify"
	AssistConfirm AssistType = "confirm"
	AssistSuggest AssistType = "suggest"
)

// Assist asks the user to refine, confirm or retry a search.
type Assist struct {
	Type             AssistType `json:"type"`
	Message          string     `json:"message"`
	SuggestedActions []string   `json:"suggestedActions,omitempty"`
}

// SearchMeta carries per-response diagnostics.
type SearchMeta struct {
	DurationMs     int64         `json:"durationMs"`
	AppliedFilters *FinalFilters `json:"appliedFilters,omitempty"`
	FilterStats    *FilterStats  `json:"filterStats,omitempty"`
	FailureReason  FailureReason `json:"failureReason"`
	Source         string        `json:"source,omitempty"` // provider | cache
}

// PlaceResult is one client-facing result. PhotoURL is an opaque proxy
// path; raw provider URLs never appear here.
type PlaceResult struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Location    LatLng   `json:"location"`
	Rating      float64  `json:"rating,omitempty"`
	ReviewCount int      `json:"reviewCount,omitempty"`
	PriceLevel  int      `json:"priceLevel,omitempty"` // 1..4, 0 unknown
	OpenNow     *bool    `json:"openNow,omitempty"`    // nil when hours are unknown
	Types       []string `json:"types,omitempty"`
	PrimaryType string   `json:"primaryType,omitempty"`
	PhotoURL    string   `json:"photoUrl,omitempty"`
}

// SearchResponse is the terminal output of one pipeline run.
type SearchResponse struct {
	RequestID string        `json:"requestId"`
	SessionID string        `json:"sessionId,omitempty"`
	Results   []PlaceResult `json:"results"`
	Chips     []string      `json:"chips,omitempty"`
	Meta      SearchMeta    `json:"meta"`
	Assist    *Assist       `json:"assist,omitempty"`
}
