package models

// OpenState narrows results by opening hours. The empty string means no
// temporal constraint.
type OpenState string

const (
	OpenStateNow     OpenState = "OPEN_NOW"
	OpenStateAt      OpenState = "OPEN_AT"
	OpenStateBetween OpenState = "OPEN_BETWEEN"
)

// OpenAt pins a single weekly instant. Day 0 is Sunday, Time is "HH:mm".
type OpenAt struct {
	Day      int    `json:"day"`
	Time     string `json:"time"`
	Timezone string `json:"timezone,omitempty"`
}

// OpenBetween pins a weekly range on one day.
type OpenBetween struct {
	Day      int    `json:"day"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone,omitempty"`
}

// BaseFilters is the base extractor's output. All-zero is the documented
// fallback when extraction fails.
type BaseFilters struct {
	Language    string       `json:"language,omitempty"`
	OpenState   OpenState    `json:"openState,omitempty"`
	OpenAt      *OpenAt      `json:"openAt,omitempty"`
	OpenBetween *OpenBetween `json:"openBetween,omitempty"`
	RegionHint  string       `json:"regionHint,omitempty"`
}

// Requirements are hard constraints a place must satisfy. Nil means the
// query did not mention the requirement.
type Requirements struct {
	Accessible *bool `json:"accessible,omitempty"`
	Parking    *bool `json:"parking,omitempty"`
}

// PostConstraints is the post-constraint extractor's output.
type PostConstraints struct {
	OpenState    OpenState    `json:"openState,omitempty"`
	OpenAt       *OpenAt      `json:"openAt,omitempty"`
	OpenBetween  *OpenBetween `json:"openBetween,omitempty"`
	PriceLevel   *int         `json:"priceLevel,omitempty"` // 1..4
	Kosher       *bool        `json:"kosher,omitempty"`
	Requirements Requirements `json:"requirements"`
}

// FinalFilters is the tightened merge of both extractors, intent context
// and the caller region. Built once per request, then read-only.
type FinalFilters struct {
	Language    string       `json:"language,omitempty"`
	Region      string       `json:"region,omitempty"`
	OpenState   OpenState    `json:"openState,omitempty"`
	OpenAt      *OpenAt      `json:"openAt,omitempty"`
	OpenBetween *OpenBetween `json:"openBetween,omitempty"`
	PriceLevel  *int         `json:"priceLevel,omitempty"`
	Kosher      *bool        `json:"kosher,omitempty"`
	Accessible  *bool        `json:"accessible,omitempty"`
	Parking     *bool        `json:"parking,omitempty"`
}

// IsZero reports whether no constraint at all was extracted.
func (f FinalFilters) IsZero() bool {
	return f.OpenState == "" && f.OpenAt == nil && f.OpenBetween == nil &&
		f.PriceLevel == nil && f.Kosher == nil && f.Accessible == nil && f.Parking == nil
}

// FilterStats summarizes one post-filter application.
type FilterStats struct {
	Before          int `json:"before"`
	After           int `json:"after"`
	Removed         int `json:"removed"`
	UnknownExcluded int `json:"unknownExcluded"`
}
