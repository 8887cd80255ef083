package models

// OpenPeriod is one weekly opening interval in the place's local time.
// A close on a later day than the open means the interval crosses midnight.
type OpenPeriod struct {
	OpenDay   int    `json:"openDay"` // 0 = Sunday
	OpenTime  string `json:"openTime"`
	CloseDay  int    `json:"closeDay"`
	CloseTime string `json:"closeTime"`
}

// Candidate is a raw provider place record before post-filtering. It is
// server-side only: PhotoRefs are provider resource names that must be
// exchanged for opaque references before leaving the core.
type Candidate struct {
	ProviderID       string       `json:"providerId"`
	DisplayName      string       `json:"displayName"`
	FormattedAddress string       `json:"formattedAddress,omitempty"`
	Location         LatLng       `json:"location"`
	Rating           float64      `json:"rating,omitempty"`
	ReviewCount      int          `json:"reviewCount,omitempty"`
	PriceLevel       int          `json:"priceLevel,omitempty"` // 1..4, 0 unknown
	OpenNow          *bool        `json:"openNow,omitempty"`    // nil = opening hours unknown
	Periods          []OpenPeriod `json:"periods,omitempty"`
	Types            []string     `json:"types,omitempty"`
	PrimaryType      string       `json:"primaryType,omitempty"`
	PhotoRefs        []string     `json:"photoRefs,omitempty"`
}

// HoursKnown reports whether the provider exposed live opening state.
func (c Candidate) HoursKnown() bool { return c.OpenNow != nil }
