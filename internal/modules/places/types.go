package places

import (
	"fmt"
	"strings"

	"github.com/dinefind/core/internal/models"
)

// placeFieldMask fixes the response projection for search calls. A
// constant mask keeps payloads small and the parser total.
const placeFieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.rating,places.userRatingCount,places.priceLevel,places.regularOpeningHours,places.types,places.primaryType,places.photos.name"

const (
	maxResultCount = 20
	// maxProviderRadiusMeters stands in for "unbounded" when ranking
	// by distance; the wire format still wants a circle.
	maxProviderRadiusMeters = 50000
)

type latLngWire struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type circleWire struct {
	Center latLngWire `json:"center"`
	Radius float64    `json:"radius"`
}

type circleArea struct {
	Circle circleWire `json:"circle"`
}

type searchTextRequest struct {
	TextQuery    string      `json:"textQuery"`
	LanguageCode string      `json:"languageCode,omitempty"`
	RegionCode   string      `json:"regionCode,omitempty"`
	OpenNow      bool        `json:"openNow,omitempty"`
	PageSize     int         `json:"pageSize,omitempty"`
	LocationBias *circleArea `json:"locationBias,omitempty"`
}

type searchNearbyRequest struct {
	LocationRestriction circleArea `json:"locationRestriction"`
	IncludedTypes       []string   `json:"includedTypes,omitempty"`
	LanguageCode        string     `json:"languageCode,omitempty"`
	RegionCode          string     `json:"regionCode,omitempty"`
	MaxResultCount      int        `json:"maxResultCount,omitempty"`
	RankPreference      string     `json:"rankPreference,omitempty"`
}

type searchResponseWire struct {
	Places []placeWire `json:"places"`
}

type localizedText struct {
	Text string `json:"text"`
}

type photoWire struct {
	Name string `json:"name"`
}

type hourPoint struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type periodWire struct {
	Open  hourPoint  `json:"open"`
	Close *hourPoint `json:"close"`
}

type openingHoursWire struct {
	OpenNow *bool        `json:"openNow"`
	Periods []periodWire `json:"periods"`
}

type placeWire struct {
	ID               string            `json:"id"`
	DisplayName      localizedText     `json:"displayName"`
	FormattedAddress string            `json:"formattedAddress"`
	Location         latLngWire        `json:"location"`
	Rating           float64           `json:"rating"`
	UserRatingCount  int               `json:"userRatingCount"`
	PriceLevel       string            `json:"priceLevel"`
	RegularHours     *openingHoursWire `json:"regularOpeningHours"`
	Types            []string          `json:"types"`
	PrimaryType      string            `json:"primaryType"`
	Photos           []photoWire       `json:"photos"`
}

type providerErrorWire struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type geocodeResponseWire struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type photoMediaWire struct {
	Name     string `json:"name"`
	PhotoURI string `json:"photoUri"`
}

// priceLevelValue folds the provider enum onto the 1-4 scale used
// everywhere else; unspecified and free map to 0.
func priceLevelValue(s string) int {
	switch s {
	case "PRICE_LEVEL_INEXPENSIVE":
		return 1
	case "PRICE_LEVEL_MODERATE":
		return 2
	case "PRICE_LEVEL_EXPENSIVE":
		return 3
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return 4
	default:
		return 0
	}
}

// photoRef strips the resource prefix, leaving the opaque
// place-id/photos/photo-id form clients exchange for images.
func photoRef(name string) string {
	return strings.TrimPrefix(name, "places/")
}

func (p placeWire) toCandidate() models.Candidate {
	c := models.Candidate{
		ProviderID:       p.ID,
		DisplayName:      p.DisplayName.Text,
		FormattedAddress: p.FormattedAddress,
		Location:         models.LatLng{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
		Rating:           p.Rating,
		ReviewCount:      p.UserRatingCount,
		PriceLevel:       priceLevelValue(p.PriceLevel),
		Types:            p.Types,
		PrimaryType:      p.PrimaryType,
	}
	if p.RegularHours != nil {
		c.OpenNow = p.RegularHours.OpenNow
		for _, period := range p.RegularHours.Periods {
			op := models.OpenPeriod{
				OpenDay:  period.Open.Day,
				OpenTime: fmt.Sprintf("%02d:%02d", period.Open.Hour, period.Open.Minute),
			}
			if period.Close != nil {
				op.CloseDay = period.Close.Day
				op.CloseTime = fmt.Sprintf("%02d:%02d", period.Close.Hour, period.Close.Minute)
			}
			c.Periods = append(c.Periods, op)
		}
	}
	for _, photo := range p.Photos {
		if ref := photoRef(photo.Name); ref != "" {
			c.PhotoRefs = append(c.PhotoRefs, ref)
		}
	}
	return c
}
