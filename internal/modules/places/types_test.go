package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordTypes(t *testing.T) {
	tests := []struct {
		keyword string
		want    []string
	}{
		{"pizza", []string{"pizza_restaurant"}},
		{"best pizza", []string{"pizza_restaurant"}},
		{"pizzas", []string{"pizza_restaurant"}},
		{"פיצה", []string{"pizza_restaurant"}},
		{"sushi", []string{"sushi_restaurant", "japanese_restaurant"}},
		{"burger", []string{"hamburger_restaurant"}},
		{"hamburger", []string{"hamburger_restaurant"}},
		{"ice cream", []string{"ice_cream_shop"}},
		{"bar", []string{"bar"}},
		{"barbecue", []string{"restaurant"}},
		{"", []string{"restaurant"}},
		{"something obscure", []string{"restaurant"}},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			assert.Equal(t, tt.want, keywordTypes(tt.keyword))
		})
	}
}

func TestPriceLevelValue(t *testing.T) {
	assert.Equal(t, 1, priceLevelValue("PRICE_LEVEL_INEXPENSIVE"))
	assert.Equal(t, 2, priceLevelValue("PRICE_LEVEL_MODERATE"))
	assert.Equal(t, 3, priceLevelValue("PRICE_LEVEL_EXPENSIVE"))
	assert.Equal(t, 4, priceLevelValue("PRICE_LEVEL_VERY_EXPENSIVE"))
	assert.Equal(t, 0, priceLevelValue("PRICE_LEVEL_UNSPECIFIED"))
	assert.Equal(t, 0, priceLevelValue(""))
}

func TestPhotoRefStripsResourcePrefix(t *testing.T) {
	assert.Equal(t, "abc/photos/xyz", photoRef("places/abc/photos/xyz"))
	assert.Equal(t, "abc/photos/xyz", photoRef("abc/photos/xyz"))
}

func TestToCandidateMapsHours(t *testing.T) {
	open := true
	wire := placeWire{
		ID:               "p1",
		DisplayName:      localizedText{Text: "Haachim"},
		FormattedAddress: "Ibn Gabirol 12",
		Location:         latLngWire{Latitude: 32.08, Longitude: 34.78},
		Rating:           4.6,
		UserRatingCount:  2100,
		PriceLevel:       "PRICE_LEVEL_EXPENSIVE",
		RegularHours: &openingHoursWire{
			OpenNow: &open,
			Periods: []periodWire{
				{
					Open:  hourPoint{Day: 5, Hour: 9, Minute: 5},
					Close: &hourPoint{Day: 6, Hour: 1, Minute: 30},
				},
				{
					Open: hourPoint{Day: 0, Hour: 0, Minute: 0},
				},
			},
		},
		Types:       []string{"restaurant", "middle_eastern_restaurant"},
		PrimaryType: "middle_eastern_restaurant",
		Photos:      []photoWire{{Name: "places/p1/photos/ph1"}},
	}

	c := wire.toCandidate()
	assert.Equal(t, "p1", c.ProviderID)
	assert.Equal(t, "Haachim", c.DisplayName)
	assert.Equal(t, 3, c.PriceLevel)
	require.NotNil(t, c.OpenNow)
	assert.True(t, *c.OpenNow)

	require.Len(t, c.Periods, 2)
	assert.Equal(t, 5, c.Periods[0].OpenDay)
	assert.Equal(t, "09:05", c.Periods[0].OpenTime)
	assert.Equal(t, 6, c.Periods[0].CloseDay)
	assert.Equal(t, "01:30", c.Periods[0].CloseTime)
	assert.Empty(t, c.Periods[1].CloseTime, "missing close means always open")

	assert.Equal(t, []string{"p1/photos/ph1"}, c.PhotoRefs)
}

func TestToCandidateUnknownHours(t *testing.T) {
	c := placeWire{ID: "p1"}.toCandidate()
	assert.Nil(t, c.OpenNow)
	assert.Empty(t, c.Periods)
	assert.False(t, c.HoursKnown())
}
