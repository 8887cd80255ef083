package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinefind/core/internal/models"
)

func ptr[T any](v T) *T { return &v }

func candidatesWithOpenNow(open, closed, unknown int) []models.Candidate {
	var out []models.Candidate
	for i := 0; i < open; i++ {
		out = append(out, models.Candidate{ProviderID: "open", OpenNow: ptr(true)})
	}
	for i := 0; i < closed; i++ {
		out = append(out, models.Candidate{ProviderID: "closed", OpenNow: ptr(false)})
	}
	for i := 0; i < unknown; i++ {
		out = append(out, models.Candidate{ProviderID: "unknown"})
	}
	return out
}

// Ten candidates, three known-open, two known-closed, five unknown:
// open-now keeps the three open and the five unknown.
func TestApplyOpenNowKeepsUnknown(t *testing.T) {
	input := candidatesWithOpenNow(3, 2, 5)

	kept, stats := Apply(input, models.FinalFilters{OpenState: models.OpenStateNow})

	assert.Len(t, kept, 8)
	assert.Equal(t, models.FilterStats{Before: 10, After: 8, Removed: 2, UnknownExcluded: 0}, stats)
	for _, c := range kept {
		assert.True(t, c.OpenNow == nil || *c.OpenNow, "kept a known-closed candidate")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	input := candidatesWithOpenNow(1, 1, 1)
	snapshot := make([]models.Candidate, len(input))
	copy(snapshot, input)

	_, _ = Apply(input, models.FinalFilters{OpenState: models.OpenStateNow})

	assert.Equal(t, snapshot, input)
}

func TestApplyNoFiltersKeepsEverything(t *testing.T) {
	input := candidatesWithOpenNow(2, 2, 2)
	kept, stats := Apply(input, models.FinalFilters{})
	assert.Len(t, kept, 6)
	assert.Equal(t, models.FilterStats{Before: 6, After: 6}, stats)
}

func TestApplyBudgetPriceCeiling(t *testing.T) {
	input := []models.Candidate{
		{ProviderID: "cheap", PriceLevel: 1},
		{ProviderID: "mid", PriceLevel: 2},
		{ProviderID: "pricey", PriceLevel: 3},
		{ProviderID: "fancy", PriceLevel: 4},
		{ProviderID: "unknown"},
	}
	kept, stats := Apply(input, models.FinalFilters{PriceLevel: ptr(2)})

	require.Len(t, kept, 3)
	for _, c := range kept {
		assert.LessOrEqual(t, c.PriceLevel, 2)
	}
	assert.Equal(t, 2, stats.Removed)
}

func TestApplyUpscalePriceFloor(t *testing.T) {
	input := []models.Candidate{
		{ProviderID: "cheap", PriceLevel: 1},
		{ProviderID: "fancy", PriceLevel: 4},
		{ProviderID: "unknown"},
	}
	kept, _ := Apply(input, models.FinalFilters{PriceLevel: ptr(4)})

	require.Len(t, kept, 2)
	assert.Equal(t, "fancy", kept[0].ProviderID)
	assert.Equal(t, "unknown", kept[1].ProviderID)
}

func TestApplyOpenAt(t *testing.T) {
	fridayEvening := []models.OpenPeriod{
		{OpenDay: 5, OpenTime: "18:00", CloseDay: 5, CloseTime: "23:00"},
	}
	lateNight := []models.OpenPeriod{
		{OpenDay: 6, OpenTime: "22:00", CloseDay: 0, CloseTime: "02:00"},
	}
	alwaysOpen := []models.OpenPeriod{
		{OpenDay: 0, OpenTime: "00:00"},
	}

	tests := []struct {
		name    string
		periods []models.OpenPeriod
		at      models.OpenAt
		kept    bool
	}{
		{"inside window", fridayEvening, models.OpenAt{Day: 5, Time: "21:30"}, true},
		{"after close", fridayEvening, models.OpenAt{Day: 5, Time: "23:30"}, false},
		{"wrong day", fridayEvening, models.OpenAt{Day: 2, Time: "21:00"}, false},
		{"midnight wrap still open", lateNight, models.OpenAt{Day: 0, Time: "01:00"}, true},
		{"midnight wrap closed", lateNight, models.OpenAt{Day: 0, Time: "03:00"}, false},
		{"always open", alwaysOpen, models.OpenAt{Day: 3, Time: "04:00"}, true},
		{"unknown hours kept", nil, models.OpenAt{Day: 5, Time: "21:00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := []models.Candidate{{ProviderID: "p", Periods: tt.periods}}
			f := models.FinalFilters{OpenState: models.OpenStateAt, OpenAt: &tt.at}
			kept, _ := Apply(input, f)
			assert.Equal(t, tt.kept, len(kept) == 1)
		})
	}
}

func TestApplyOpenBetween(t *testing.T) {
	fridayEvening := []models.OpenPeriod{
		{OpenDay: 5, OpenTime: "18:00", CloseDay: 5, CloseTime: "23:00"},
	}

	tests := []struct {
		name    string
		between models.OpenBetween
		kept    bool
	}{
		{"overlapping range", models.OpenBetween{Day: 5, Start: "20:00", End: "22:00"}, true},
		{"partial overlap", models.OpenBetween{Day: 5, Start: "22:00", End: "23:59"}, true},
		{"disjoint range", models.OpenBetween{Day: 5, Start: "08:00", End: "12:00"}, false},
		{"wrong day", models.OpenBetween{Day: 1, Start: "18:00", End: "22:00"}, false},
		{"range crossing midnight", models.OpenBetween{Day: 5, Start: "22:30", End: "01:00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := []models.Candidate{{ProviderID: "p", Periods: fridayEvening}}
			f := models.FinalFilters{OpenState: models.OpenStateBetween, OpenBetween: &tt.between}
			kept, _ := Apply(input, f)
			assert.Equal(t, tt.kept, len(kept) == 1)
		})
	}
}

// Kosher, accessibility and parking have no provider signal and must
// never remove a candidate.
func TestApplyUnsupportedConstraintsAreNoOps(t *testing.T) {
	input := candidatesWithOpenNow(1, 1, 1)
	f := models.FinalFilters{
		Kosher:     ptr(true),
		Accessible: ptr(true),
		Parking:    ptr(true),
	}
	kept, stats := Apply(input, f)
	assert.Len(t, kept, 3)
	assert.Zero(t, stats.Removed)
}
