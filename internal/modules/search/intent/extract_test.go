package intent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/llm"
)

func TestExtractBaseFiltersOpenNow(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"language":    "en",
		"openState":   "OPEN_NOW",
		"openAt":      nil,
		"openBetween": nil,
		"regionHint":  "IL",
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	filters, err := svc.ExtractBaseFilters(context.Background(), models.SearchRequest{Query: "pizza open now in Ashdod"}, llm.Meta{})
	require.NoError(t, err)

	assert.Equal(t, models.OpenStateNow, filters.OpenState)
	assert.Equal(t, "en", filters.Language)
	assert.Equal(t, "IL", filters.RegionHint)
	assert.Nil(t, filters.OpenAt)
	assert.Nil(t, filters.OpenBetween)
}

func TestExtractBaseFiltersOpenAt(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"language":    "he",
		"openState":   "OPEN_AT",
		"openAt":      map[string]interface{}{"day": 5, "time": "21:30", "timezone": "Asia/Jerusalem"},
		"openBetween": nil,
		"regionHint":  nil,
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	filters, err := svc.ExtractBaseFilters(context.Background(), models.SearchRequest{Query: "מסעדה פתוחה ביום שישי בערב"}, llm.Meta{})
	require.NoError(t, err)

	assert.Equal(t, models.OpenStateAt, filters.OpenState)
	require.NotNil(t, filters.OpenAt)
	assert.Equal(t, 5, filters.OpenAt.Day)
	assert.Equal(t, "21:30", filters.OpenAt.Time)
	assert.Equal(t, "Asia/Jerusalem", filters.OpenAt.Timezone)
}

// A malformed time means the whole extraction is rejected and the caller
// falls back to the all-null default.
func TestExtractBaseFiltersRejectsBadTime(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"language":    "en",
		"openState":   "OPEN_AT",
		"openAt":      map[string]interface{}{"day": 2, "time": "9pm", "timezone": nil},
		"openBetween": nil,
		"regionHint":  nil,
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	filters, err := svc.ExtractBaseFilters(context.Background(), models.SearchRequest{Query: "pizza at 9pm"}, llm.Meta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrSchema)
	assert.Equal(t, models.BaseFilters{}, filters)
}

func TestExtractBaseFiltersRejectsClosedState(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"language":    "en",
		"openState":   "CLOSED_NOW",
		"openAt":      nil,
		"openBetween": nil,
		"regionHint":  nil,
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	_, err := svc.ExtractBaseFilters(context.Background(), models.SearchRequest{Query: "closed restaurants"}, llm.Meta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrSchema)
}

func TestExtractPostConstraintsBudget(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"openState":   nil,
		"openAt":      nil,
		"openBetween": nil,
		"priceLevel":  1,
		"kosher":      nil,
		"requirements": map[string]interface{}{
			"accessible": nil,
			"parking":    true,
		},
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	constraints, err := svc.ExtractPostConstraints(context.Background(), models.SearchRequest{Query: "cheap pizza with parking"}, llm.Meta{})
	require.NoError(t, err)

	require.NotNil(t, constraints.PriceLevel)
	assert.LessOrEqual(t, *constraints.PriceLevel, 2)
	assert.Nil(t, constraints.Kosher)
	require.NotNil(t, constraints.Requirements.Parking)
	assert.True(t, *constraints.Requirements.Parking)
	assert.Nil(t, constraints.Requirements.Accessible)
}

func TestExtractPostConstraintsRejectsPriceOutOfRange(t *testing.T) {
	srv := modelServer(t, map[string]interface{}{
		"openState":    nil,
		"openAt":       nil,
		"openBetween":  nil,
		"priceLevel":   7,
		"kosher":       nil,
		"requirements": map[string]interface{}{"accessible": nil, "parking": nil},
	})
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	constraints, err := svc.ExtractPostConstraints(context.Background(), models.SearchRequest{Query: "pizza"}, llm.Meta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrSchema)
	assert.Equal(t, models.PostConstraints{}, constraints)
}

func TestExtractFailureReturnsZeroDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := newTestService(t, srv.URL)

	filters, err := svc.ExtractBaseFilters(context.Background(), models.SearchRequest{Query: "pizza"}, llm.Meta{})
	require.Error(t, err)
	assert.True(t, filters.OpenState == "" && filters.OpenAt == nil && filters.OpenBetween == nil)

	constraints, err := svc.ExtractPostConstraints(context.Background(), models.SearchRequest{Query: "pizza"}, llm.Meta{})
	require.Error(t, err)
	assert.Nil(t, constraints.PriceLevel)
	assert.Nil(t, constraints.Kosher)
}
