// internal/handlers/business_test.go
package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot-backend/internal/services"
)

func searchContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest("GET", "/v1/businesses/search?"+rawQuery, nil)
	require.NoError(t, err)
	c.Request = req
	return c
}

func TestParseSearchParamsDefaults(t *testing.T) {
	h := &BusinessHandler{}
	params := h.parseSearchParams(searchContext(t, ""))

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, services.SortRelevance, params.SortBy)
	assert.False(t, params.HasGeo())
	assert.Nil(t, params.Radius)
	assert.False(t, params.OpenNow)
}

func TestParseSearchParamsGeoAndFilters(t *testing.T) {
	h := &BusinessHandler{}
	params := h.parseSearchParams(searchContext(t,
		"q=pizza&city=Delhi&lat=28.6139&lon=77.2090&radius=5&sort_by=distance&min_rating=4&open_now=true&price_range=%24%24"))

	assert.Equal(t, "pizza", params.Query)
	assert.Equal(t, "Delhi", params.City)
	require.True(t, params.HasGeo())
	assert.InDelta(t, 28.6139, *params.Latitude, 0.0001)
	assert.InDelta(t, 77.2090, *params.Longitude, 0.0001)
	require.NotNil(t, params.Radius)
	assert.InDelta(t, 5.0, *params.Radius, 0.0001)
	require.NotNil(t, params.MinRating)
	assert.InDelta(t, 4.0, *params.MinRating, 0.0001)
	assert.True(t, params.OpenNow)
	assert.Equal(t, "$$", string(params.PriceRange))
	assert.Equal(t, services.SortDistance, params.EffectiveSort())
}

func TestParseSearchParamsAcceptsDocumentedNames(t *testing.T) {
	h := &BusinessHandler{}
	categoryID := "7b5a2e9c-9f1e-4a6f-8d3b-0c1d2e3f4a5b"
	params := h.parseSearchParams(searchContext(t,
		"query=pizza&categoryId="+categoryID+"&categorySlug=restaurants&minRating=4.5"+
			"&priceRange=%24%24%24&featuredOnly=true&verifiedOnly=true&openNow=true"+
			"&latitude=19.0760&longitude=72.8777&sortBy=rating"))

	assert.Equal(t, "pizza", params.Query)
	require.NotNil(t, params.CategoryID)
	assert.Equal(t, categoryID, params.CategoryID.String())
	assert.Equal(t, "restaurants", params.CategorySlug)
	require.NotNil(t, params.MinRating)
	assert.InDelta(t, 4.5, *params.MinRating, 0.0001)
	assert.Equal(t, "$$$", string(params.PriceRange))
	assert.True(t, params.FeaturedOnly)
	assert.True(t, params.VerifiedOnly)
	assert.True(t, params.OpenNow)
	require.True(t, params.HasGeo())
	assert.InDelta(t, 19.0760, *params.Latitude, 0.0001)
	assert.InDelta(t, 72.8777, *params.Longitude, 0.0001)
	assert.Equal(t, services.SortRating, params.SortBy)
}

func TestParseSearchParamsIgnoresMalformedValues(t *testing.T) {
	h := &BusinessHandler{}
	params := h.parseSearchParams(searchContext(t,
		"lat=not-a-number&radius=-3&category_id=bogus&page=0&limit=5000"))

	assert.False(t, params.HasGeo())
	assert.Nil(t, params.Radius)
	assert.Nil(t, params.CategoryID)
	// Pagination clamps rather than erroring.
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
}

func TestParseSearchParamsDistanceWithoutGeoFallsBack(t *testing.T) {
	h := &BusinessHandler{}
	params := h.parseSearchParams(searchContext(t, "sort_by=distance"))

	assert.Equal(t, services.SortDistance, params.SortBy)
	assert.Equal(t, services.SortRelevance, params.EffectiveSort())
}
