// internal/services/business_search_test.go
package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/utils"
)

func floatPtr(v float64) *float64 { return &v }

// A business open Monday 09:00-21:00 must match an open-now search at Monday
// 10:00 and miss one at Monday 22:00. The hours restriction is a subquery,
// so the observable behavior is the day and clock bound into it.
func TestSearchOpenNowUsesInjectedClock(t *testing.T) {
	tests := []struct {
		name  string
		clock time.Time
		bound string
	}{
		{"monday morning inside window", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), "10:00"},
		{"monday night outside window", time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC), "22:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			service := NewBusinessService(db)
			service.now = func() time.Time { return tt.clock }

			// Monday is day 1; the clock is bound against both window edges.
			mock.ExpectQuery(`SELECT count\(\*\) FROM "businesses"`).
				WithArgs(models.BusinessStatusApproved, 1, true, tt.bound, tt.bound).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			mock.ExpectQuery(`SELECT \* FROM "businesses"`).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			_, total, err := service.Search(BusinessSearchParams{OpenNow: true})
			require.NoError(t, err)
			assert.Zero(t, total)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// The slug lookup returns the same payload shape as the id lookup, vendor
// included.
func TestGetBusinessBySlugPreloadsVendor(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewBusinessService(db)

	businessID := uuid.New()
	vendorID := uuid.New()
	categoryID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "businesses" WHERE slug = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vendor_id", "category_id", "slug", "status"}).
			AddRow(businessID, vendorID, categoryID, "spark-electricians", "approved"))
	mock.ExpectQuery(`SELECT \* FROM "categories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(categoryID))
	mock.ExpectQuery(`SELECT \* FROM "business_hours"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id"}))
	mock.ExpectQuery(`SELECT \* FROM "vendors"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).
			AddRow(vendorID, uuid.New()))

	owner := &Viewer{VendorID: &vendorID}
	business, err := service.GetBusinessBySlug("spark-electricians", owner)
	require.NoError(t, err)
	assert.Equal(t, vendorID, business.Vendor.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEffectiveSortFallsBackWithoutGeo(t *testing.T) {
	params := BusinessSearchParams{SortBy: SortDistance}
	assert.Equal(t, SortRelevance, params.EffectiveSort())

	params.Latitude = floatPtr(28.6139)
	params.Longitude = floatPtr(77.2090)
	assert.Equal(t, SortDistance, params.EffectiveSort())
}

func TestEffectiveSortUnknownModeIsRelevance(t *testing.T) {
	params := BusinessSearchParams{SortBy: "popularity"}
	assert.Equal(t, SortRelevance, params.EffectiveSort())

	params.SortBy = SortRating
	assert.Equal(t, SortRating, params.EffectiveSort())

	params.SortBy = SortNewest
	assert.Equal(t, SortNewest, params.EffectiveSort())
}

func TestAnnotateDistancesComputesAndFilters(t *testing.T) {
	// Viewer in central Delhi; one business nearby, one in Mumbai.
	businesses := []models.Business{
		{Name: "near", Latitude: 28.6239, Longitude: 77.2190},
		{Name: "far", Latitude: 19.0760, Longitude: 72.8777},
	}

	annotated := annotateDistances(businesses, 28.6139, 77.2090, nil)
	require.Len(t, annotated, 2)
	for _, b := range annotated {
		require.NotNil(t, b.Distance)
	}
	assert.Less(t, *annotated[0].Distance, 5.0)
	assert.Greater(t, *annotated[1].Distance, 1000.0)
}

func TestAnnotateDistancesRadiusTrimsFarEntries(t *testing.T) {
	businesses := []models.Business{
		{Name: "near", Latitude: 28.6239, Longitude: 77.2190},
		{Name: "far", Latitude: 19.0760, Longitude: 72.8777},
	}

	annotated := annotateDistances(businesses, 28.6139, 77.2090, floatPtr(10))
	require.Len(t, annotated, 1)
	assert.Equal(t, "near", annotated[0].Name)
}

func TestSortBusinessesByDistanceAscending(t *testing.T) {
	businesses := []models.Business{
		{Name: "c", Distance: floatPtr(30)},
		{Name: "a", Distance: floatPtr(1)},
		{Name: "b", Distance: floatPtr(12)},
	}

	sortBusinesses(businesses, SortDistance)

	assert.Equal(t, "a", businesses[0].Name)
	assert.Equal(t, "b", businesses[1].Name)
	assert.Equal(t, "c", businesses[2].Name)
}

func TestSortBusinessesRelevancePutsSponsoredFirst(t *testing.T) {
	businesses := []models.Business{
		{Name: "plain-high", AverageRating: 4.9},
		{Name: "featured", IsFeatured: true, AverageRating: 3.0},
		{Name: "sponsored", IsSponsored: true, AverageRating: 2.0},
	}

	sortBusinesses(businesses, SortRelevance)

	assert.Equal(t, "sponsored", businesses[0].Name)
	assert.Equal(t, "featured", businesses[1].Name)
	assert.Equal(t, "plain-high", businesses[2].Name)
}

func TestSortBusinessesRatingBreaksTiesOnReviewCount(t *testing.T) {
	businesses := []models.Business{
		{Name: "few", AverageRating: 4.5, TotalReviews: 3},
		{Name: "many", AverageRating: 4.5, TotalReviews: 40},
		{Name: "low", AverageRating: 2.0, TotalReviews: 100},
	}

	sortBusinesses(businesses, SortRating)

	assert.Equal(t, "many", businesses[0].Name)
	assert.Equal(t, "few", businesses[1].Name)
	assert.Equal(t, "low", businesses[2].Name)
}

func TestPageSlice(t *testing.T) {
	businesses := make([]models.Business, 5)
	for i := range businesses {
		businesses[i].Name = string(rune('a' + i))
	}

	page := pageSlice(businesses, utils.NormalizePagination(2, 2))
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Name)
	assert.Equal(t, "d", page[1].Name)

	// Last partial page
	page = pageSlice(businesses, utils.NormalizePagination(3, 2))
	require.Len(t, page, 1)
	assert.Equal(t, "e", page[0].Name)

	// Beyond the end
	page = pageSlice(businesses, utils.NormalizePagination(4, 2))
	assert.Empty(t, page)
}

func TestScopesAlwaysLeadWithApprovedFilter(t *testing.T) {
	// Even a fully-loaded filter set keeps the status clause first, so no
	// combination of params can surface unapproved listings.
	rating := 4.0
	params := BusinessSearchParams{
		Query:        "pizza",
		City:         "Delhi",
		MinRating:    &rating,
		PriceRange:   models.PriceRangeModerate,
		FeaturedOnly: true,
		VerifiedOnly: true,
		OpenNow:      true,
	}

	clauses := params.scopes(time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC))
	// approved + query + city + rating + price + featured + verified + openNow
	assert.Len(t, clauses, 8)

	empty := BusinessSearchParams{}
	assert.Len(t, empty.scopes(time.Now()), 1)
}
