// internal/services/business_service.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/geo"
	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/utils"
)

const (
	SortRelevance = "relevance"
	SortRating    = "rating"
	SortNewest    = "newest"
	SortDistance  = "distance"
)

type BusinessService struct {
	db *gorm.DB

	// now is injectable so the open-now filter can be tested at a fixed
	// clock.
	now func() time.Time
}

func NewBusinessService(db *gorm.DB) *BusinessService {
	return &BusinessService{db: db, now: time.Now}
}

type CreateBusinessRequest struct {
	CategoryID  uuid.UUID         `json:"category_id" validate:"required"`
	Name        string            `json:"name" validate:"required,min=2,max=255"`
	Description string            `json:"description" validate:"required,min=10"`
	Address     string            `json:"address" validate:"required,max=500"`
	City        string            `json:"city" validate:"required,max=120"`
	Latitude    float64           `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64           `json:"longitude" validate:"min=-180,max=180"`
	Phone       string            `json:"phone,omitempty"`
	Email       string            `json:"email,omitempty" validate:"omitempty,email"`
	Website     string            `json:"website,omitempty"`
	PriceRange  models.PriceRange `json:"price_range,omitempty"`
}

type UpdateBusinessRequest struct {
	CategoryID  *uuid.UUID        `json:"category_id,omitempty"`
	Name        string            `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description string            `json:"description,omitempty" validate:"omitempty,min=10"`
	Address     string            `json:"address,omitempty" validate:"omitempty,max=500"`
	City        string            `json:"city,omitempty" validate:"omitempty,max=120"`
	Latitude    *float64          `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64          `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Phone       string            `json:"phone,omitempty"`
	Email       string            `json:"email,omitempty" validate:"omitempty,email"`
	Website     string            `json:"website,omitempty"`
	PriceRange  models.PriceRange `json:"price_range,omitempty"`
}

type HoursEntry struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	OpenTime  string `json:"open_time" validate:"required,hhmm"`
	CloseTime string `json:"close_time" validate:"required,hhmm"`
	IsOpen    bool   `json:"is_open"`
}

// BusinessSearchParams is the optional-field filter object for the public
// search endpoint. Every field combines with the others as AND; the
// approved-only restriction is applied unconditionally before any of them.
type BusinessSearchParams struct {
	utils.PaginationParams
	Query        string
	CategoryID   *uuid.UUID
	CategorySlug string
	City         string
	MinRating    *float64
	PriceRange   models.PriceRange
	FeaturedOnly bool
	VerifiedOnly bool
	OpenNow      bool
	Latitude     *float64
	Longitude    *float64
	Radius       *float64
	SortBy       string
}

func (p *BusinessSearchParams) HasGeo() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// EffectiveSort resolves the sort mode: distance without a geo point falls
// back silently to relevance, as does any unknown mode.
func (p *BusinessSearchParams) EffectiveSort() string {
	switch p.SortBy {
	case SortRating, SortNewest:
		return p.SortBy
	case SortDistance:
		if p.HasGeo() {
			return SortDistance
		}
		return SortRelevance
	default:
		return SortRelevance
	}
}

// scopes folds the optional filters into independently testable predicate
// clauses. The approved-only clause comes first and is never optional.
func (p *BusinessSearchParams) scopes(now time.Time) []func(*gorm.DB) *gorm.DB {
	clauses := []func(*gorm.DB) *gorm.DB{
		func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.status = ?", models.BusinessStatusApproved)
		},
	}

	if p.Query != "" {
		term := "%" + strings.ToLower(p.Query) + "%"
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(businesses.name) LIKE ? OR LOWER(businesses.description) LIKE ?", term, term)
		})
	}

	if p.CategoryID != nil {
		id := *p.CategoryID
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.category_id = ?", id)
		})
	} else if p.CategorySlug != "" {
		slug := p.CategorySlug
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.category_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Category{}).Select("id").Where("slug = ?", slug))
		})
	}

	if p.City != "" {
		city := "%" + strings.ToLower(p.City) + "%"
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(businesses.city) LIKE ?", city)
		})
	}

	if p.MinRating != nil {
		min := *p.MinRating
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.average_rating >= ?", min)
		})
	}

	if p.PriceRange != "" && p.PriceRange.Valid() {
		pr := p.PriceRange
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.price_range = ?", pr)
		})
	}

	if p.FeaturedOnly {
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.is_featured = ?", true)
		})
	}

	if p.VerifiedOnly {
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.is_verified = ?", true)
		})
	}

	if p.OpenNow {
		day := int(now.Weekday())
		clock := now.Format("15:04")
		clauses = append(clauses, func(db *gorm.DB) *gorm.DB {
			return db.Where("businesses.id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.BusinessHours{}).Select("business_id").
					Where("day_of_week = ? AND is_open = ? AND open_time <= ? AND close_time >= ?",
						day, true, clock, clock))
		})
	}

	return clauses
}

func orderClause(sortBy string) string {
	switch sortBy {
	case SortRating:
		return "businesses.average_rating DESC, businesses.total_reviews DESC"
	case SortNewest:
		return "businesses.created_at DESC"
	default:
		// relevance: sponsored, then featured, then rating
		return "businesses.is_sponsored DESC, businesses.is_featured DESC, businesses.average_rating DESC"
	}
}

// Search returns one page of approved businesses matching the filters plus
// the total match count. When a geo point is supplied the matching set is
// annotated with distances, optionally trimmed to the radius, and - for
// distance sort - ordered in memory, since the store has no spatial index.
func (s *BusinessService) Search(params BusinessSearchParams) ([]models.Business, int64, error) {
	params.PaginationParams = utils.NormalizePagination(params.Page, params.Limit)

	query := s.db.Model(&models.Business{}).Preload("Category")
	for _, scope := range params.scopes(s.now()) {
		query = scope(query)
	}

	if params.HasGeo() {
		var matches []models.Business
		if err := query.Find(&matches).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to fetch businesses: %w", err)
		}

		matches = annotateDistances(matches, *params.Latitude, *params.Longitude, params.Radius)
		sortBusinesses(matches, params.EffectiveSort())

		total := int64(len(matches))
		return pageSlice(matches, params.PaginationParams), total, nil
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count businesses: %w", err)
	}

	var businesses []models.Business
	if err := query.Order(orderClause(params.EffectiveSort())).
		Offset(params.Offset()).Limit(params.Limit).
		Find(&businesses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch businesses: %w", err)
	}

	return businesses, total, nil
}

// annotateDistances computes each business's distance from the point and
// drops entries outside the radius when one is given.
func annotateDistances(businesses []models.Business, lat, lon float64, radius *float64) []models.Business {
	out := businesses[:0]
	for i := range businesses {
		d := geo.Distance(lat, lon, businesses[i].Latitude, businesses[i].Longitude)
		if radius != nil && d > *radius {
			continue
		}
		businesses[i].Distance = &d
		out = append(out, businesses[i])
	}
	return out
}

// sortBusinesses orders an annotated result set in memory. Distance sort is
// strictly ascending; the other modes mirror the SQL order clauses.
func sortBusinesses(businesses []models.Business, sortBy string) {
	switch sortBy {
	case SortDistance:
		sort.SliceStable(businesses, func(i, j int) bool {
			return *businesses[i].Distance < *businesses[j].Distance
		})
	case SortRating:
		sort.SliceStable(businesses, func(i, j int) bool {
			if businesses[i].AverageRating != businesses[j].AverageRating {
				return businesses[i].AverageRating > businesses[j].AverageRating
			}
			return businesses[i].TotalReviews > businesses[j].TotalReviews
		})
	case SortNewest:
		sort.SliceStable(businesses, func(i, j int) bool {
			return businesses[i].CreatedAt.After(businesses[j].CreatedAt)
		})
	default:
		sort.SliceStable(businesses, func(i, j int) bool {
			a, b := businesses[i], businesses[j]
			if a.IsSponsored != b.IsSponsored {
				return a.IsSponsored
			}
			if a.IsFeatured != b.IsFeatured {
				return a.IsFeatured
			}
			return a.AverageRating > b.AverageRating
		})
	}
}

func pageSlice(businesses []models.Business, params utils.PaginationParams) []models.Business {
	start := params.Offset()
	if start >= len(businesses) {
		return []models.Business{}
	}
	end := start + params.Limit
	if end > len(businesses) {
		end = len(businesses)
	}
	return businesses[start:end]
}

func (s *BusinessService) CreateBusiness(vendorID uuid.UUID, req *CreateBusinessRequest) (*models.Business, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.PriceRange != "" && !req.PriceRange.Valid() {
		return nil, invalidErr("unknown price range")
	}

	var category models.Category
	if err := s.db.First(&category, "id = ?", req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("category")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	slug := utils.Slugify(req.Name)
	var count int64
	s.db.Model(&models.Business{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		slug = utils.SlugWithSuffix(req.Name)
	}

	business := &models.Business{
		VendorID:    vendorID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		PriceRange:  req.PriceRange,
		Status:      models.BusinessStatusPending,
	}

	if err := s.db.Create(business).Error; err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	s.db.Preload("Category").First(business, "id = ?", business.ID)
	return business, nil
}

// GetBusiness loads one business and counts the view unless the owner is
// looking at their own listing. Non-approved listings are only visible to
// their owner and admins.
func (s *BusinessService) GetBusiness(id uuid.UUID, viewer *Viewer) (*models.Business, error) {
	var business models.Business
	if err := s.db.Preload("Category").Preload("Hours").Preload("Vendor").
		First(&business, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if business.Status != models.BusinessStatusApproved && !viewer.canSee(&business) {
		return nil, notFoundErr("business")
	}

	if !viewer.owns(&business) {
		go s.incrementViewCount(id)
	}

	return &business, nil
}

func (s *BusinessService) GetBusinessBySlug(slug string, viewer *Viewer) (*models.Business, error) {
	var business models.Business
	if err := s.db.Preload("Category").Preload("Hours").Preload("Vendor").
		First(&business, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if business.Status != models.BusinessStatusApproved && !viewer.canSee(&business) {
		return nil, notFoundErr("business")
	}

	if !viewer.owns(&business) {
		go s.incrementViewCount(business.ID)
	}

	return &business, nil
}

func (s *BusinessService) UpdateBusiness(id, vendorID uuid.UUID, req *UpdateBusinessRequest) (*models.Business, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var business models.Business
	if err := s.db.First(&business, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if business.VendorID != vendorID {
		return nil, forbiddenErr("business belongs to another vendor")
	}

	updates := make(map[string]interface{})
	if req.CategoryID != nil {
		var count int64
		s.db.Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&count)
		if count == 0 {
			return nil, notFoundErr("category")
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Website != "" {
		updates["website"] = req.Website
	}
	if req.PriceRange != "" {
		if !req.PriceRange.Valid() {
			return nil, invalidErr("unknown price range")
		}
		updates["price_range"] = req.PriceRange
	}

	if err := s.db.Model(&business).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update business: %w", err)
	}

	s.db.Preload("Category").Preload("Hours").First(&business, "id = ?", id)
	return &business, nil
}

func (s *BusinessService) DeleteBusiness(id, vendorID uuid.UUID) error {
	var business models.Business
	if err := s.db.First(&business, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("business")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if business.VendorID != vendorID {
		return forbiddenErr("business belongs to another vendor")
	}

	if err := s.db.Delete(&business).Error; err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}

	return nil
}

// SetHours replaces the weekly hours of a business.
func (s *BusinessService) SetHours(id, vendorID uuid.UUID, entries []HoursEntry) (*models.Business, error) {
	var business models.Business
	if err := s.db.First(&business, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if business.VendorID != vendorID {
		return nil, forbiddenErr("business belongs to another vendor")
	}

	for i := range entries {
		if err := utils.ValidateStruct(&entries[i]); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		if entries[i].CloseTime <= entries[i].OpenTime {
			return nil, invalidErr("close time must be after open time")
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ?", id).Delete(&models.BusinessHours{}).Error; err != nil {
			return fmt.Errorf("failed to clear hours: %w", err)
		}
		for _, e := range entries {
			row := models.BusinessHours{
				BusinessID: id,
				DayOfWeek:  e.DayOfWeek,
				OpenTime:   e.OpenTime,
				CloseTime:  e.CloseTime,
				IsOpen:     e.IsOpen,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to save hours: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Hours").First(&business, "id = ?", id)
	return &business, nil
}

func (s *BusinessService) GetVendorBusinesses(vendorID uuid.UUID, params utils.PaginationParams) ([]models.Business, int64, error) {
	query := s.db.Model(&models.Business{}).Where("vendor_id = ?", vendorID).Preload("Category")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count businesses: %w", err)
	}

	var businesses []models.Business
	if err := query.Order("created_at DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&businesses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch businesses: %w", err)
	}

	return businesses, total, nil
}

func (s *BusinessService) GetFeaturedBusinesses(limit int) ([]models.Business, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	var businesses []models.Business
	if err := s.db.Where("status = ? AND is_featured = ?", models.BusinessStatusApproved, true).
		Order("is_sponsored DESC, average_rating DESC").
		Limit(limit).
		Preload("Category").
		Find(&businesses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch featured businesses: %w", err)
	}
	return businesses, nil
}

func (s *BusinessService) GetBusinessStats(id, vendorID uuid.UUID) (map[string]interface{}, error) {
	var business models.Business
	if err := s.db.First(&business, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if business.VendorID != vendorID {
		return nil, forbiddenErr("business belongs to another vendor")
	}

	var leadsByStatus []struct {
		Status models.LeadStatus `json:"status"`
		Count  int64             `json:"count"`
	}
	s.db.Model(&models.Lead{}).
		Select("status, COUNT(*) as count").
		Where("business_id = ?", id).
		Group("status").
		Scan(&leadsByStatus)

	return map[string]interface{}{
		"total_views":     business.TotalViews,
		"total_leads":     business.TotalLeads,
		"average_rating":  business.AverageRating,
		"total_reviews":   business.TotalReviews,
		"leads_by_status": leadsByStatus,
		"status":          business.Status,
		"created_at":      business.CreatedAt,
	}, nil
}

// AddPhotos appends uploaded photo URLs to the listing.
func (s *BusinessService) AddPhotos(id, vendorID uuid.UUID, urls []string) (*models.Business, error) {
	var business models.Business
	if err := s.db.First(&business, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if business.VendorID != vendorID {
		return nil, forbiddenErr("business belongs to another vendor")
	}

	business.Photos = append(business.Photos, urls...)
	if err := s.db.Model(&business).Update("photos", business.Photos).Error; err != nil {
		return nil, fmt.Errorf("failed to save photos: %w", err)
	}

	return &business, nil
}

func (s *BusinessService) incrementViewCount(id uuid.UUID) {
	// Atomic SQL increment; a read-modify-write here would lose views under
	// concurrent requests.
	s.db.Model(&models.Business{}).Where("id = ?", id).
		UpdateColumn("total_views", gorm.Expr("total_views + 1"))
}

// Viewer identifies who is looking at a listing for visibility and
// view-count decisions. A nil viewer is an anonymous visitor.
type Viewer struct {
	UserID   uuid.UUID
	VendorID *uuid.UUID
	IsAdmin  bool
}

func (v *Viewer) canSee(b *models.Business) bool {
	if v == nil {
		return false
	}
	return v.IsAdmin || v.owns(b)
}

func (v *Viewer) owns(b *models.Business) bool {
	return v != nil && v.VendorID != nil && *v.VendorID == b.VendorID
}
