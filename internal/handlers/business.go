// internal/handlers/business.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/services"
	"github.com/localspot/localspot-backend/internal/utils"
)

type BusinessHandler struct {
	businessService *services.BusinessService
	storageService  *services.StorageService
}

func NewBusinessHandler(businessService *services.BusinessService, storageService *services.StorageService) *BusinessHandler {
	return &BusinessHandler{
		businessService: businessService,
		storageService:  storageService,
	}
}

// GET /businesses/search
func (h *BusinessHandler) Search(c *gin.Context) {
	params := h.parseSearchParams(c)

	businesses, total, err := h.businessService.Search(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(businesses, total, params.PaginationParams)
	utils.SetPaginationHeaders(c, result)
	utils.PaginatedResponse(c, result)
}

// queryAlias returns the first non-empty value among the given query keys.
// The search endpoint accepts camelCase names with snake_case/short aliases.
func queryAlias(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := c.Query(name); v != "" {
			return v
		}
	}
	return ""
}

func (h *BusinessHandler) parseSearchParams(c *gin.Context) services.BusinessSearchParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	sortBy := queryAlias(c, "sortBy", "sort_by")
	if sortBy == "" {
		sortBy = services.SortRelevance
	}

	params := services.BusinessSearchParams{
		PaginationParams: utils.NormalizePagination(page, limit),
		Query:            queryAlias(c, "query", "q"),
		CategorySlug:     queryAlias(c, "categorySlug", "category"),
		City:             c.Query("city"),
		PriceRange:       models.PriceRange(queryAlias(c, "priceRange", "price_range")),
		SortBy:           sortBy,
		FeaturedOnly:     queryAlias(c, "featuredOnly", "featured") == "true",
		VerifiedOnly:     queryAlias(c, "verifiedOnly", "verified") == "true",
		OpenNow:          queryAlias(c, "openNow", "open_now") == "true",
	}

	if raw := queryAlias(c, "categoryId", "category_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			params.CategoryID = &id
		}
	}
	if raw := queryAlias(c, "minRating", "min_rating"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MinRating = &v
		}
	}
	if raw := queryAlias(c, "latitude", "lat"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.Latitude = &v
		}
	}
	if raw := queryAlias(c, "longitude", "lon"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.Longitude = &v
		}
	}
	if raw := c.Query("radius"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			params.Radius = &v
		}
	}

	return params
}

// GET /businesses/featured
func (h *BusinessHandler) GetFeatured(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	businesses, err := h.businessService.GetFeaturedBusinesses(limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"businesses": businesses})
}

// GET /businesses/:id
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	business, err := h.businessService.GetBusiness(id, viewerFromContext(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"business": business})
}

// GET /businesses/slug/:slug
func (h *BusinessHandler) GetBySlug(c *gin.Context) {
	business, err := h.businessService.GetBusinessBySlug(c.Param("slug"), viewerFromContext(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"business": business})
}

// POST /businesses
func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	var req services.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	business, err := h.businessService.CreateBusiness(vendorID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"business": business})
}

// PUT /businesses/:id
func (h *BusinessHandler) UpdateBusiness(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	var req services.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	business, err := h.businessService.UpdateBusiness(id, vendorID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"business": business})
}

// DELETE /businesses/:id
func (h *BusinessHandler) DeleteBusiness(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	if err := h.businessService.DeleteBusiness(id, vendorID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "business deleted"})
}

// PUT /businesses/:id/hours
func (h *BusinessHandler) SetHours(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	var req struct {
		Hours []services.HoursEntry `json:"hours" validate:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	business, err := h.businessService.SetHours(id, vendorID, req.Hours)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"business": business})
}

// POST /businesses/:id/photos
func (h *BusinessHandler) UploadPhotos(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "multipart form required", err.Error())
		return
	}

	files := form.File["photos"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "no photos provided", nil)
		return
	}
	if len(files) > 10 {
		utils.BadRequestResponse(c, "at most 10 photos per upload", nil)
		return
	}

	options := services.BusinessPhotoOptions(id)
	urls := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "failed to read uploaded file", err.Error())
			return
		}
		result, err := h.storageService.UploadFile(file, header, options)
		file.Close()
		if err != nil {
			handleServiceError(c, err)
			return
		}
		urls = append(urls, result.URL)
	}

	business, err := h.businessService.AddPhotos(id, vendorID, urls)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"business": business})
}

// GET /businesses/:id/stats
func (h *BusinessHandler) GetStats(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	stats, err := h.businessService.GetBusinessStats(id, vendorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /vendor/businesses
func (h *BusinessHandler) GetMyBusinesses(c *gin.Context) {
	vendorID, ok := currentVendorID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := utils.NormalizePagination(page, limit)

	businesses, total, err := h.businessService.GetVendorBusinesses(vendorID, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(businesses, total, params)
	utils.PaginatedResponse(c, result)
}
