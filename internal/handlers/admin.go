// internal/handlers/admin.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/services"
	"github.com/localspot/localspot-backend/internal/utils"
)

type AdminHandler struct {
	adminService  *services.AdminService
	reviewService *services.ReviewService
}

func NewAdminHandler(adminService *services.AdminService, reviewService *services.ReviewService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		reviewService: reviewService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := services.AdminUserFilter{
		PaginationParams: utils.NormalizePagination(page, limit),
		Query:            c.Query("q"),
	}
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}
	if raw := c.Query("status"); raw != "" {
		status := models.UserStatus(raw)
		filter.Status = &status
	}

	users, total, err := h.adminService.GetUsers(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(users, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// PATCH /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Status models.UserStatus `json:"status" validate:"required,oneof=active suspended"`
		Reason string            `json:"reason,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.adminService.UpdateUserStatus(userID, adminID, req.Status, req.Reason); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "user status updated"})
}

// GET /admin/businesses
func (h *AdminHandler) GetBusinesses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := services.AdminBusinessFilter{
		PaginationParams: utils.NormalizePagination(page, limit),
		City:             c.Query("city"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.BusinessStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("vendor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.VendorID = &id
		}
	}
	if raw := c.Query("category_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.CategoryID = &id
		}
	}

	businesses, total, err := h.adminService.GetBusinesses(filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(businesses, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// POST /admin/businesses/:id/approve
func (h *AdminHandler) ApproveBusiness(c *gin.Context) {
	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.adminService.ApproveBusiness(businessID, adminID); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "business approved"})
}

// POST /admin/businesses/:id/reject
func (h *AdminHandler) RejectBusiness(c *gin.Context) {
	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	if err := h.adminService.RejectBusiness(businessID, adminID, req.Reason); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "business rejected"})
}

// POST /admin/businesses/:id/suspend
func (h *AdminHandler) SuspendBusiness(c *gin.Context) {
	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.adminService.SuspendBusiness(businessID, adminID, req.Reason); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "business suspended"})
}

// PATCH /admin/businesses/:id/flags
func (h *AdminHandler) SetBusinessFlags(c *gin.Context) {
	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.BusinessFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	business, err := h.adminService.SetBusinessFlags(businessID, adminID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"business": business})
}

// GET /admin/reviews
func (h *AdminHandler) GetReviewQueue(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := utils.NormalizePagination(page, limit)

	status := models.ReviewStatus(c.DefaultQuery("status", string(models.ReviewStatusPending)))

	reviews, total, err := h.adminService.GetReviewQueue(status, params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(reviews, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /admin/reviews/:id/moderate
func (h *AdminHandler) ModerateReview(c *gin.Context) {
	reviewID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.ReviewStatus `json:"status" validate:"required,oneof=approved rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	review, err := h.reviewService.ModerateReview(reviewID, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"review": review})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	params := utils.NormalizePagination(page, limit)

	logs, total, err := h.adminService.GetAuditLogs(params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}
