// internal/handlers/lead.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localspot/localspot-backend/internal/services"
	"github.com/localspot/localspot-backend/internal/utils"
)

type LeadHandler struct {
	leadService *services.LeadService
}

func NewLeadHandler(leadService *services.LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

// POST /leads
//
// Open to anonymous callers; an authenticated user is attached to the lead
// when present. All request metadata comes from the connection, never the
// body.
func (h *LeadHandler) CreateLead(c *gin.Context) {
	var req services.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	leadCtx := &services.LeadContext{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	}
	if idStr, exists := utils.GetUserIDFromContext(c); exists {
		if userID, err := uuid.Parse(idStr); err == nil {
			leadCtx.UserID = &userID
		}
	}

	lead, err := h.leadService.CreateLead(&req, leadCtx)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"lead": lead})
}

// GET /leads/:id
func (h *LeadHandler) GetLead(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	lead, err := h.leadService.GetLead(id, viewerFromContext(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"lead": lead})
}

// PATCH /leads/:id/status
func (h *LeadHandler) UpdateLeadStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	lead, err := h.leadService.UpdateLeadStatus(id, viewerFromContext(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"lead": lead})
}

// GET /businesses/:id/leads
func (h *LeadHandler) GetBusinessLeads(c *gin.Context) {
	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	params := utils.NormalizePagination(page, limit)

	leads, total, err := h.leadService.GetBusinessLeads(businessID, viewerFromContext(c), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(leads, total, params)
	utils.PaginatedResponse(c, result)
}
