// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/localspot/localspot-backend/internal/services"
	"github.com/localspot/localspot-backend/internal/utils"
)

// handleServiceError maps the service sentinel errors onto HTTP responses.
// Anything unrecognized is a 500 with a generic message.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalid):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.InternalErrorResponse(c, "an unexpected error occurred")
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	idStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "invalid session")
		return uuid.Nil, false
	}
	return id, true
}

// currentVendorID reads the vendor profile ID resolved by the vendor
// middleware.
func currentVendorID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("vendor_id")
	if !exists {
		utils.ForbiddenResponse(c, "vendor profile required")
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		utils.ForbiddenResponse(c, "vendor profile required")
		return uuid.Nil, false
	}
	return id, true
}

// viewerFromContext builds the caller identity for visibility checks. Returns
// nil for anonymous requests.
func viewerFromContext(c *gin.Context) *services.Viewer {
	idStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return nil
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return nil
	}

	viewer := &services.Viewer{UserID: userID}
	if role, ok := utils.GetUserRoleFromContext(c); ok && role == "admin" {
		viewer.IsAdmin = true
	}
	if raw, ok := c.Get("vendor_id"); ok {
		if vendorID, ok := raw.(uuid.UUID); ok {
			viewer.VendorID = &vendorID
		}
	}
	return viewer
}
