// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/utils"
)

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromHeader(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists || role != string(models.UserRoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "admin access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// VendorRequired resolves the caller's vendor profile and stores its id in the
// context for the handlers. Admins pass through without one.
func VendorRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("user_role")
		if role == string(models.UserRoleAdmin) {
			c.Next()
			return
		}
		if role != string(models.UserRoleVendor) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "vendor account required",
			})
			c.Abort()
			return
		}

		idStr, _ := utils.GetUserIDFromContext(c)
		userID, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		var vendor models.Vendor
		if err := db.First(&vendor, "user_id = ?", userID).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "vendor profile not found",
			})
			c.Abort()
			return
		}

		c.Set("vendor_id", vendor.ID)
		c.Next()
	}
}

func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromHeader(c)
		if ok {
			c.Set("user_id", claims.UserID)
			c.Set("username", claims.Username)
			c.Set("user_role", claims.Role)
		}
		c.Next()
	}
}

// OptionalVendor attaches the vendor profile when the authenticated caller is
// a vendor. Used on routes open to everyone where ownership changes what a
// vendor can see.
func OptionalVendor(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("user_role")
		if role == string(models.UserRoleVendor) {
			if idStr, exists := utils.GetUserIDFromContext(c); exists {
				if userID, err := uuid.Parse(idStr); err == nil {
					var vendor models.Vendor
					if err := db.First(&vendor, "user_id = ?", userID).Error; err == nil {
						c.Set("vendor_id", vendor.ID)
					}
				}
			}
		}
		c.Next()
	}
}

func claimsFromHeader(c *gin.Context) (*utils.JWTClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := utils.ValidateJWT(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}
