// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/realtime"
	"github.com/localspot/localspot-backend/internal/utils"
)

type AdminService struct {
	db       *gorm.DB
	notifier realtime.Notifier
}

func NewAdminService(db *gorm.DB, notifier realtime.Notifier) *AdminService {
	return &AdminService{db: db, notifier: notifier}
}

type AdminDashboardStats struct {
	TotalUsers         int64   `json:"total_users"`
	ActiveUsers        int64   `json:"active_users"`
	NewUsersThisMonth  int64   `json:"new_users_this_month"`
	TotalBusinesses    int64   `json:"total_businesses"`
	PendingBusinesses  int64   `json:"pending_businesses"`
	TotalReviews       int64   `json:"total_reviews"`
	PendingReviews     int64   `json:"pending_reviews"`
	TotalLeads         int64   `json:"total_leads"`
	LeadsThisMonth     int64   `json:"leads_this_month"`
	TotalRevenue       float64 `json:"total_revenue"`
	MonthlyRevenue     float64 `json:"monthly_revenue"`
	ActiveSubscription int64   `json:"active_subscriptions"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role          *models.UserRole   `json:"role,omitempty"`
	Status        *models.UserStatus `json:"status,omitempty"`
	Query         string             `json:"query,omitempty"`
	CreatedAfter  *time.Time         `json:"created_after,omitempty"`
	CreatedBefore *time.Time         `json:"created_before,omitempty"`
}

type AdminBusinessFilter struct {
	utils.PaginationParams
	Status     *models.BusinessStatus `json:"status,omitempty"`
	VendorID   *uuid.UUID             `json:"vendor_id,omitempty"`
	CategoryID *uuid.UUID             `json:"category_id,omitempty"`
	City       string                 `json:"city,omitempty"`
}

type BusinessFlagsRequest struct {
	IsFeatured  *bool `json:"is_featured,omitempty"`
	IsVerified  *bool `json:"is_verified,omitempty"`
	IsSponsored *bool `json:"is_sponsored,omitempty"`
}

func (s *AdminService) GetDashboardStats() (*AdminDashboardStats, error) {
	stats := &AdminDashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&stats.ActiveUsers)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	s.db.Model(&models.Business{}).Count(&stats.TotalBusinesses)
	s.db.Model(&models.Business{}).
		Where("status = ?", models.BusinessStatusPending).Count(&stats.PendingBusinesses)

	s.db.Model(&models.Review{}).Count(&stats.TotalReviews)
	s.db.Model(&models.Review{}).
		Where("status = ?", models.ReviewStatusPending).Count(&stats.PendingReviews)

	s.db.Model(&models.Lead{}).Count(&stats.TotalLeads)
	s.db.Model(&models.Lead{}).Where("created_at >= ?", monthStart).Count(&stats.LeadsThisMonth)

	s.db.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalRevenue)
	s.db.Model(&models.Transaction{}).
		Where("status = ? AND created_at >= ?", models.TransactionStatusCompleted, monthStart).
		Select("COALESCE(SUM(amount), 0)").Scan(&stats.MonthlyRevenue)

	s.db.Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionStatusActive).Count(&stats.ActiveSubscription)

	return stats, nil
}

func (s *AdminService) GetUsers(filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", like, like)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Preload("Vendor").Order("created_at DESC"), filter.PaginationParams).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) UpdateUserStatus(userID, adminID uuid.UUID, status models.UserStatus, reason string) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("user")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.Role == models.UserRoleAdmin {
		return forbiddenErr("admin accounts cannot be moderated")
	}

	if err := s.db.Model(&user).UpdateColumn("status", status).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	s.recordAudit(adminID, "user."+string(status), "user", user.ID, models.JSONB{
		"status": string(status),
		"reason": reason,
	})
	return nil
}

func (s *AdminService) GetBusinesses(filter AdminBusinessFilter) ([]models.Business, int64, error) {
	query := s.db.Model(&models.Business{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.City != "" {
		query = query.Where("city ILIKE ?", "%"+filter.City+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count businesses: %w", err)
	}

	var businesses []models.Business
	if err := utils.ApplyPagination(query.Preload("Vendor").Preload("Category").Order("created_at ASC"), filter.PaginationParams).
		Find(&businesses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch businesses: %w", err)
	}

	return businesses, total, nil
}

// ApproveBusiness makes a listing publicly discoverable and tells its vendor.
func (s *AdminService) ApproveBusiness(businessID, adminID uuid.UUID) error {
	return s.moderateBusiness(businessID, adminID, models.BusinessStatusApproved, "", "business_approved")
}

func (s *AdminService) RejectBusiness(businessID, adminID uuid.UUID, reason string) error {
	if reason == "" {
		return invalidErr("a rejection reason is required")
	}
	return s.moderateBusiness(businessID, adminID, models.BusinessStatusRejected, reason, "business_rejected")
}

func (s *AdminService) SuspendBusiness(businessID, adminID uuid.UUID, reason string) error {
	return s.moderateBusiness(businessID, adminID, models.BusinessStatusSuspended, reason, "business_suspended")
}

func (s *AdminService) moderateBusiness(businessID, adminID uuid.UUID, status models.BusinessStatus, reason, event string) error {
	var business models.Business
	if err := s.db.Preload("Vendor").First(&business, "id = ?", businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("business")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if business.Status == status {
		return nil
	}

	if err := s.db.Model(&business).UpdateColumn("status", status).Error; err != nil {
		return fmt.Errorf("failed to update business status: %w", err)
	}

	s.recordAudit(adminID, "business."+string(status), "business", business.ID, models.JSONB{
		"status": string(status),
		"reason": reason,
	})

	go s.notifyVendorOfModeration(&business, event, reason)
	return nil
}

func (s *AdminService) notifyVendorOfModeration(business *models.Business, event, reason string) {
	if s.notifier == nil {
		return
	}
	delivered := s.notifier.NotifyUser(business.Vendor.UserID, event, map[string]interface{}{
		"business_id":   business.ID,
		"business_name": business.Name,
		"reason":        reason,
	})
	if !delivered {
		logrus.WithFields(logrus.Fields{
			"business_id": business.ID,
			"event":       event,
		}).Debug("Vendor offline, moderation notification dropped")
	}
}

func (s *AdminService) SetBusinessFlags(businessID, adminID uuid.UUID, req *BusinessFlagsRequest) (*models.Business, error) {
	var business models.Business
	if err := s.db.First(&business, "id = ?", businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := map[string]interface{}{}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.IsVerified != nil {
		updates["is_verified"] = *req.IsVerified
	}
	if req.IsSponsored != nil {
		updates["is_sponsored"] = *req.IsSponsored
	}
	if len(updates) == 0 {
		return &business, nil
	}

	if err := s.db.Model(&business).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update business flags: %w", err)
	}

	s.recordAudit(adminID, "business.flags", "business", business.ID, models.JSONB(updates))

	if err := s.db.First(&business, "id = ?", businessID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &business, nil
}

func (s *AdminService) GetReviewQueue(status models.ReviewStatus, params utils.PaginationParams) ([]models.Review, int64, error) {
	query := s.db.Model(&models.Review{}).Where("status = ?", status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []models.Review
	if err := utils.ApplyPagination(query.Preload("User").Preload("Business").Order("created_at ASC"), params).
		Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return reviews, total, nil
}

func (s *AdminService) GetAuditLogs(params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.Model(&models.AuditLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []models.AuditLog
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}

func (s *AdminService) recordAudit(adminID uuid.UUID, action, resourceType string, resourceID uuid.UUID, values models.JSONB) {
	log := models.AuditLog{
		UserID:       &adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		NewValues:    values,
	}
	if err := s.db.Create(&log).Error; err != nil {
		logrus.WithError(err).Warn("Failed to write audit log entry")
	}
}
