// internal/services/lead_service.go
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

type LeadService struct {
	db       *gorm.DB
	notifier realtime.Notifier
}

func NewLeadService(db *gorm.DB, notifier realtime.Notifier) *LeadService {
	return &LeadService{db: db, notifier: notifier}
}

type CreateLeadRequest struct {
	BusinessID uuid.UUID       `json:"business_id" validate:"required"`
	Type       models.LeadType `json:"type" validate:"required"`
	Name       string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Email      string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string          `json:"phone,omitempty" validate:"omitempty,max=30"`
	Message    string          `json:"message,omitempty"`
	Source     string          `json:"source,omitempty" validate:"omitempty,max=120"`
}

// LeadContext carries request-derived metadata. It is built server-side from
// the HTTP request so callers cannot spoof it.
type LeadContext struct {
	IP        string
	UserAgent string
	Referrer  string
	UserID    *uuid.UUID
}

type UpdateLeadStatusRequest struct {
	Status models.LeadStatus `json:"status" validate:"required"`
	Notes  string            `json:"notes,omitempty"`
}

// CreateLead validates the business, persists the lead, bumps the business
// lead counter atomically and pushes a best-effort new_lead event to the
// owning vendor. The lead is durable before any push attempt; delivery
// failure never fails the request.
func (s *LeadService) CreateLead(req *CreateLeadRequest, leadCtx *LeadContext) (*models.Lead, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Type.Valid() {
		return nil, invalidErr("unknown lead type")
	}

	var business models.Business
	if err := s.db.Preload("Vendor").First(&business, "id = ?", req.BusinessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	device := utils.ParseUserAgent(leadCtx.UserAgent)
	lead := &models.Lead{
		BusinessID: req.BusinessID,
		UserID:     leadCtx.UserID,
		Type:       req.Type,
		Status:     models.LeadStatusNew,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
		Source:     req.Source,
		Metadata: models.JSONB{
			"ip":          leadCtx.IP,
			"user_agent":  leadCtx.UserAgent,
			"referrer":    leadCtx.Referrer,
			"device_type": device.DeviceType,
			"os":          device.OS,
			"browser":     device.Browser,
			"is_bot":      device.IsBot,
		},
	}

	if err := s.db.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	// Atomic increment; fetch-then-add would lose counts under concurrent
	// submissions.
	if err := s.db.Model(&models.Business{}).Where("id = ?", req.BusinessID).
		UpdateColumn("total_leads", gorm.Expr("total_leads + 1")).Error; err != nil {
		logrus.WithError(err).WithField("business_id", req.BusinessID).
			Error("Failed to increment lead counter")
	}

	go s.notifyVendor(lead, &business)

	return lead, nil
}

func (s *LeadService) notifyVendor(lead *models.Lead, business *models.Business) {
	if s.notifier == nil {
		return
	}

	delivered := s.notifier.NotifyUser(business.Vendor.UserID, "new_lead", map[string]interface{}{
		"lead_id":       lead.ID,
		"business_id":   business.ID,
		"business_name": business.Name,
		"customer_name": lead.Name,
		"type":          lead.Type,
		"created_at":    lead.CreatedAt,
	})

	if !delivered {
		logrus.WithFields(logrus.Fields{
			"lead_id":   lead.ID,
			"vendor_id": business.VendorID,
		}).Debug("Vendor offline, lead notification dropped")
	}
}

// allowedLeadTransitions is the forward-only status graph. Converted and
// lost are terminal.
var allowedLeadTransitions = map[models.LeadStatus][]models.LeadStatus{
	models.LeadStatusNew:       {models.LeadStatusContacted, models.LeadStatusConverted, models.LeadStatusLost},
	models.LeadStatusContacted: {models.LeadStatusConverted, models.LeadStatusLost},
}

// ValidateLeadTransition reports whether a lead may move from one status to
// another. Same-status updates are permitted as no-ops.
func ValidateLeadTransition(from, to models.LeadStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedLeadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateLeadStatus applies a vendor-driven status change.
// contacted_at/converted_at are stamped on the first transition into that
// status and never overwritten.
func (s *LeadService) UpdateLeadStatus(id uuid.UUID, actor *Viewer, req *UpdateLeadStatusRequest) (*models.Lead, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var lead models.Lead
	if err := s.db.Preload("Business").First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("lead")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !actor.IsAdmin && !actor.owns(&lead.Business) {
		return nil, forbiddenErr("lead belongs to another vendor")
	}

	if !ValidateLeadTransition(lead.Status, req.Status) {
		return nil, invalidErr(fmt.Sprintf("cannot move lead from %s to %s", lead.Status, req.Status))
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}

	now := time.Now()
	if req.Status == models.LeadStatusContacted && lead.ContactedAt == nil {
		updates["contacted_at"] = now
	}
	if req.Status == models.LeadStatusConverted && lead.ConvertedAt == nil {
		updates["converted_at"] = now
	}

	if err := s.db.Model(&lead).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.db.Preload("Business").First(&lead, "id = ?", id)
	return &lead, nil
}

func (s *LeadService) GetLead(id uuid.UUID, actor *Viewer) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.Preload("Business").First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("lead")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !actor.IsAdmin && !actor.owns(&lead.Business) {
		return nil, forbiddenErr("lead belongs to another vendor")
	}

	return &lead, nil
}

func (s *LeadService) GetBusinessLeads(businessID uuid.UUID, actor *Viewer, params utils.PaginationParams) ([]models.Lead, int64, error) {
	var business models.Business
	if err := s.db.First(&business, "id = ?", businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, notFoundErr("business")
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	if !actor.IsAdmin && !actor.owns(&business) {
		return nil, 0, forbiddenErr("business belongs to another vendor")
	}

	query := s.db.Model(&models.Lead{}).Where("business_id = ?", businessID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	var leads []models.Lead
	if err := query.Order("created_at DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&leads).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch leads: %w", err)
	}

	return leads, total, nil
}
