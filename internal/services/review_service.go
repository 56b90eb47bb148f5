// internal/services/review_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/utils"
)

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

type CreateReviewRequest struct {
	BusinessID uuid.UUID `json:"business_id" validate:"required"`
	Rating     int       `json:"rating" validate:"required,min=1,max=5"`
	Title      string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Comment    string    `json:"comment,omitempty"`
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title   string `json:"title,omitempty" validate:"omitempty,max=255"`
	Comment string `json:"comment,omitempty"`
}

// CreateReview inserts a review and recomputes the business aggregate. One
// review per (user, business); duplicates are rejected before insert.
func (s *ReviewService) CreateReview(userID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var business models.Business
	if err := s.db.First(&business, "id = ?", req.BusinessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("business")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var existing int64
	if err := s.db.Model(&models.Review{}).
		Where("business_id = ? AND user_id = ?", req.BusinessID, userID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing > 0 {
		return nil, conflictErr("you have already reviewed this business")
	}

	review := &models.Review{
		BusinessID: req.BusinessID,
		UserID:     userID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
		Status:     models.ReviewStatusApproved,
	}

	if err := s.db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.RecomputeBusinessRating(req.BusinessID); err != nil {
		return nil, err
	}

	s.db.Preload("User").First(review, "id = ?", review.ID)
	return review, nil
}

func (s *ReviewService) UpdateReview(id, userID uuid.UUID, req *UpdateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var review models.Review
	if err := s.db.First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("review")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if review.UserID != userID {
		return nil, forbiddenErr("review belongs to another user")
	}

	updates := make(map[string]interface{})
	ratingChanged := false
	if req.Rating != 0 && req.Rating != review.Rating {
		updates["rating"] = req.Rating
		ratingChanged = true
	}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Comment != "" {
		updates["comment"] = req.Comment
	}

	if len(updates) > 0 {
		if err := s.db.Model(&review).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	}

	if ratingChanged {
		if err := s.RecomputeBusinessRating(review.BusinessID); err != nil {
			return nil, err
		}
	}

	s.db.First(&review, "id = ?", id)
	return &review, nil
}

// DeleteReview removes a review (owner or admin) and recomputes the
// aggregate. Deleting the last review resets it to zero.
func (s *ReviewService) DeleteReview(id, userID uuid.UUID, isAdmin bool) error {
	var review models.Review
	if err := s.db.First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("review")
		}
		return fmt.Errorf("database error: %w", err)
	}

	if review.UserID != userID && !isAdmin {
		return forbiddenErr("review belongs to another user")
	}

	if err := s.db.Unscoped().Delete(&review).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	return s.RecomputeBusinessRating(review.BusinessID)
}

// RespondToReview sets the owning vendor's public response.
func (s *ReviewService) RespondToReview(id, vendorID uuid.UUID, response string) (*models.Review, error) {
	if response == "" {
		return nil, invalidErr("response must not be empty")
	}

	var review models.Review
	if err := s.db.Preload("Business").First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("review")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if review.Business.VendorID != vendorID {
		return nil, forbiddenErr("review is not on your business")
	}

	now := time.Now()
	if err := s.db.Model(&review).Updates(map[string]interface{}{
		"vendor_response": response,
		"responded_at":    now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	return &review, nil
}

func (s *ReviewService) GetBusinessReviews(businessID uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	query := s.db.Model(&models.Review{}).
		Where("business_id = ? AND status = ?", businessID, models.ReviewStatusApproved).
		Preload("User")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []models.Review
	if err := query.Order("created_at DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return reviews, total, nil
}

// ModerateReview flips a review's status (admin) and recomputes the
// aggregate, since only approved reviews count toward it.
func (s *ReviewService) ModerateReview(id uuid.UUID, status models.ReviewStatus) (*models.Review, error) {
	if status != models.ReviewStatusApproved && status != models.ReviewStatusRejected {
		return nil, invalidErr("unknown review status")
	}

	var review models.Review
	if err := s.db.First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("review")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&review).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	if err := s.RecomputeBusinessRating(review.BusinessID); err != nil {
		return nil, err
	}

	return &review, nil
}

// RecomputeBusinessRating rewrites the derived aggregate from the approved
// reviews: average_rating is the mean rounded to 2 decimals, total_reviews
// the approved count. Zero approved reviews resets both to 0.
func (s *ReviewService) RecomputeBusinessRating(businessID uuid.UUID) error {
	var agg struct {
		Avg   float64
		Count int64
	}

	if err := s.db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as count").
		Where("business_id = ? AND status = ?", businessID, models.ReviewStatusApproved).
		Scan(&agg).Error; err != nil {
		return fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	if err := s.db.Model(&models.Business{}).Where("id = ?", businessID).
		UpdateColumns(map[string]interface{}{
			"average_rating": RoundRating(agg.Avg),
			"total_reviews":  agg.Count,
		}).Error; err != nil {
		return fmt.Errorf("failed to update rating aggregate: %w", err)
	}

	return nil
}

// RoundRating rounds to 2 decimal places.
func RoundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}
