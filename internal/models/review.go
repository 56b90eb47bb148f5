// internal/models/review.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is one user's rating of one business. The (business_id, user_id)
// pair is unique; duplicates are rejected with a conflict before insert.
type Review struct {
	BaseModel
	BusinessID uuid.UUID    `json:"business_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_business_user"`
	UserID     uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_business_user"`
	Rating     int          `json:"rating" gorm:"not null"`
	Title      string       `json:"title" gorm:"size:255"`
	Comment    string       `json:"comment" gorm:"type:text"`
	Status     ReviewStatus `json:"status" gorm:"type:varchar(20);default:'approved';index"`

	VendorResponse string     `json:"vendor_response,omitempty" gorm:"type:text"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`

	Business Business `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	User     User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
