// internal/models/lead.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a recorded customer-contact intent against a business listing.
// Metadata (IP, user agent, referrer) is captured from the request context
// server-side, never taken from the caller's payload.
type Lead struct {
	BaseModel
	BusinessID uuid.UUID  `json:"business_id" gorm:"type:uuid;not null;index"`
	UserID     *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Type       LeadType   `json:"type" gorm:"type:varchar(20);not null"`
	Status     LeadStatus `json:"status" gorm:"type:varchar(20);default:'new';index"`

	Name    string `json:"name" gorm:"size:120"`
	Email   string `json:"email" gorm:"size:255"`
	Phone   string `json:"phone" gorm:"size:30"`
	Message string `json:"message" gorm:"type:text"`
	Source  string `json:"source" gorm:"size:120"`

	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`
	Notes    string `json:"notes,omitempty" gorm:"type:text"`

	// Stamped once on the first transition into the respective status.
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	ConvertedAt *time.Time `json:"converted_at,omitempty"`

	Business Business `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	User     *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (t LeadType) Valid() bool {
	switch t {
	case LeadTypeCall, LeadTypeWhatsapp, LeadTypeEmail, LeadTypeChat, LeadTypeWebsite:
		return true
	}
	return false
}
