// internal/models/vendor.go
package models

import (
	"github.com/google/uuid"
)

type Vendor struct {
	BaseModel
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	CompanyName string    `json:"company_name" gorm:"size:255;not null"`
	Phone       string    `json:"phone" gorm:"size:30"`
	Website     string    `json:"website" gorm:"size:255"`
	IsVerified  bool      `json:"is_verified" gorm:"default:false"`

	// Relationships
	User          User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Businesses    []Business     `json:"businesses,omitempty" gorm:"foreignKey:VendorID"`
	Subscriptions []Subscription `json:"subscriptions,omitempty" gorm:"foreignKey:VendorID"`
}
