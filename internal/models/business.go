// internal/models/business.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Business struct {
	BaseModel
	VendorID    uuid.UUID      `json:"vendor_id" gorm:"type:uuid;not null;index"`
	CategoryID  uuid.UUID      `json:"category_id" gorm:"type:uuid;not null;index"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Address     string         `json:"address" gorm:"size:500"`
	City        string         `json:"city" gorm:"size:120;index"`
	Latitude    float64        `json:"latitude" gorm:"type:decimal(10,7)"`
	Longitude   float64        `json:"longitude" gorm:"type:decimal(10,7)"`
	Phone       string         `json:"phone" gorm:"size:30"`
	Email       string         `json:"email" gorm:"size:255"`
	Website     string         `json:"website" gorm:"size:255"`
	PriceRange  PriceRange     `json:"price_range" gorm:"type:varchar(4)"`
	Photos      pq.StringArray `json:"photos" gorm:"type:text[]"`
	Status      BusinessStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	// Derived rating aggregate, recomputed from approved reviews. Never set
	// directly by API callers.
	AverageRating float64 `json:"average_rating" gorm:"type:decimal(3,2);default:0"`
	TotalReviews  int64   `json:"total_reviews" gorm:"default:0"`

	// Counters mutated only through atomic increments.
	TotalViews int64 `json:"total_views" gorm:"default:0"`
	TotalLeads int64 `json:"total_leads" gorm:"default:0"`

	IsFeatured  bool `json:"is_featured" gorm:"default:false;index"`
	IsVerified  bool `json:"is_verified" gorm:"default:false"`
	IsSponsored bool `json:"is_sponsored" gorm:"default:false"`

	// Distance from the search geo point in kilometers. Populated by the
	// search path, never stored.
	Distance *float64 `json:"distance,omitempty" gorm:"-"`

	// Relationships
	Vendor   Vendor          `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Category Category        `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Hours    []BusinessHours `json:"hours,omitempty" gorm:"foreignKey:BusinessID"`
	Reviews  []Review        `json:"reviews,omitempty" gorm:"foreignKey:BusinessID"`
	Leads    []Lead          `json:"leads,omitempty" gorm:"foreignKey:BusinessID"`
}

// BusinessHours is one weekday's opening window. DayOfWeek follows
// time.Weekday (0 = Sunday). Times are "HH:MM" 24h strings so the open-now
// filter can compare them lexicographically in SQL.
type BusinessHours struct {
	BaseModel
	BusinessID uuid.UUID `json:"business_id" gorm:"type:uuid;not null;index:idx_business_hours_day"`
	DayOfWeek  int       `json:"day_of_week" gorm:"not null;index:idx_business_hours_day"`
	OpenTime   string    `json:"open_time" gorm:"size:5"`
	CloseTime  string    `json:"close_time" gorm:"size:5"`
	IsOpen     bool      `json:"is_open" gorm:"default:true"`
}

func (BusinessHours) TableName() string {
	return "business_hours"
}
