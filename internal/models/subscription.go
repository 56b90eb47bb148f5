// internal/models/subscription.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionPlan struct {
	BaseModel
	Name          string  `json:"name" gorm:"size:120;not null"`
	Slug          string  `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	Price         float64 `json:"price" gorm:"type:decimal(10,2);not null"`
	IntervalDays  int     `json:"interval_days" gorm:"default:30"`
	MaxBusinesses int     `json:"max_businesses" gorm:"default:1"`
	FeaturedSlots int     `json:"featured_slots" gorm:"default:0"`
	Features      JSONB   `json:"features" gorm:"type:jsonb"`
	IsActive      bool    `json:"is_active" gorm:"default:true"`
}

type Subscription struct {
	BaseModel
	VendorID           uuid.UUID          `json:"vendor_id" gorm:"type:uuid;not null;index"`
	PlanID             uuid.UUID          `json:"plan_id" gorm:"type:uuid;not null;index"`
	Status             SubscriptionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CurrentPeriodStart *time.Time         `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`

	Vendor       Vendor           `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Plan         SubscriptionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	Transactions []Transaction    `json:"transactions,omitempty" gorm:"foreignKey:SubscriptionID"`
}

// Transaction records one payment attempt against a subscription.
type Transaction struct {
	BaseModel
	SubscriptionID   uuid.UUID         `json:"subscription_id" gorm:"type:uuid;not null;index"`
	VendorID         uuid.UUID         `json:"vendor_id" gorm:"type:uuid;not null;index"`
	Amount           float64           `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency         string            `json:"currency" gorm:"size:3;default:'usd'"`
	Status           TransactionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	PaymentReference string            `json:"payment_reference" gorm:"size:255;index"`
	FailureReason    string            `json:"failure_reason,omitempty" gorm:"size:500"`
	ProcessedAt      *time.Time        `json:"processed_at,omitempty"`

	Subscription Subscription `json:"subscription,omitempty" gorm:"foreignKey:SubscriptionID"`
}
