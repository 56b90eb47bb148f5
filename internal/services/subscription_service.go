// internal/services/subscription_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/config"
	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/utils"
)

type SubscriptionService struct {
	db     *gorm.DB
	config *config.Config
}

func NewSubscriptionService(db *gorm.DB, config *config.Config) *SubscriptionService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &SubscriptionService{
		db:     db,
		config: config,
	}
}

type SubscribeRequest struct {
	PlanID uuid.UUID `json:"plan_id" validate:"required"`
}

type SubscribeResponse struct {
	Subscription *models.Subscription `json:"subscription"`
	Transaction  *models.Transaction  `json:"transaction"`
	ClientSecret string               `json:"client_secret,omitempty"`
}

func (s *SubscriptionService) GetPlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := s.db.Where("is_active = ?", true).
		Order("price ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch plans: %w", err)
	}
	return plans, nil
}

// Subscribe creates a pending subscription plus its first transaction and
// opens a Stripe PaymentIntent for it. The subscription activates when the
// payment_intent.succeeded webhook arrives.
func (s *SubscriptionService) Subscribe(vendorID uuid.UUID, req *SubscribeRequest) (*SubscribeResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var plan models.SubscriptionPlan
	if err := s.db.First(&plan, "id = ? AND is_active = ?", req.PlanID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("subscription plan")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var active int64
	s.db.Model(&models.Subscription{}).
		Where("vendor_id = ? AND status = ?", vendorID, models.SubscriptionStatusActive).
		Count(&active)
	if active > 0 {
		return nil, conflictErr("vendor already has an active subscription")
	}

	currency := s.config.Payment.Currency
	if currency == "" {
		currency = "usd"
	}

	subscription := &models.Subscription{
		VendorID: vendorID,
		PlanID:   plan.ID,
		Status:   models.SubscriptionStatusPending,
	}
	transaction := &models.Transaction{
		VendorID: vendorID,
		Amount:   plan.Price,
		Currency: currency,
		Status:   models.TransactionStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(subscription).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		transaction.SubscriptionID = subscription.ID
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(plan.Price * 100)),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("transaction_id", transaction.ID.String())
	params.AddMetadata("subscription_id", subscription.ID.String())
	params.AddMetadata("vendor_id", vendorID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		s.db.Model(transaction).Updates(map[string]interface{}{
			"status":         models.TransactionStatusFailed,
			"failure_reason": "payment intent creation failed",
		})
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	s.db.Model(transaction).UpdateColumn("payment_reference", pi.ID)
	transaction.PaymentReference = pi.ID

	subscription.Plan = plan
	return &SubscribeResponse{
		Subscription: subscription,
		Transaction:  transaction,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// HandleWebhook verifies a Stripe event signature and applies the payment
// outcome to the matching transaction and subscription.
func (s *SubscriptionService) HandleWebhook(payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.Payment.StripeWebhookSecret)
	if err != nil {
		return invalidErr("invalid webhook signature")
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("failed to parse payment intent event: %w", err)
		}
		return s.applyPaymentOutcome(&pi, event.Type == "payment_intent.succeeded")
	default:
		logrus.WithField("type", event.Type).Debug("Ignoring unhandled Stripe event")
		return nil
	}
}

func (s *SubscriptionService) applyPaymentOutcome(pi *stripe.PaymentIntent, succeeded bool) error {
	var transaction models.Transaction
	if err := s.db.First(&transaction, "payment_reference = ?", pi.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Not ours; another integration may share the account.
			logrus.WithField("payment_intent", pi.ID).Warn("Webhook for unknown payment reference")
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}

	// Webhooks retry; a settled transaction stays settled.
	if transaction.Status != models.TransactionStatusPending {
		return nil
	}

	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if !succeeded {
			reason := "payment failed"
			if pi.LastPaymentError != nil {
				reason = pi.LastPaymentError.Msg
			}
			return tx.Model(&transaction).Updates(map[string]interface{}{
				"status":         models.TransactionStatusFailed,
				"failure_reason": reason,
				"processed_at":   now,
			}).Error
		}

		if err := tx.Model(&transaction).Updates(map[string]interface{}{
			"status":       models.TransactionStatusCompleted,
			"processed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		var subscription models.Subscription
		if err := tx.Preload("Plan").
			First(&subscription, "id = ?", transaction.SubscriptionID).Error; err != nil {
			return fmt.Errorf("failed to load subscription: %w", err)
		}

		periodEnd := now.AddDate(0, 0, subscription.Plan.IntervalDays)
		return tx.Model(&subscription).Updates(map[string]interface{}{
			"status":               models.SubscriptionStatusActive,
			"current_period_start": now,
			"current_period_end":   periodEnd,
		}).Error
	})
}

func (s *SubscriptionService) CancelSubscription(vendorID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := s.db.Preload("Plan").First(&subscription, "id = ?", subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("subscription")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if subscription.VendorID != vendorID {
		return nil, forbiddenErr("subscription belongs to another vendor")
	}

	if subscription.Status == models.SubscriptionStatusCancelled {
		return &subscription, nil
	}
	if subscription.Status != models.SubscriptionStatusActive {
		return nil, invalidErr("only active subscriptions can be cancelled")
	}

	// Cancelled subscriptions keep their benefits until the paid period ends.
	now := time.Now()
	if err := s.db.Model(&subscription).Updates(map[string]interface{}{
		"status":       models.SubscriptionStatusCancelled,
		"cancelled_at": now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	subscription.Status = models.SubscriptionStatusCancelled
	subscription.CancelledAt = &now
	return &subscription, nil
}

func (s *SubscriptionService) GetVendorSubscription(vendorID uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.Preload("Plan").
		Where("vendor_id = ? AND status IN ?", vendorID,
			[]models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusCancelled}).
		Order("created_at DESC").
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("subscription")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &subscription, nil
}

func (s *SubscriptionService) GetVendorTransactions(vendorID uuid.UUID, params utils.PaginationParams) ([]models.Transaction, int64, error) {
	query := s.db.Model(&models.Transaction{}).Where("vendor_id = ?", vendorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var transactions []models.Transaction
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	return transactions, total, nil
}

// ExpireLapsedSubscriptions flips subscriptions whose paid period has ended.
// Intended to be run periodically from the server process.
func (s *SubscriptionService) ExpireLapsedSubscriptions() (int64, error) {
	result := s.db.Model(&models.Subscription{}).
		Where("status IN ? AND current_period_end < ?",
			[]models.SubscriptionStatus{models.SubscriptionStatusActive, models.SubscriptionStatusCancelled},
			time.Now()).
		UpdateColumn("status", models.SubscriptionStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
