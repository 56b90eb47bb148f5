// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/localspot/localspot-backend/internal/config"
	"github.com/localspot/localspot-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Vendor{},
		&models.Category{},
		&models.City{},
		&models.Business{},
		&models.BusinessHours{},
		&models.Review{},
		&models.Lead{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.Transaction{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_status ON users(role, status)",

		// Business indexes
		"CREATE INDEX IF NOT EXISTS idx_businesses_vendor ON businesses(vendor_id)",
		"CREATE INDEX IF NOT EXISTS idx_businesses_category_status ON businesses(category_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_businesses_city ON businesses(city)",
		"CREATE INDEX IF NOT EXISTS idx_businesses_rating ON businesses(average_rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_businesses_created_at ON businesses(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_business_hours_lookup ON business_hours(business_id, day_of_week)",

		// Review indexes
		"CREATE INDEX IF NOT EXISTS idx_reviews_business_status ON reviews(business_id, status)",

		// Lead indexes
		"CREATE INDEX IF NOT EXISTS idx_leads_business_status ON leads(business_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC)",

		// Subscription indexes
		"CREATE INDEX IF NOT EXISTS idx_subscriptions_vendor_status ON subscriptions(vendor_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_reference ON transactions(payment_reference)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// Full-text search index
		"CREATE INDEX IF NOT EXISTS idx_businesses_search ON businesses USING GIN(to_tsvector('english', name || ' ' || description))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Username: "admin",
			Email:    "admin@localspot.io",
			Role:     models.UserRoleAdmin,
			Status:   models.UserStatusActive,
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	if err := seedCategories(db); err != nil {
		return err
	}
	if err := seedCities(db); err != nil {
		return err
	}
	if err := seedPlans(db); err != nil {
		return err
	}

	log.Println("Initial data seeded successfully")
	return nil
}

func seedCategories(db *gorm.DB) error {
	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count > 0 {
		return nil
	}

	categories := []models.Category{
		{Name: "Restaurants", Slug: "restaurants", Icon: "utensils", DisplayOrder: 1, IsActive: true},
		{Name: "Home Services", Slug: "home-services", Icon: "home", DisplayOrder: 2, IsActive: true},
		{Name: "Health & Wellness", Slug: "health-wellness", Icon: "heart", DisplayOrder: 3, IsActive: true},
		{Name: "Beauty & Spa", Slug: "beauty-spa", Icon: "sparkles", DisplayOrder: 4, IsActive: true},
		{Name: "Automotive", Slug: "automotive", Icon: "car", DisplayOrder: 5, IsActive: true},
		{Name: "Education", Slug: "education", Icon: "book", DisplayOrder: 6, IsActive: true},
		{Name: "Events", Slug: "events", Icon: "calendar", DisplayOrder: 7, IsActive: true},
	}

	if err := db.Create(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	// Second level under Home Services
	var parent models.Category
	if err := db.First(&parent, "slug = ?", "home-services").Error; err == nil {
		children := []models.Category{
			{Name: "Plumbing", Slug: "plumbing", ParentID: &parent.ID, DisplayOrder: 1, IsActive: true},
			{Name: "Electrical", Slug: "electrical", ParentID: &parent.ID, DisplayOrder: 2, IsActive: true},
			{Name: "Cleaning", Slug: "cleaning", ParentID: &parent.ID, DisplayOrder: 3, IsActive: true},
		}
		if err := db.Create(&children).Error; err != nil {
			return fmt.Errorf("failed to seed subcategories: %w", err)
		}
	}

	return nil
}

func seedCities(db *gorm.DB) error {
	var count int64
	db.Model(&models.City{}).Count(&count)
	if count > 0 {
		return nil
	}

	cities := []models.City{
		{Name: "New Delhi", Slug: "new-delhi", State: "Delhi", IsActive: true},
		{Name: "Mumbai", Slug: "mumbai", State: "Maharashtra", IsActive: true},
		{Name: "Bengaluru", Slug: "bengaluru", State: "Karnataka", IsActive: true},
		{Name: "Chennai", Slug: "chennai", State: "Tamil Nadu", IsActive: true},
		{Name: "Pune", Slug: "pune", State: "Maharashtra", IsActive: true},
	}

	if err := db.Create(&cities).Error; err != nil {
		return fmt.Errorf("failed to seed cities: %w", err)
	}
	return nil
}

func seedPlans(db *gorm.DB) error {
	var count int64
	db.Model(&models.SubscriptionPlan{}).Count(&count)
	if count > 0 {
		return nil
	}

	plans := []models.SubscriptionPlan{
		{
			Name: "Starter", Slug: "starter", Price: 9.99, IntervalDays: 30,
			MaxBusinesses: 1, FeaturedSlots: 0, IsActive: true,
			Features: models.JSONB{"lead_notifications": true, "analytics": false},
		},
		{
			Name: "Growth", Slug: "growth", Price: 29.99, IntervalDays: 30,
			MaxBusinesses: 3, FeaturedSlots: 1, IsActive: true,
			Features: models.JSONB{"lead_notifications": true, "analytics": true},
		},
		{
			Name: "Pro", Slug: "pro", Price: 79.99, IntervalDays: 30,
			MaxBusinesses: 10, FeaturedSlots: 3, IsActive: true,
			Features: models.JSONB{"lead_notifications": true, "analytics": true, "priority_support": true},
		},
	}

	if err := db.Create(&plans).Error; err != nil {
		return fmt.Errorf("failed to seed subscription plans: %w", err)
	}
	return nil
}
