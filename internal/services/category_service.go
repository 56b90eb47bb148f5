// internal/services/category_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/models"
	"github.com/localspot/localspot-backend/internal/utils"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

type CreateCategoryRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=120"`
	Icon         string     `json:"icon,omitempty" validate:"omitempty,max=60"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	DisplayOrder int        `json:"display_order,omitempty"`
}

type UpdateCategoryRequest struct {
	Name         string     `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Icon         string     `json:"icon,omitempty" validate:"omitempty,max=60"`
	ParentID     *uuid.UUID `json:"parent_id,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	DisplayOrder *int       `json:"display_order,omitempty"`
}

// GetTree loads all active categories and assembles the tree iteratively.
// The flat load plus worklist keeps the call stack flat on deep hierarchies
// and terminates even on corrupted (cyclic) parent data.
func (s *CategoryService) GetTree() ([]*models.Category, error) {
	var flat []*models.Category
	if err := s.db.Where("is_active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&flat).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	return BuildCategoryTree(flat), nil
}

// BuildCategoryTree links a flat category slice into roots with populated
// Children, preserving the input order at every level. Nodes whose parent is
// missing from the slice are treated as roots.
func BuildCategoryTree(flat []*models.Category) []*models.Category {
	byID := make(map[uuid.UUID]*models.Category, len(flat))
	for _, c := range flat {
		c.Children = nil
		byID[c.ID] = c
	}

	var roots []*models.Category
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		parent, ok := byID[*c.ParentID]
		if !ok || parent == c {
			roots = append(roots, c)
			continue
		}
		parent.Children = append(parent.Children, c)
	}

	return roots
}

func (s *CategoryService) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("category")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) CreateCategory(req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	slug := utils.Slugify(req.Name)
	var count int64
	s.db.Model(&models.Category{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return nil, conflictErr("category slug already exists")
	}

	if req.ParentID != nil {
		var parentCount int64
		s.db.Model(&models.Category{}).Where("id = ?", *req.ParentID).Count(&parentCount)
		if parentCount == 0 {
			return nil, notFoundErr("parent category")
		}
	}

	category := &models.Category{
		Name:         req.Name,
		Slug:         slug,
		Icon:         req.Icon,
		ParentID:     req.ParentID,
		IsActive:     true,
		DisplayOrder: req.DisplayOrder,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

func (s *CategoryService) UpdateCategory(id uuid.UUID, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var category models.Category
	if err := s.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("category")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Icon != "" {
		updates["icon"] = req.Icon
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}

	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, invalidErr("category cannot be its own parent")
		}
		if err := s.checkNotDescendant(id, *req.ParentID); err != nil {
			return nil, err
		}
		updates["parent_id"] = *req.ParentID
	}

	if err := s.db.Model(&category).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.db.First(&category, "id = ?", id)
	return &category, nil
}

// checkNotDescendant walks the ancestor chain of the proposed parent and
// rejects the reparent when it would close a cycle. The walk is bounded by
// the visited set, so even pre-existing cycles terminate.
func (s *CategoryService) checkNotDescendant(categoryID, newParentID uuid.UUID) error {
	visited := make(map[uuid.UUID]bool)
	current := &newParentID

	for current != nil {
		if *current == categoryID {
			return invalidErr("new parent is a descendant of the category")
		}
		if visited[*current] {
			break
		}
		visited[*current] = true

		var parent models.Category
		if err := s.db.Select("id", "parent_id").First(&parent, "id = ?", *current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("parent category")
			}
			return fmt.Errorf("database error: %w", err)
		}
		current = parent.ParentID
	}

	return nil
}

// DeleteCategory refuses to delete categories that still have children or
// businesses attached.
func (s *CategoryService) DeleteCategory(id uuid.UUID) error {
	var category models.Category
	if err := s.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("category")
		}
		return fmt.Errorf("database error: %w", err)
	}

	var childCount int64
	s.db.Model(&models.Category{}).Where("parent_id = ?", id).Count(&childCount)
	if childCount > 0 {
		return invalidErr("category has child categories")
	}

	var businessCount int64
	s.db.Model(&models.Business{}).Where("category_id = ?", id).Count(&businessCount)
	if businessCount > 0 {
		return invalidErr("category has businesses attached")
	}

	if err := s.db.Delete(&category).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return nil
}

// GetCities lists the active city reference data.
func (s *CategoryService) GetCities() ([]models.City, error) {
	var cities []models.City
	if err := s.db.Where("is_active = ?", true).Order("name ASC").Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cities: %w", err)
	}
	return cities, nil
}
