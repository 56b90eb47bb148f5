// internal/models/category.go
package models

import (
	"github.com/google/uuid"
)

type Category struct {
	BaseModel
	Name         string     `json:"name" gorm:"size:120;not null"`
	Slug         string     `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	Icon         string     `json:"icon" gorm:"size:60"`
	ParentID     *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	DisplayOrder int        `json:"display_order" gorm:"default:0"`

	// Children is populated by the iterative tree loader, not by GORM preloads.
	Children []*Category `json:"children,omitempty" gorm:"-"`

	Businesses []Business `json:"businesses,omitempty" gorm:"foreignKey:CategoryID"`
}

type City struct {
	BaseModel
	Name     string `json:"name" gorm:"size:120;not null"`
	Slug     string `json:"slug" gorm:"uniqueIndex;size:120;not null"`
	State    string `json:"state" gorm:"size:120"`
	IsActive bool   `json:"is_active" gorm:"default:true"`
}
