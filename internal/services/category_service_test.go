// internal/services/category_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot-backend/internal/models"
)

func category(name string, parentID *uuid.UUID) *models.Category {
	c := &models.Category{Name: name, Slug: name, ParentID: parentID}
	c.ID = uuid.New()
	return c
}

func TestBuildCategoryTree(t *testing.T) {
	food := category("food", nil)
	services := category("services", nil)
	pizza := category("pizza", &food.ID)
	sushi := category("sushi", &food.ID)
	plumbing := category("plumbing", &services.ID)

	roots := BuildCategoryTree([]*models.Category{food, services, pizza, sushi, plumbing})

	require.Len(t, roots, 2)
	assert.Equal(t, "food", roots[0].Name)
	assert.Equal(t, "services", roots[1].Name)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "pizza", roots[0].Children[0].Name)
	assert.Equal(t, "sushi", roots[0].Children[1].Name)

	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, "plumbing", roots[1].Children[0].Name)
}

func TestBuildCategoryTreeOrphanBecomesRoot(t *testing.T) {
	missing := uuid.New()
	orphan := category("orphan", &missing)
	root := category("root", nil)

	roots := BuildCategoryTree([]*models.Category{root, orphan})

	require.Len(t, roots, 2)
	assert.Equal(t, "root", roots[0].Name)
	assert.Equal(t, "orphan", roots[1].Name)
}

func TestBuildCategoryTreeSelfParentGuard(t *testing.T) {
	loop := category("loop", nil)
	loop.ParentID = &loop.ID

	roots := BuildCategoryTree([]*models.Category{loop})

	require.Len(t, roots, 1)
	assert.Empty(t, roots[0].Children)
}

func TestBuildCategoryTreeDeepNesting(t *testing.T) {
	// A five-deep chain builds fine; the loader is iterative, not recursive.
	var flat []*models.Category
	var parent *uuid.UUID
	for _, name := range []string{"l0", "l1", "l2", "l3", "l4"} {
		c := category(name, parent)
		flat = append(flat, c)
		parent = &c.ID
	}

	roots := BuildCategoryTree(flat)

	require.Len(t, roots, 1)
	node := roots[0]
	for _, want := range []string{"l1", "l2", "l3", "l4"} {
		require.Len(t, node.Children, 1)
		node = node.Children[0]
		assert.Equal(t, want, node.Name)
	}
	assert.Empty(t, node.Children)
}

func TestBuildCategoryTreeEmptyInput(t *testing.T) {
	assert.Empty(t, BuildCategoryTree(nil))
}
