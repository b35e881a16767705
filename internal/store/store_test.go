package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/itemcatalog-golang/internal/database"
	"github.com/01moynul/itemcatalog-golang/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenDB("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.Migrate(db, "sqlite")
	require.NoError(t, err)
	return New(db)
}

func addCategory(t *testing.T, s *Store, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, s.CreateCategory(context.Background(), c))
	return c
}

func addItem(t *testing.T, s *Store, categoryID int64, name string) *models.Item {
	t.Helper()
	i := &models.Item{Name: name, Price: "$1", Stock: 1, CategoryID: categoryID}
	require.NoError(t, s.CreateItem(context.Background(), i))
	return i
}

func TestCategories_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := addCategory(t, s, "Hardware")
	assert.NotZero(t, c.ID)

	got, err := s.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hardware", got.Name)
	assert.Nil(t, got.Image)

	img := "categories/hardware.jpg"
	got.Name = "Tools"
	got.Image = &img
	require.NoError(t, s.UpdateCategory(ctx, got))

	byName, err := s.GetCategoryByName(ctx, "Tools")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)
	assert.Equal(t, img, byName.ImageURL())

	_, err = s.GetCategory(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateCategory(ctx, &models.Category{ID: 999, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCategory_CascadesOnlyItsItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	kitchen := addCategory(t, s, "Kitchenware")
	food := addCategory(t, s, "Food")
	addItem(t, s, kitchen.ID, "Bent Fork")
	addItem(t, s, kitchen.ID, "Steak Knife")
	spam := addItem(t, s, food.ID, "Spam & Eggs")

	removed, err := s.DeleteCategory(ctx, kitchen.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = s.GetCategory(ctx, kitchen.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	left, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, spam.ID, left[0].ID)

	_, err = s.DeleteCategory(ctx, kitchen.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItems_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := addCategory(t, s, "Apparel")
	i := addItem(t, s, c.ID, "Hooded Cloak")

	got, err := s.GetItem(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, c.ID, got.CategoryID)

	got.Price = "$180"
	got.Stock = 6
	got.Description = "May help you look like a Jedi."
	require.NoError(t, s.UpdateItem(ctx, got))

	byName, err := s.GetItemByName(ctx, "Hooded Cloak")
	require.NoError(t, err)
	assert.Equal(t, "$180", byName.Price)
	assert.Equal(t, 6, byName.Stock)

	inCat, err := s.ListItemsByCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, inCat, 1)

	require.NoError(t, s.DeleteItem(ctx, i.ID))
	assert.ErrorIs(t, s.DeleteItem(ctx, i.ID), ErrNotFound)
}

func TestCreateItem_UnknownCategory(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateItem(context.Background(), &models.Item{Name: "Orphan", Price: "$1", CategoryID: 42})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch_EscapesWildcards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := addCategory(t, s, "Hardware")
	addCategory(t, s, "Musical Instruments")
	addItem(t, s, c.ID, "Rusty Hammer")
	addItem(t, s, c.ID, "100% Steel Nail")

	cats, err := s.SearchCategories(ctx, "ware")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Hardware", cats[0].Name)

	items, err := s.SearchItems(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "100% Steel Nail", items[0].Name)

	items, err = s.SearchItems(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateUser_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "Tester@Example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, "tester@example.com", u.Username)

	_, err = s.CreateUser(ctx, "tester@example.com", "other")
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := s.GetUserByUsername(ctx, "TESTER@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.GetUserByUsername(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeed_IsRepeatable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cats, items, err := s.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, cats)
	assert.Equal(t, 28, items)

	cats, items, err = s.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, cats)
	assert.Zero(t, items)
}
