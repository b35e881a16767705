package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/itemcatalog-golang/internal/models"
	"github.com/01moynul/itemcatalog-golang/internal/store"
)

// apiJSON writes the {"status", "message"} envelope used by every API
// response that carries no data.
func apiJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": status, "message": message})
}

// BadRoute answers requests to API paths that match no endpoint.
func BadRoute(c *gin.Context) {
	apiJSON(c, http.StatusBadRequest, fmt.Sprintf("Bad route on '%s' API endpoint.", c.Request.URL.Path))
}

// param reads an API parameter from the query string, falling back to the
// request body.
func param(c *gin.Context, key string) (string, bool) {
	if v, ok := c.GetQuery(key); ok {
		return v, true
	}
	return c.GetPostForm(key)
}

// paramID reads a positive integer parameter. present reports whether the
// key was sent at all.
func paramID(c *gin.Context, key string) (id int64, present, valid bool) {
	raw, present := param(c, key)
	if !present {
		return 0, false, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	return id, true, err == nil && id > 0
}

// --- Lookups ---

// CategoriesJSON lists, searches or looks up categories.
func (h *Handlers) CategoriesJSON(c *gin.Context) {
	ctx := c.Request.Context()

	if mode, ok := param(c, "mode"); ok {
		switch mode {
		case "list":
			categories, err := h.Store.ListCategories(ctx)
			if err != nil {
				h.apiServerError(c, err, "Server-side error occurred while listing categories.")
				return
			}
			c.JSON(http.StatusOK, gin.H{"Categories": nonNil(categories)})
		case "search":
			query, ok := param(c, "query")
			if !ok {
				apiJSON(c, http.StatusUnprocessableEntity, "Must supply a value for 'query' parameter if using 'mode=search'")
				return
			}
			categories, err := h.Store.SearchCategories(ctx, query)
			if err != nil {
				h.apiServerError(c, err, "Server-side error occurred while searching categories.")
				return
			}
			if len(categories) == 0 {
				apiJSON(c, http.StatusNotFound, "No categories found under this search term.")
				return
			}
			c.JSON(http.StatusOK, gin.H{"QueryCategories": categories})
		default:
			apiJSON(c, http.StatusUnprocessableEntity, "Incorrect option for 'mode' parameter.")
		}
		return
	}

	if id, present, valid := paramID(c, "id"); present {
		if _, ok := param(c, "name"); ok {
			apiJSON(c, http.StatusUnprocessableEntity, "Parameter 'name' cannot be used with 'id'.")
			return
		}
		var category *models.Category
		err := store.ErrNotFound
		if valid {
			category, err = h.Store.GetCategory(ctx, id)
		}
		if errors.Is(err, store.ErrNotFound) {
			apiJSON(c, http.StatusNotFound, "No category corresponding to this ID.")
			return
		}
		if err != nil {
			h.apiServerError(c, err, "Server-side error occurred while loading the category.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"Category": []models.Category{*category}})
		return
	}

	if name, ok := param(c, "name"); ok {
		category, err := h.Store.GetCategoryByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			apiJSON(c, http.StatusNotFound, "No category found under this name.")
			return
		}
		if err != nil {
			h.apiServerError(c, err, "Server-side error occurred while loading the category.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"Category": []models.Category{*category}})
		return
	}

	BadRoute(c)
}

// ItemsJSON lists, searches or looks up items.
func (h *Handlers) ItemsJSON(c *gin.Context) {
	ctx := c.Request.Context()

	if mode, ok := param(c, "mode"); ok {
		switch mode {
		case "list":
			items, err := h.Store.ListItems(ctx)
			if err != nil {
				h.apiServerError(c, err, "Server-side error occurred while listing items.")
				return
			}
			summaries := make([]models.ItemSummary, 0, len(items))
			for _, item := range items {
				summaries = append(summaries, item.Summary())
			}
			c.JSON(http.StatusOK, gin.H{"Items": summaries})
		case "search":
			query, ok := param(c, "query")
			if !ok {
				apiJSON(c, http.StatusUnprocessableEntity, "Must supply a value for 'query' parameter if using 'mode=search'.")
				return
			}
			items, err := h.Store.SearchItems(ctx, query)
			if err != nil {
				h.apiServerError(c, err, "Server-side error occurred while searching items.")
				return
			}
			if len(items) == 0 {
				apiJSON(c, http.StatusNotFound, "No items found under this search term.")
				return
			}
			c.JSON(http.StatusOK, gin.H{"QueryItems": items})
		default:
			apiJSON(c, http.StatusUnprocessableEntity, "Incorrect option for 'mode' parameter.")
		}
		return
	}

	if categoryID, present, valid := paramID(c, "category_id"); present {
		err := store.ErrNotFound
		if valid {
			_, err = h.Store.GetCategory(ctx, categoryID)
		}
		if errors.Is(err, store.ErrNotFound) {
			apiJSON(c, http.StatusNotFound, "No category corresponding to this ID.")
			return
		}
		if err != nil {
			h.apiServerError(c, err, "Server-side error occurred while loading the category.")
			return
		}
		items, err := h.Store.ListItemsByCategory(ctx, categoryID)
		if err != nil {
			h.apiServerError(c, err, "Server-side error occurred while listing items.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"Items": nonNil(items)})
		return
	}

	if id, present, valid := paramID(c, "id"); present {
		if _, ok := param(c, "name"); ok {
			apiJSON(c, http.StatusUnprocessableEntity, "Parameter 'name' cannot be used with 'id'.")
			return
		}
		var item *models.Item
		err := store.ErrNotFound
		if valid {
			item, err = h.Store.GetItem(ctx, id)
		}
		if errors.Is(err, store.ErrNotFound) {
			apiJSON(c, http.StatusNotFound, "No item found under this ID.")
			return
		}
		if err != nil {
			h.apiServerError(c, err, "Server-side error occurred while loading the item.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"Item": []models.Item{*item}})
		return
	}

	if name, ok := param(c, "name"); ok {
		item, err := h.Store.GetItemByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			apiJSON(c, http.StatusNotFound, "No item found under this name.")
			return
		}
		if err != nil {
			h.apiServerError(c, err, "Server-side error occurred while loading the item.")
			return
		}
		c.JSON(http.StatusOK, gin.H{"Item": []models.Item{*item}})
		return
	}

	BadRoute(c)
}

// --- Mutations (token required) ---

func (h *Handlers) APIAddCategory(c *gin.Context) {
	name, _ := param(c, "name")
	name = strings.TrimSpace(name)
	if name == "" {
		apiJSON(c, http.StatusUnprocessableEntity, "Name must be provided for category to be added.")
		return
	}
	if validate().Var(name, "max=80") != nil {
		apiJSON(c, http.StatusUnprocessableEntity, "Category name can be at most 80 characters.")
		return
	}

	category := &models.Category{Name: name}
	if err := h.Store.CreateCategory(c.Request.Context(), category); err != nil {
		h.apiServerError(c, err, "Server-side error occurred during category creation.")
		return
	}
	apiJSON(c, http.StatusOK, fmt.Sprintf("Successfully added category '%s' to database.", category.Name))
}

func (h *Handlers) APIAddItem(c *gin.Context) {
	var input itemInput
	if err := c.ShouldBind(&input); err != nil {
		apiJSON(c, http.StatusUnprocessableEntity, "Item fields are too long or malformed.")
		return
	}
	input.trim()

	categoryID, present, valid := paramID(c, "category_id")
	switch {
	case input.Name == "":
		apiJSON(c, http.StatusUnprocessableEntity, "Item name must be provided for item to be added.")
		return
	case !present:
		apiJSON(c, http.StatusUnprocessableEntity, "Category ID must be provided for item to be added.")
		return
	case input.Price == "":
		apiJSON(c, http.StatusUnprocessableEntity, "Price must be provided for item to be added.")
		return
	case !valid:
		apiJSON(c, http.StatusNotFound, "No category corresponding to this ID.")
		return
	}

	item := &models.Item{CategoryID: categoryID}
	if err := input.apply(item); err != nil {
		apiJSON(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	err := h.Store.CreateItem(c.Request.Context(), item)
	if errors.Is(err, store.ErrNotFound) {
		apiJSON(c, http.StatusNotFound, "No category corresponding to this ID.")
		return
	}
	if err != nil {
		h.apiServerError(c, err, "Server-side error occurred during item creation.")
		return
	}
	apiJSON(c, http.StatusOK, fmt.Sprintf("Successfully added item '%s' to database.", item.Name))
}

func (h *Handlers) APIUpdateCategory(c *gin.Context) {
	id, present, valid := paramID(c, "id")
	if !present {
		apiJSON(c, http.StatusUnprocessableEntity, "Category ID must be provided to execute request.")
		return
	}

	var category *models.Category
	err := store.ErrNotFound
	if valid {
		category, err = h.Store.GetCategory(c.Request.Context(), id)
	}
	if errors.Is(err, store.ErrNotFound) {
		apiJSON(c, http.StatusNotFound, "No category to update found under this ID.")
		return
	}
	if err != nil {
		h.apiServerError(c, err, "Server-side error occurred during category update.")
		return
	}

	name, _ := param(c, "name")
	name = strings.TrimSpace(name)
	if name == "" {
		apiJSON(c, http.StatusUnprocessableEntity, "Nothing to update if a new name not provided.")
		return
	}
	if validate().Var(name, "max=80") != nil {
		apiJSON(c, http.StatusUnprocessableEntity, "Category name can be at most 80 characters.")
		return
	}

	category.Name = name
	if err := h.Store.UpdateCategory(c.Request.Context(), category); err != nil {
		h.apiServerError(c, err, "Server-side error occurred during category update.")
		return
	}
	apiJSON(c, http.StatusOK, fmt.Sprintf("Successfully updated category '%s'", category.Name))
}

func (h *Handlers) APIUpdateItem(c *gin.Context) {
	id, present, valid := paramID(c, "id")
	if !present {
		apiJSON(c, http.StatusUnprocessableEntity, "Item ID must be provided to execute request.")
		return
	}

	var item *models.Item
	err := store.ErrNotFound
	if valid {
		item, err = h.Store.GetItem(c.Request.Context(), id)
	}
	if errors.Is(err, store.ErrNotFound) {
		apiJSON(c, http.StatusNotFound, "No item to update found under this ID.")
		return
	}
	if err != nil {
		h.apiServerError(c, err, "Server-side error occurred during item update.")
		return
	}

	var input itemInput
	if err := c.ShouldBind(&input); err != nil {
		apiJSON(c, http.StatusUnprocessableEntity, "Item fields are too long or malformed.")
		return
	}
	input.trim()
	if input.empty() {
		apiJSON(c, http.StatusUnprocessableEntity, "Nothing to update if no new data is provided.")
		return
	}

	oldName := item.Name
	if err := input.apply(item); err != nil {
		apiJSON(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.Store.UpdateItem(c.Request.Context(), item); err != nil {
		h.apiServerError(c, err, "Server-side error occurred during item update.")
		return
	}
	apiJSON(c, http.StatusOK, fmt.Sprintf("Successfully updated item '%s'", oldName))
}

func (h *Handlers) APIDeleteCategory(c *gin.Context) {
	id, present, valid := paramID(c, "id")
	if !present {
		apiJSON(c, http.StatusUnprocessableEntity, "Category ID must be provided to execute request.")
		return
	}

	var category *models.Category
	err := store.ErrNotFound
	if valid {
		category, err = h.Store.GetCategory(c.Request.Context(), id)
	}
	if errors.Is(err, store.ErrNotFound) {
		apiJSON(c, http.StatusNotFound, "No category to delete found under this ID.")
		return
	}
	if err != nil {
		h.apiServerError(c, err, "Server-side error occurred during category deletion.")
		return
	}

	if err := h.deleteCategory(c, category); err != nil {
		h.apiServerError(c, err, "Server-side error occurred during category deletion.")
		return
	}
	apiJSON(c, http.StatusOK, fmt.Sprintf("Successfully deleted category '%s' and all associated items", category.Name))
}

func (h *Handlers) APIDeleteItem(c *gin.Context) {
	id, present, valid := paramID(c, "id")
	if !present {
		apiJSON(c, http.StatusUnprocessableEntity, "Item ID must be provided to execute request.")
		return
	}

	var item *models.Item
	err := store.ErrNotFound
	if valid {
		item, err = h.Store.GetItem(c.Request.Context(), id)
	}
	if errors.Is(err, store.ErrNotFound) {
		apiJSON(c, http.StatusNotFound, "No item to delete found under this ID.")
		return
	}
	if err != nil {
		h.apiServerError(c, err, "Server-side error occurred during item deletion.")
		return
	}

	if err := h.Store.DeleteItem(c.Request.Context(), item.ID); err != nil {
		h.apiServerError(c, err, "Server-side error occurred during item deletion.")
		return
	}
	h.removeUpload(item.Image)
	apiJSON(c, http.StatusOK, fmt.Sprintf("Successfully deleted item '%s'", item.Name))
}

func (h *Handlers) apiServerError(c *gin.Context, err error, message string) {
	h.logger().Error("API request failed", "path", c.Request.URL.Path, "error", err)
	c.Error(err)
	apiJSON(c, http.StatusInternalServerError, message)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
