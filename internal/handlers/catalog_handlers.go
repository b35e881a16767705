package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/itemcatalog-golang/internal/models"
	"github.com/01moynul/itemcatalog-golang/internal/session"
	"github.com/01moynul/itemcatalog-golang/internal/store"
)

// itemInput is the form shared by the item pages and the item API. Empty
// fields count as absent.
type itemInput struct {
	Name        string `form:"name" json:"name" binding:"max=80"`
	Description string `form:"description" json:"description" binding:"max=250"`
	Price       string `form:"price" json:"price" binding:"max=10"`
	Stock       string `form:"stock" json:"stock" binding:"omitempty,number"`
}

func (in *itemInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = strings.TrimSpace(in.Price)
	in.Stock = strings.TrimSpace(in.Stock)
}

func (in itemInput) empty() bool {
	return in.Name == "" && in.Description == "" && in.Price == "" && in.Stock == ""
}

// apply copies the non-empty fields onto item.
func (in itemInput) apply(item *models.Item) error {
	if in.Name != "" {
		item.Name = in.Name
	}
	if in.Description != "" {
		item.Description = in.Description
	}
	if in.Price != "" {
		price, err := models.NormalizePrice(in.Price)
		if err != nil {
			return errInvalidPrice
		}
		item.Price = price
	}
	if in.Stock != "" {
		stock, err := strconv.Atoi(in.Stock)
		if err != nil || stock < 0 {
			return errInvalidStock
		}
		item.Stock = stock
	}
	return nil
}

var (
	errInvalidPrice = errors.New("Price must be a valid non-negative amount.")
	errInvalidStock = errors.New("Stock must be a non-negative whole number.")
)

type categoryInput struct {
	Name string `form:"name" json:"name" binding:"max=80"`
}

// Index lists every category.
func (h *Handlers) Index(c *gin.Context) {
	categories, err := h.Store.ListCategories(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "index.html", gin.H{
		"Subheading": "Browse Catalog",
		"Categories": categories,
	})
}

// loadCategory resolves the :category_id parameter or answers 404.
func (h *Handlers) loadCategory(c *gin.Context) (*models.Category, bool) {
	id, ok := idParam(c, "category_id")
	if !ok {
		h.errorPage(c, http.StatusNotFound, "No category corresponding to this ID.")
		return nil, false
	}
	category, err := h.Store.GetCategory(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.errorPage(c, http.StatusNotFound, "No category corresponding to this ID.")
		return nil, false
	}
	if err != nil {
		h.serverError(c, err)
		return nil, false
	}
	return category, true
}

// loadItem resolves :category_id and :item_id. The item has to belong to
// the category.
func (h *Handlers) loadItem(c *gin.Context) (*models.Category, *models.Item, bool) {
	category, ok := h.loadCategory(c)
	if !ok {
		return nil, nil, false
	}
	id, ok := idParam(c, "item_id")
	if !ok {
		h.errorPage(c, http.StatusNotFound, "No item found under this ID.")
		return nil, nil, false
	}
	item, err := h.Store.GetItem(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && item.CategoryID != category.ID) {
		h.errorPage(c, http.StatusNotFound, "No item found under this ID.")
		return nil, nil, false
	}
	if err != nil {
		h.serverError(c, err)
		return nil, nil, false
	}
	return category, item, true
}

// ShowCategory lists the items of one category.
func (h *Handlers) ShowCategory(c *gin.Context) {
	category, ok := h.loadCategory(c)
	if !ok {
		return
	}
	items, err := h.Store.ListItemsByCategory(c.Request.Context(), category.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "category.html", gin.H{
		"Subheading": fmt.Sprintf("Displaying items for category '%s'", category.Name),
		"Category":   category,
		"Items":      items,
	})
}

// --- Items ---

func (h *Handlers) AddItemForm(c *gin.Context) {
	category, ok := h.loadCategory(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "add_items.html", gin.H{
		"Subheading": fmt.Sprintf("Add items for category '%s' (id: %d)", category.Name, category.ID),
		"Category":   category,
	})
}

func (h *Handlers) AddItem(c *gin.Context) {
	category, ok := h.loadCategory(c)
	if !ok {
		return
	}
	back := fmt.Sprintf("/items/%d/add", category.ID)

	// 1. Bind and validate the form
	var input itemInput
	if err := c.ShouldBind(&input); err != nil {
		h.flash(c, "error", "Please check the item details and try again.")
		h.redirect(c, back)
		return
	}
	input.trim()
	if input.Name == "" || input.Price == "" {
		h.flash(c, "error", "An item needs a name and a price.")
		h.redirect(c, back)
		return
	}

	item := &models.Item{CategoryID: category.ID}
	if err := input.apply(item); err != nil {
		h.flash(c, "error", err.Error())
		h.redirect(c, back)
		return
	}

	// 2. Store the optional picture
	image, err := h.saveUpload(c, "items", item.Name)
	if err != nil {
		h.flash(c, "error", uploadMessage(err))
		h.redirect(c, back)
		return
	}
	item.Image = image

	// 3. Insert
	if err := h.Store.CreateItem(c.Request.Context(), item); err != nil {
		h.removeUpload(image)
		h.serverError(c, err)
		return
	}

	h.flash(c, "success", fmt.Sprintf("Successfully added item '%s'.", item.Name))
	h.redirect(c, fmt.Sprintf("/category/%d", category.ID))
}

func (h *Handlers) UpdateItemForm(c *gin.Context) {
	category, item, ok := h.loadItem(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "update_item.html", gin.H{
		"Subheading": fmt.Sprintf("Update item '%s'", item.Name),
		"Category":   category,
		"Item":       item,
	})
}

func (h *Handlers) UpdateItem(c *gin.Context) {
	category, item, ok := h.loadItem(c)
	if !ok {
		return
	}
	back := fmt.Sprintf("/items/update/%d/%d", category.ID, item.ID)

	var input itemInput
	if err := c.ShouldBind(&input); err != nil {
		h.flash(c, "error", "Please check the item details and try again.")
		h.redirect(c, back)
		return
	}
	input.trim()
	if err := input.apply(item); err != nil {
		h.flash(c, "error", err.Error())
		h.redirect(c, back)
		return
	}

	image, err := h.saveUpload(c, "items", item.Name)
	if err != nil {
		h.flash(c, "error", uploadMessage(err))
		h.redirect(c, back)
		return
	}
	old := item.Image
	if image != nil {
		item.Image = image
	}

	if err := h.Store.UpdateItem(c.Request.Context(), item); err != nil {
		h.removeUpload(image)
		h.serverError(c, err)
		return
	}
	if image != nil {
		h.removeUpload(old)
	}

	h.flash(c, "success", fmt.Sprintf("Successfully updated item '%s'.", item.Name))
	h.redirect(c, fmt.Sprintf("/category/%d", category.ID))
}

func (h *Handlers) DeleteItemForm(c *gin.Context) {
	category, item, ok := h.loadItem(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "delete_item.html", gin.H{
		"Subheading": fmt.Sprintf("Delete item '%s'", item.Name),
		"Category":   category,
		"Item":       item,
	}, session.FlashMessage{Type: "warning", Message: "Warning: This operation cannot be undone!"})
}

func (h *Handlers) DeleteItem(c *gin.Context) {
	category, item, ok := h.loadItem(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteItem(c.Request.Context(), item.ID); err != nil {
		h.serverError(c, err)
		return
	}
	h.removeUpload(item.Image)

	h.flash(c, "success", fmt.Sprintf("Successfully deleted item '%s'.", item.Name))
	h.redirect(c, fmt.Sprintf("/category/%d", category.ID))
}

// --- Categories ---

func (h *Handlers) AddCategoryForm(c *gin.Context) {
	h.render(c, http.StatusOK, "add_categories.html", gin.H{"Subheading": "Add a new category"})
}

func (h *Handlers) AddCategory(c *gin.Context) {
	var input categoryInput
	if err := c.ShouldBind(&input); err != nil || strings.TrimSpace(input.Name) == "" {
		h.flash(c, "error", "A category needs a name of at most 80 characters.")
		h.redirect(c, "/categories/add")
		return
	}
	category := &models.Category{Name: strings.TrimSpace(input.Name)}

	image, err := h.saveUpload(c, "categories", category.Name)
	if err != nil {
		h.flash(c, "error", uploadMessage(err))
		h.redirect(c, "/categories/add")
		return
	}
	category.Image = image

	if err := h.Store.CreateCategory(c.Request.Context(), category); err != nil {
		h.removeUpload(image)
		h.serverError(c, err)
		return
	}

	h.flash(c, "success", fmt.Sprintf("Successfully added category '%s'.", category.Name))
	h.redirect(c, "/")
}

func (h *Handlers) UpdateCategoryForm(c *gin.Context) {
	category, ok := h.loadCategory(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "update_category.html", gin.H{
		"Subheading": fmt.Sprintf("Update category '%s'", category.Name),
		"Category":   category,
	})
}

func (h *Handlers) UpdateCategory(c *gin.Context) {
	category, ok := h.loadCategory(c)
	if !ok {
		return
	}
	back := fmt.Sprintf("/categories/update/%d", category.ID)

	var input categoryInput
	if err := c.ShouldBind(&input); err != nil {
		h.flash(c, "error", "A category name can be at most 80 characters.")
		h.redirect(c, back)
		return
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		category.Name = name
	}

	image, err := h.saveUpload(c, "categories", category.Name)
	if err != nil {
		h.flash(c, "error", uploadMessage(err))
		h.redirect(c, back)
		return
	}
	old := category.Image
	if image != nil {
		category.Image = image
	}

	if err := h.Store.UpdateCategory(c.Request.Context(), category); err != nil {
		h.removeUpload(image)
		h.serverError(c, err)
		return
	}
	if image != nil {
		h.removeUpload(old)
	}

	h.flash(c, "success", fmt.Sprintf("Successfully updated category '%s'.", category.Name))
	h.redirect(c, "/")
}

func (h *Handlers) DeleteCategoryForm(c *gin.Context) {
	category, ok := h.loadCategory(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "delete_category.html", gin.H{
		"Subheading": fmt.Sprintf("Delete category '%s'", category.Name),
		"Category":   category,
	}, session.FlashMessage{
		Type:    "warning",
		Message: "Warning: This operation cannot be undone and will also delete all items associated within this category!",
	})
}

func (h *Handlers) DeleteCategory(c *gin.Context) {
	category, ok := h.loadCategory(c)
	if !ok {
		return
	}
	if err := h.deleteCategory(c, category); err != nil {
		h.serverError(c, err)
		return
	}

	h.flash(c, "success", fmt.Sprintf("Successfully deleted category '%s'.", category.Name))
	h.redirect(c, "/")
}

// deleteCategory removes the category, its items and their pictures.
func (h *Handlers) deleteCategory(c *gin.Context, category *models.Category) error {
	ctx := c.Request.Context()
	items, err := h.Store.ListItemsByCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	removed, err := h.Store.DeleteCategory(ctx, category.ID)
	if err != nil {
		return err
	}

	h.removeUpload(category.Image)
	for _, item := range items {
		h.removeUpload(item.Image)
	}
	h.logger().Info("Deleted category", "id", category.ID, "items", removed)
	return nil
}
