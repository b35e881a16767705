package models

// Category defines the struct for the 'categories' table.
// Image is the picture's path relative to the uploads directory and is not
// part of the JSON form.
type Category struct {
	ID    int64   `json:"id" db:"id"`
	Name  string  `json:"name" db:"name"`
	Image *string `json:"-" db:"image"` // Use pointer for NULL
}

// ImageURL returns the image path or "" when the category has none.
func (c Category) ImageURL() string {
	if c.Image == nil {
		return ""
	}
	return *c.Image
}
