package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/01moynul/itemcatalog-golang/internal/models"
)

const categoryColumns = `id, name, image`

func scanCategories(rows *sql.Rows) ([]models.Category, error) {
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListCategories returns every category ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

// SearchCategories returns categories whose name contains term.
func (s *Store) SearchCategories(ctx context.Context, term string) ([]models.Category, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name LIKE ? ESCAPE '!' ORDER BY id`,
		likePattern(term))
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := s.DB.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Image)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// GetCategoryByName returns the first category with exactly this name.
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := s.DB.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? ORDER BY id LIMIT 1`, name).
		Scan(&c.ID, &c.Name, &c.Image)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// CreateCategory inserts c and sets its ID.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO categories (name, image) VALUES (?, ?)`, c.Name, c.Image)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		c.ID, err = res.LastInsertId()
		return err
	})
}

// UpdateCategory writes the name and image of an existing category.
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE categories SET name = ?, image = ? WHERE id = ?`, c.Name, c.Image, c.ID)
		if err != nil {
			return fmt.Errorf("update category %d: %w", c.ID, err)
		}
		return requireRow(ctx, tx, res, `SELECT 1 FROM categories WHERE id = ?`, c.ID)
	})
}

// DeleteCategory removes the category and every item that belongs to it in
// one transaction, returning the number of items removed.
func (s *Store) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE category_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete items of category %d: %w", id, err)
		}
		removed, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// requireRow maps a zero-row UPDATE onto ErrNotFound. MySQL reports zero
// affected rows when values are unchanged, so existence is checked again.
func requireRow(ctx context.Context, tx *sql.Tx, res sql.Result, query string, id int64) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var one int
	if err := tx.QueryRowContext(ctx, query, id).Scan(&one); err != nil {
		return notFound(err)
	}
	return nil
}
