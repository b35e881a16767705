package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/01moynul/itemcatalog-golang/internal/models"
)

const itemColumns = `id, name, description, price, stock, image, category_id`

func scanItem(row interface{ Scan(...any) error }, i *models.Item) error {
	return row.Scan(&i.ID, &i.Name, &i.Description, &i.Price, &i.Stock, &i.Image, &i.CategoryID)
}

func scanItems(rows *sql.Rows) ([]models.Item, error) {
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var i models.Item
		if err := scanItem(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// ListItemsByCategory returns the items of one category ordered by id.
func (s *Store) ListItemsByCategory(ctx context.Context, categoryID int64) ([]models.Item, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE category_id = ? ORDER BY id`, categoryID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// SearchItems returns items whose name contains term.
func (s *Store) SearchItems(ctx context.Context, term string) ([]models.Item, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE name LIKE ? ESCAPE '!' ORDER BY id`,
		likePattern(term))
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (s *Store) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var i models.Item
	row := s.DB.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	if err := scanItem(row, &i); err != nil {
		return nil, notFound(err)
	}
	return &i, nil
}

// GetItemByName returns the first item with exactly this name.
func (s *Store) GetItemByName(ctx context.Context, name string) (*models.Item, error) {
	var i models.Item
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE name = ? ORDER BY id LIMIT 1`, name)
	if err := scanItem(row, &i); err != nil {
		return nil, notFound(err)
	}
	return &i, nil
}

// CreateItem inserts i and sets its ID. The owning category must exist.
func (s *Store) CreateItem(ctx context.Context, i *models.Item) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, i.CategoryID).Scan(&one)
		if err != nil {
			return notFound(err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO items (name, description, price, stock, image, category_id) VALUES (?, ?, ?, ?, ?, ?)`,
			i.Name, i.Description, i.Price, i.Stock, i.Image, i.CategoryID)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		i.ID, err = res.LastInsertId()
		return err
	})
}

// UpdateItem writes every mutable column of an existing item.
func (s *Store) UpdateItem(ctx context.Context, i *models.Item) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE items SET name = ?, description = ?, price = ?, stock = ?, image = ? WHERE id = ?`,
			i.Name, i.Description, i.Price, i.Stock, i.Image, i.ID)
		if err != nil {
			return fmt.Errorf("update item %d: %w", i.ID, err)
		}
		return requireRow(ctx, tx, res, `SELECT 1 FROM items WHERE id = ?`, i.ID)
	})
}

func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete item %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
