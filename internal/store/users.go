package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/01moynul/itemcatalog-golang/internal/models"
)

// CreateUser stores a new local account. The username is lower-cased and
// must be unique; a second registration returns ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	u := &models.User{Username: strings.ToLower(username), PasswordHash: passwordHash}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password_hash) VALUES (?, ?)`, u.Username, u.PasswordHash)
		if err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("user %q: %w", u.Username, ErrDuplicate)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		u.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`, strings.ToLower(username)).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
