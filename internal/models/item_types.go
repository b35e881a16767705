package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every stored price.
const CurrencySymbol = "$"

// PriceMaxLen is the width of the items.price column.
const PriceMaxLen = 20

// ErrInvalidPrice is returned for prices that are not a non-negative amount.
var ErrInvalidPrice = errors.New("price must be a non-negative amount")

// Item is the model for the 'items' table.
type Item struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Price       string  `json:"price" db:"price"`
	Stock       int     `json:"stock" db:"stock"`
	Image       *string `json:"-" db:"image"`
	CategoryID  int64   `json:"category_id" db:"category_id"`
}

// ItemSummary is the reduced item shape returned by list mode.
type ItemSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Summary reduces the item to its id and name.
func (i Item) Summary() ItemSummary {
	return ItemSummary{ID: i.ID, Name: i.Name}
}

// ImageURL returns the image path or "" when the item has none.
func (i Item) ImageURL() string {
	if i.Image == nil {
		return ""
	}
	return *i.Image
}

// NormalizePrice validates a price input and returns it carrying exactly one
// leading currency symbol. "19.99" and "$19.99" both become "$19.99".
func NormalizePrice(raw string) (string, error) {
	amount := strings.TrimSpace(raw)
	amount = strings.TrimPrefix(amount, CurrencySymbol)

	d, err := decimal.NewFromString(amount)
	if err != nil || d.IsNegative() {
		return "", ErrInvalidPrice
	}
	price := CurrencySymbol + amount
	if len(price) > PriceMaxLen {
		return "", ErrInvalidPrice
	}
	return price, nil
}
