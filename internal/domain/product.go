package domain

import "time"

// SavedProduct is a ProductRecord after it has been written to the products table
type SavedProduct struct {
	ID int64 `json:"id"`
	ProductRecord
	CreatedAt time.Time `json:"createdAt"`
}

// ProductPage requests a window of saved products, newest first
type ProductPage struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the page to sane bounds
func (p ProductPage) Normalize() ProductPage {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
