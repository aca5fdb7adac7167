package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labelscan/backend/internal/domain"
)

const productColumns = `id, name, price, ingredients, macronutrients, vitamins, created_at`

// ProductRepository stores product records in the products_scanned table
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a repository on top of a pool or transaction
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Save inserts one record. A missing price is stored as 0 and missing
// vitamins as an empty object; the returned SavedProduct keeps the record as given.
func (r *ProductRepository) Save(ctx context.Context, record domain.ProductRecord) (*domain.SavedProduct, error) {
	macros, err := json.Marshal(record.Macronutrients)
	if err != nil {
		return nil, fmt.Errorf("encode macronutrients: %w", err)
	}
	vitamins, err := json.Marshal(record.VitaminsOrEmpty())
	if err != nil {
		return nil, fmt.Errorf("encode vitamins: %w", err)
	}

	ingredients := record.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}

	saved := &domain.SavedProduct{ProductRecord: record}
	err = r.db.QueryRow(ctx,
		`INSERT INTO products_scanned (name, price, ingredients, macronutrients, vitamins)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		record.Name, record.PriceOrZero(), ingredients, macros, vitamins,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		log.Printf("[Postgres] Insert product %q failed: %v", record.Name, err)
		return nil, fmt.Errorf("%w: insert product: %v", domain.ErrDatabaseFailure, err)
	}

	log.Printf("[Postgres] Product saved: id=%d name=%q", saved.ID, record.Name)
	return saved, nil
}

// GetByID loads one saved product
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.SavedProduct, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products_scanned WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: get product %d: %v", domain.ErrDatabaseFailure, id, err)
	}
	return product, nil
}

// List returns saved products, newest first
func (r *ProductRepository) List(ctx context.Context, page domain.ProductPage) ([]domain.SavedProduct, error) {
	page = page.Normalize()

	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products_scanned
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", domain.ErrDatabaseFailure, err)
	}
	defer rows.Close()

	products := make([]domain.SavedProduct, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", domain.ErrDatabaseFailure, err)
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list products: %v", domain.ErrDatabaseFailure, err)
	}
	return products, nil
}

// scanProduct reads one row in productColumns order
func scanProduct(row pgx.Row) (*domain.SavedProduct, error) {
	var (
		id          int64
		name        string
		price       float64
		ingredients []string
		macrosJSON  []byte
		vitJSON     []byte
		createdAt   time.Time
	)
	if err := row.Scan(&id, &name, &price, &ingredients, &macrosJSON, &vitJSON, &createdAt); err != nil {
		return nil, err
	}

	var macros domain.Macronutrients
	if err := json.Unmarshal(macrosJSON, &macros); err != nil {
		return nil, fmt.Errorf("decode macronutrients: %w", err)
	}

	var vitamins map[string]float64
	if len(vitJSON) > 0 {
		if err := json.Unmarshal(vitJSON, &vitamins); err != nil {
			return nil, fmt.Errorf("decode vitamins: %w", err)
		}
	}

	// Stored rows cannot distinguish "no price" from 0
	var pricePtr *float64
	if price != 0 {
		pricePtr = &price
	}

	return &domain.SavedProduct{
		ID:            id,
		ProductRecord: domain.NewProductRecord(name, pricePtr, ingredients, macros, vitamins),
		CreatedAt:     createdAt,
	}, nil
}
