package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stocksense/internal/domain"
)

const productColumns = `id, owner_id, sku, name, current_stock, reorder_point,
		min_stock_level, max_stock_level, reorder_quantity, unit_cost,
		selling_price, lead_time_days, is_active`

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) ListActiveProducts(ctx context.Context, ownerID int64) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE owner_id = $1 AND is_active = TRUE
		ORDER BY id`

	products := []domain.Product{}
	if err := r.db.SelectContext(ctx, &products, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, nil
}

func (r *productRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) ListSalesSince(ctx context.Context, productID int64, since time.Time) ([]domain.Sale, error) {
	query := `
		SELECT id, product_id, quantity, unit_price, sale_date, channel
		FROM sales
		WHERE product_id = $1 AND sale_date >= $2
		ORDER BY sale_date`

	sales := []domain.Sale{}
	if err := r.db.SelectContext(ctx, &sales, query, productID, since); err != nil {
		return nil, fmt.Errorf("failed to list sales for product %d: %w", productID, err)
	}
	return sales, nil
}
