package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// SaleImport is a sale row keyed by product SKU
type SaleImport struct {
	SKU  string
	Sale domain.Sale
}

// ImportStats counts what a catalog import wrote
type ImportStats struct {
	Products    int `json:"products"`
	Sales       int `json:"sales"`
	UnknownSKUs int `json:"unknown_skus"`
}

// CatalogImporter loads products and sales history for one owner.
type CatalogImporter struct {
	db *DB
}

func NewCatalogImporter(db *DB) *CatalogImporter {
	return &CatalogImporter{db: db}
}

// Import upserts products by (owner, sku) and appends sales in one transaction.
// Sales for SKUs the owner does not have are skipped.
func (i *CatalogImporter) Import(ctx context.Context, ownerID int64, products []domain.Product, sales []SaleImport) (ImportStats, error) {
	var stats ImportStats

	err := i.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		ids := make(map[string]int64, len(products))

		for _, p := range products {
			var id int64
			err := tx.QueryRowxContext(ctx, `
				INSERT INTO products (
					owner_id, sku, name, current_stock, reorder_point, min_stock_level,
					max_stock_level, reorder_quantity, unit_cost, selling_price,
					lead_time_days, is_active
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (owner_id, sku) DO UPDATE SET
					name = EXCLUDED.name,
					current_stock = EXCLUDED.current_stock,
					reorder_point = EXCLUDED.reorder_point,
					min_stock_level = EXCLUDED.min_stock_level,
					max_stock_level = EXCLUDED.max_stock_level,
					reorder_quantity = EXCLUDED.reorder_quantity,
					unit_cost = EXCLUDED.unit_cost,
					selling_price = EXCLUDED.selling_price,
					lead_time_days = EXCLUDED.lead_time_days,
					is_active = EXCLUDED.is_active,
					updated_at = NOW()
				RETURNING id`,
				ownerID, p.SKU, p.Name, p.CurrentStock, p.ReorderPoint, p.MinStockLevel,
				p.MaxStockLevel, p.ReorderQuantity, p.UnitCost, p.SellingPrice,
				p.LeadTimeDays, p.IsActive,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.SKU, err)
			}
			ids[p.SKU] = id
			stats.Products++
		}

		for _, s := range sales {
			productID, ok := ids[s.SKU]
			if !ok {
				if err := tx.GetContext(ctx, &productID,
					`SELECT id FROM products WHERE owner_id = $1 AND sku = $2`, ownerID, s.SKU); err != nil {
					if !errors.Is(err, sql.ErrNoRows) {
						return fmt.Errorf("failed to look up sku %s: %w", s.SKU, err)
					}
					stats.UnknownSKUs++
					log.Warn().Str("sku", s.SKU).Msg("catalog import: sale for unknown sku skipped")
					continue
				}
				ids[s.SKU] = productID
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO sales (product_id, quantity, unit_price, sale_date, channel)
				VALUES ($1, $2, $3, $4, $5)`,
				productID, s.Sale.Quantity, s.Sale.UnitPrice, s.Sale.SaleDate.UTC(), s.Sale.Channel,
			)
			if err != nil {
				return fmt.Errorf("failed to insert sale for %s: %w", s.SKU, err)
			}
			stats.Sales++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}

	log.Info().
		Int64("owner_id", ownerID).
		Int("products", stats.Products).
		Int("sales", stats.Sales).
		Int("unknown_skus", stats.UnknownSKUs).
		Msg("catalog import completed")
	return stats, nil
}
