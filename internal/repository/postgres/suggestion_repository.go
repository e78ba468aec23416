package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/jmoiron/sqlx"
)

const suggestionColumns = `s.id, s.product_id, s.suggested_quantity, s.urgency, s.reason,
		s.estimated_stockout_date, s.cost_impact, s.status, s.created_at,
		s.updated_at, s.created_by, s.updated_by, s.notes`

type suggestionRepository struct {
	db *DB
}

func NewSuggestionRepository(db *DB) *suggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) GetPendingSuggestion(ctx context.Context, productID int64) (*domain.ReorderSuggestion, error) {
	query := `SELECT ` + suggestionColumns + `
		FROM reorder_suggestions s
		WHERE s.product_id = $1 AND s.status = $2`

	var sg domain.ReorderSuggestion
	if err := r.db.GetContext(ctx, &sg, query, productID, domain.StatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending suggestion for product %d: %w", productID, err)
	}
	return &sg, nil
}

// UpsertPending relies on the partial unique index over pending rows, so two
// concurrent generators cannot both insert.
func (r *suggestionRepository) UpsertPending(ctx context.Context, sg *domain.ReorderSuggestion) error {
	query := `
		INSERT INTO reorder_suggestions (
			product_id, suggested_quantity, urgency, reason, estimated_stockout_date,
			cost_impact, status, created_at, updated_at, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, 'pending', NOW(), NOW(), $7, $7)
		ON CONFLICT (product_id) WHERE status = 'pending'
		DO UPDATE SET
			suggested_quantity = EXCLUDED.suggested_quantity,
			urgency = EXCLUDED.urgency,
			reason = EXCLUDED.reason,
			estimated_stockout_date = EXCLUDED.estimated_stockout_date,
			cost_impact = EXCLUDED.cost_impact,
			updated_at = NOW(),
			updated_by = EXCLUDED.updated_by
		RETURNING id, status, created_at, updated_at, created_by, notes`

	actor := sg.UpdatedBy
	if actor == 0 {
		actor = sg.CreatedBy
	}

	err := r.db.QueryRowxContext(ctx, query,
		sg.ProductID, sg.SuggestedQuantity, sg.Urgency, sg.Reason,
		sg.EstimatedStockoutDate, sg.CostImpact, actor,
	).Scan(&sg.ID, &sg.Status, &sg.CreatedAt, &sg.UpdatedAt, &sg.CreatedBy, &sg.Notes)
	if err != nil {
		return fmt.Errorf("failed to upsert pending suggestion for product %d: %w", sg.ProductID, err)
	}
	sg.UpdatedBy = actor
	return nil
}

func (r *suggestionRepository) GetSuggestion(ctx context.Context, id int64) (*domain.ReorderSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM reorder_suggestions s WHERE s.id = $1`

	var sg domain.ReorderSuggestion
	if err := r.db.GetContext(ctx, &sg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("suggestion %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get suggestion %d: %w", id, err)
	}
	return &sg, nil
}

func (r *suggestionRepository) ListSuggestions(ctx context.Context, filter domain.SuggestionFilter) ([]domain.ReorderSuggestion, error) {
	where, args := buildSuggestionFilterClause(filter, "s.", 2)
	args = append([]interface{}{filter.OwnerID}, args...)

	limit, limitArgs := limitClause(filter.Limit, len(args)+1)
	args = append(args, limitArgs...)

	query := `SELECT ` + suggestionColumns + `
		FROM reorder_suggestions s
		JOIN products p ON p.id = s.product_id
		WHERE p.owner_id = $1` + where + `
		ORDER BY ` + urgencyRankExpr("s.urgency") + ` DESC, s.created_at DESC, s.id DESC` + limit

	suggestions := []domain.ReorderSuggestion{}
	if err := r.db.SelectContext(ctx, &suggestions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}

func (r *suggestionRepository) ApplyStatusChange(ctx context.Context, change domain.StatusChange) (*int, error) {
	var newStock *int

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// 1. Transition the suggestion, guarded on it still being pending
		res, err := tx.ExecContext(ctx, `
			UPDATE reorder_suggestions
			SET status = $1, notes = $2, updated_at = $3, updated_by = $4
			WHERE id = $5 AND status = 'pending'`,
			change.Status, change.Notes, change.At, change.UpdatedBy, change.SuggestionID,
		)
		if err != nil {
			return fmt.Errorf("failed to update suggestion status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return r.missingOrDecided(ctx, tx, change.SuggestionID)
		}

		if change.StockDelta == 0 {
			return nil
		}

		// 2. Apply the stock delta
		var stock int
		err = tx.QueryRowxContext(ctx, `
			UPDATE products
			SET current_stock = current_stock + $1, updated_at = $2
			WHERE id = $3
			RETURNING current_stock`,
			change.StockDelta, change.At, change.ProductID,
		).Scan(&stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("product %d: %w", change.ProductID, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to patch product stock: %w", err)
		}

		// 3. Audit the movement
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_movements (
				product_id, type, quantity, reference, notes, movement_date, created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			change.ProductID, domain.MovementReorderApproved, change.StockDelta,
			domain.ReorderReference(change.SuggestionID), change.Notes, change.At, change.UpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}

		newStock = &stock
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newStock, nil
}

func (r *suggestionRepository) missingOrDecided(ctx context.Context, tx *sqlx.Tx, id int64) error {
	var status domain.SuggestionStatus
	err := tx.QueryRowxContext(ctx, `SELECT status FROM reorder_suggestions WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("suggestion %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get suggestion %d: %w", id, err)
	}
	return fmt.Errorf("suggestion %d is %s: %w", id, status, domain.ErrInvalidTransition)
}
