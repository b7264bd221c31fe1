package postgres

import (
	"context"
	"fmt"
	"time"

	"stockAgent/domain"

	"gorm.io/gorm"
)

type InventoryRepository struct {
	DB *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

// InvoiceItems returns the distinct items sold on the invoice.
func (r *InventoryRepository) InvoiceItems(ctx context.Context, invoiceID string) ([]domain.ItemSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var items []domain.ItemSnapshot
	err := r.DB.WithContext(ctx).Raw(`
		SELECT DISTINCT i.id AS item_id, i.name, i.reorder_point, i.cost_price
		FROM sale_items si
		JOIN sales s ON si.sale_id = s.id
		JOIN items i ON si.item_id = i.id
		WHERE s.invoice_id = ?
		ORDER BY i.id`, invoiceID).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}

	return items, nil
}

// CurrentStock sums batch quantities, ignoring batches that expired before
// the start of asOf's day.
func (r *InventoryRepository) CurrentStock(ctx context.Context, itemID string, asOf time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	u := asOf.UTC()
	today := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	var total int64
	err := r.DB.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM inventory_batches
		WHERE item_id = ?
		AND (expiry_date IS NULL OR expiry_date >= ?)`, itemID, today).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query current stock: %w", err)
	}

	return total, nil
}

// ExpiringBatches lists batches with stock left that expire within [from, to].
func (r *InventoryRepository) ExpiringBatches(ctx context.Context, from, to time.Time) ([]domain.ExpiringBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var batches []domain.ExpiringBatch
	err := r.DB.WithContext(ctx).Raw(`
		SELECT ib.id AS batch_id, ib.item_id, i.name AS item_name, ib.quantity, ib.expiry_date
		FROM inventory_batches ib
		JOIN items i ON ib.item_id = i.id
		WHERE ib.quantity > 0
		AND ib.expiry_date >= ? AND ib.expiry_date <= ?
		ORDER BY ib.expiry_date, ib.id`, from.UTC(), to.UTC()).
		Scan(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring batches: %w", err)
	}

	return batches, nil
}
