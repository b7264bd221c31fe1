package postgres

import (
	"context"
	"fmt"

	"stockAgent/domain"

	"gorm.io/gorm"
)

type SupplierRepository struct {
	DB *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{DB: db}
}

func (r *SupplierRepository) CandidatesForItem(ctx context.Context, itemID string) ([]domain.SupplierCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var cands []domain.SupplierCandidate
	err := r.DB.WithContext(ctx).Raw(`
		SELECT id AS supplier_id, name, reliability_score, price, lead_time_days
		FROM suppliers
		WHERE item_id = ?
		ORDER BY id`, itemID).
		Scan(&cands).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}

	return cands, nil
}

// TrainingHistory loads every purchase outcome, oldest first.
func (r *SupplierRepository) TrainingHistory(ctx context.Context) ([]domain.PurchaseHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.PurchaseHistory
	if err := r.DB.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query purchase history: %w", err)
	}

	return rows, nil
}
