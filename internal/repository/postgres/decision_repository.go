package postgres

import (
	"context"
	"fmt"

	"stockAgent/domain"

	"gorm.io/gorm"
)

const (
	defaultDecisionLimit = 50
	maxDecisionLimit     = 500
)

type DecisionRepository struct {
	DB *gorm.DB
}

func NewDecisionRepository(db *gorm.DB) *DecisionRepository {
	return &DecisionRepository{DB: db}
}

// Record inserts one decision. Decisions are never updated.
func (r *DecisionRepository) Record(ctx context.Context, d domain.Decision) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&d).Error; err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}

	return nil
}

// List returns decisions matching the filter, newest first.
func (r *DecisionRepository) List(ctx context.Context, f domain.DecisionFilter) ([]domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultDecisionLimit
	}
	if limit > maxDecisionLimit {
		limit = maxDecisionLimit
	}

	q := r.DB.WithContext(ctx).Model(&domain.Decision{})
	if f.Kind != "" {
		q = q.Where("decision_type = ?", f.Kind)
	}
	if f.ItemID != "" {
		q = q.Where("related_item_id = ?", f.ItemID)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}

	var out []domain.Decision
	if err := q.Order("created_at DESC, id").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}

	return out, nil
}

// Ping checks the store connection.
func (r *DecisionRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping store: %w", err)
	}
	return nil
}
