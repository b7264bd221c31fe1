package postgres

import (
	"context"
	"fmt"
	"time"

	"stockAgent/domain"

	"gorm.io/gorm"
)

type SalesRepository struct {
	DB *gorm.DB
}

func NewSalesRepository(db *gorm.DB) *SalesRepository {
	return &SalesRepository{DB: db}
}

type dailyTotal struct {
	Day      string  `gorm:"column:day"`
	Quantity float64 `gorm:"column:quantity"`
}

// DATE() and CAST work the same on postgres and sqlite. Postgres sessions
// run with TimeZone=UTC, so the day boundary is UTC on both.
const dailySalesQuery = `
	SELECT CAST(DATE(s.created_at) AS TEXT) AS day,
		CAST(SUM(si.quantity) AS DOUBLE PRECISION) AS quantity
	FROM sale_items si
	JOIN sales s ON si.sale_id = s.id
	WHERE si.item_id = ?%s
	GROUP BY CAST(DATE(s.created_at) AS TEXT)
	ORDER BY day`

// DailySales returns per-day sold quantities of the item since the given time.
func (r *SalesRepository) DailySales(ctx context.Context, itemID string, since time.Time) ([]domain.DailySales, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []dailyTotal
	err := r.DB.WithContext(ctx).
		Raw(fmt.Sprintf(dailySalesQuery, " AND s.created_at >= ?"), itemID, since.UTC()).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}

	return toDailySales(rows)
}

// AllDailySales is DailySales without a window.
func (r *SalesRepository) AllDailySales(ctx context.Context, itemID string) ([]domain.DailySales, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []dailyTotal
	err := r.DB.WithContext(ctx).
		Raw(fmt.Sprintf(dailySalesQuery, ""), itemID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query sales history: %w", err)
	}

	return toDailySales(rows)
}

func toDailySales(rows []dailyTotal) ([]domain.DailySales, error) {
	out := make([]domain.DailySales, 0, len(rows))
	for _, row := range rows {
		day, err := time.Parse(time.DateOnly, row.Day)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sales day %q: %w", row.Day, err)
		}
		out = append(out, domain.DailySales{Day: day, Quantity: row.Quantity})
	}
	return out, nil
}
