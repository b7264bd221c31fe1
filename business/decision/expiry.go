package decision

import (
	"fmt"

	"stockAgent/domain"
	"stockAgent/pkg/logger"
)

func (c *cycle) detectExpiry() error {
	to := c.now.AddDate(0, 0, c.e.cfg.ExpiryWindowDays)

	batches, err := c.e.inventory.ExpiringBatches(c.ctx, c.now, to)
	if err != nil {
		return fmt.Errorf("load expiring batches: %w", err)
	}

	logger.Debug("expiry_check", "trace_id", c.traceID, "batches", len(batches))

	for _, b := range batches {
		if b.Quantity <= 0 {
			continue
		}
		itemID := b.ItemID
		date := b.ExpiryDate.UTC().Format("2006-01-02")
		c.emit(domain.DecisionExpiry, &itemID,
			fmt.Sprintf("Expiry Alert: %d units of %s expiring on %s. Suggestion: Discount or Bundle.", b.Quantity, b.ItemName, date),
			map[string]any{
				"batch_id":    b.BatchID,
				"item":        b.ItemName,
				"qty":         b.Quantity,
				"expiry_date": date,
			},
		)
	}
	return nil
}
