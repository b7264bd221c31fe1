package decision

import (
	"fmt"
	"math"

	"stockAgent/domain"
	"stockAgent/pkg/logger"

	"github.com/shopspring/decimal"
)

func (c *cycle) evaluateStockHealth(item domain.ItemSnapshot) error {
	stock, err := c.e.inventory.CurrentStock(c.ctx, item.ItemID, c.now)
	if err != nil {
		return fmt.Errorf("load current stock: %w", err)
	}
	current := float64(stock)

	forecast := c.e.forecaster.PredictDemand(c.ctx, item.ItemID, c.e.cfg.ForecastHorizonDays)
	required := forecast.Value * c.e.cfg.LeadTimeBufferDays

	logger.Info("stock_evaluation",
		"trace_id", c.traceID,
		"item", item.Name,
		"item_id", item.ItemID,
		"current", current,
		"required", required,
		"forecast_strategy", forecast.Strategy,
	)

	if current >= required {
		return nil
	}

	qty := int64(math.Ceil(required - current))
	urgency := c.e.cfg.Urgency.Classify(current, item.ReorderPoint, forecast.Value)

	ranking, err := c.e.ranker.RankSuppliers(c.ctx, item.ItemID, urgency)
	if err != nil {
		return fmt.Errorf("rank suppliers: %w", err)
	}

	itemID := item.ItemID
	if len(ranking.Suppliers) == 0 {
		c.emit(domain.DecisionWarning, &itemID,
			fmt.Sprintf("No suppliers found for %s. Please source a supplier.", item.Name),
			map[string]any{
				"qty_needed": qty,
				"urgency":    urgency,
			},
		)
		return nil
	}

	best := ranking.Suppliers[0]
	top := ranking.Suppliers[:min(c.e.cfg.TopCandidates, len(ranking.Suppliers))]
	cost := item.CostPrice.Mul(decimal.NewFromInt(qty))

	c.emit(domain.DecisionRestock, &itemID,
		fmt.Sprintf("Restock Suggestion: Order %d units of %s from %s. Score: %.2f", qty, item.Name, best.Name, best.Score),
		map[string]any{
			"qty_needed":        qty,
			"current_stock":     current,
			"required_stock":    required,
			"daily_demand":      forecast.Value,
			"urgency":           urgency,
			"forecast_strategy": forecast.Strategy,
			"ranking_strategy":  ranking.Strategy,
			"estimated_cost":    cost.StringFixed(2),
			"top_candidates":    top,
		},
	)
	return nil
}
