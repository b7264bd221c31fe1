package decision

import (
	"math"

	"stockAgent/domain"
)

// UrgencyPolicy decides how severe a stock shortfall is.
type UrgencyPolicy struct {
	// below the reorder point, stock covering fewer days than this is URGENT
	CriticalCoverDays float64
}

func (p UrgencyPolicy) Classify(currentStock float64, reorderPoint int, dailyDemand float64) domain.Urgency {
	if currentStock <= 0 {
		return domain.UrgencyUrgent
	}
	if currentStock >= float64(reorderPoint) {
		return domain.UrgencyNormal
	}

	cover := math.Inf(1)
	if dailyDemand > 0 {
		cover = currentStock / dailyDemand
	}
	if cover < p.CriticalCoverDays {
		return domain.UrgencyUrgent
	}
	return domain.UrgencyNormal
}
