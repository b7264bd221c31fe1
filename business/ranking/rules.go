package ranking

import "stockAgent/domain"

type ruleWeights struct {
	Price       float64
	LeadTime    float64
	Reliability float64
}

// NORMAL favours price, URGENT favours speed and reliability.
var defaultRuleWeights = map[domain.Urgency]ruleWeights{
	domain.UrgencyNormal: {Price: 0.6, LeadTime: 0.1, Reliability: 0.3},
	domain.UrgencyUrgent: {Price: 0.1, LeadTime: 0.5, Reliability: 0.4},
}

func weightsFor(u domain.Urgency) ruleWeights {
	if w, ok := defaultRuleWeights[u]; ok {
		return w
	}
	return defaultRuleWeights[domain.UrgencyNormal]
}

// ruleScores scores every candidate on a 0-100 scale. Price and lead time are
// min-max normalized across the candidate set so that the lowest value gets 1.
func ruleScores(cands []domain.SupplierCandidate, urgency domain.Urgency) []float64 {
	if len(cands) == 0 {
		return nil
	}

	minP, maxP := cands[0].Price, cands[0].Price
	minL, maxL := cands[0].LeadTimeDays, cands[0].LeadTimeDays
	for _, c := range cands[1:] {
		minP, maxP = min(minP, c.Price), max(maxP, c.Price)
		minL, maxL = min(minL, c.LeadTimeDays), max(maxL, c.LeadTimeDays)
	}

	w := weightsFor(urgency)
	out := make([]float64, len(cands))
	for i, c := range cands {
		rel, _ := reliabilityOf(c)
		s := w.Price*lowerIsBetter(c.Price, minP, maxP) +
			w.LeadTime*lowerIsBetter(c.LeadTimeDays, minL, maxL) +
			w.Reliability*rel/100
		out[i] = 100 * s
	}
	return out
}

func lowerIsBetter(v, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return (hi - v) / (hi - lo)
}

func reliabilityOf(c domain.SupplierCandidate) (float64, bool) {
	if c.ReliabilityScore == nil {
		return domain.DefaultReliability, true
	}
	return *c.ReliabilityScore, false
}
