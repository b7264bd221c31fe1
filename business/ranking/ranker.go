package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"stockAgent/domain"
	"stockAgent/pkg/logger"
	"stockAgent/pkg/metrics"
)

type Config struct {
	// history rows required before the learned model is trained
	MinTrainingRows int

	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

const (
	defaultMinTrainingRows = 20
	defaultTrees           = 100
	defaultMaxDepth        = 8
	defaultMinLeaf         = 2
	defaultSeed            = 42
)

func DefaultConfig() Config {
	return Config{
		MinTrainingRows: defaultMinTrainingRows,
		Trees:           defaultTrees,
		MaxDepth:        defaultMaxDepth,
		MinLeaf:         defaultMinLeaf,
		Seed:            defaultSeed,
	}
}

type SupplierRepository interface {
	CandidatesForItem(ctx context.Context, itemID string) ([]domain.SupplierCandidate, error)
}

type PurchaseHistoryRepository interface {
	TrainingHistory(ctx context.Context) ([]domain.PurchaseHistory, error)
}

// SupplierRanker orders an item's suppliers. The model and scaler are fitted
// once in NewSupplierRanker and only read afterwards.
type SupplierRanker struct {
	suppliers SupplierRepository
	cfg       Config

	model  *randomForest
	scaler *minMaxScaler
}

func NewSupplierRanker(ctx context.Context, suppliers SupplierRepository, history PurchaseHistoryRepository, cfg Config) *SupplierRanker {
	d := DefaultConfig()
	if cfg.MinTrainingRows <= 0 {
		cfg.MinTrainingRows = d.MinTrainingRows
	}
	if cfg.Trees <= 0 {
		cfg.Trees = d.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = d.MaxDepth
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = d.MinLeaf
	}

	r := &SupplierRanker{suppliers: suppliers, cfg: cfg}
	if history == nil {
		return r
	}

	model, scaler, err := r.train(ctx, history)
	if err != nil {
		logger.Warn("supplier_model_training_failed", "error", err)
		return r
	}
	r.model, r.scaler = model, scaler
	return r
}

// Learned reports whether rankings come from the trained model.
func (r *SupplierRanker) Learned() bool {
	return r.model != nil
}

func (r *SupplierRanker) train(ctx context.Context, history PurchaseHistoryRepository) (model *randomForest, scaler *minMaxScaler, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			model, scaler, err = nil, nil, fmt.Errorf("training panic: %v", rec)
		}
	}()

	rows, err := history.TrainingHistory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load purchase history: %w", err)
	}
	if len(rows) < r.cfg.MinTrainingRows {
		logger.Info("supplier_model_skipped",
			"rows", len(rows),
			"min_rows", r.cfg.MinTrainingRows,
		)
		return nil, nil, nil
	}

	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, h := range rows {
		rel := domain.DefaultReliability
		if h.ReliabilityScore != nil {
			rel = *h.ReliabilityScore
		}
		X[i] = []float64{h.Price, h.LeadTimeDays, rel, h.UrgencyLevel}
		y[i] = trainingTarget(h)
	}

	scaler, err = fitMinMax(X)
	if err != nil {
		return nil, nil, err
	}
	Xs := scaler.transformAll(X)

	model, err = fitForest(Xs, y, forestParams{
		Trees:    r.cfg.Trees,
		MaxDepth: r.cfg.MaxDepth,
		MinLeaf:  r.cfg.MinLeaf,
		Seed:     r.cfg.Seed,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fit forest: %w", err)
	}

	for _, x := range Xs {
		if p := model.predict(x); math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, nil, fmt.Errorf("non-finite training prediction")
		}
	}

	logger.Info("supplier_model_trained", "rows", len(rows), "trees", r.cfg.Trees)
	return model, scaler, nil
}

// trainingTarget is the recorded satisfaction, or a delay-based performance
// score when none was recorded.
func trainingTarget(h domain.PurchaseHistory) float64 {
	if h.SatisfactionScore != nil {
		return *h.SatisfactionScore
	}
	return math.Max(0, 100-10*h.ActualDelayDays)
}

// RankSuppliers scores the item's suppliers for the given urgency, best
// first. An item without suppliers yields an empty ranking.
func (r *SupplierRanker) RankSuppliers(ctx context.Context, itemID string, urgency domain.Urgency) (domain.SupplierRanking, error) {
	cands, err := r.suppliers.CandidatesForItem(ctx, itemID)
	if err != nil {
		return domain.SupplierRanking{}, fmt.Errorf("load suppliers: %w", err)
	}

	strategy := domain.RankingRuleBased
	var scores []float64
	if r.model != nil {
		if s, ok := r.learnedScores(cands, urgency); ok {
			scores, strategy = s, domain.RankingLearned
		} else {
			logger.Warn("supplier_model_prediction_failed", "item_id", itemID)
		}
	}
	if scores == nil {
		scores = ruleScores(cands, urgency)
	}

	out := make([]domain.RankedSupplier, len(cands))
	for i, c := range cands {
		rel, defaulted := reliabilityOf(c)
		out[i] = domain.RankedSupplier{
			SupplierID: c.SupplierID,
			Name:       c.Name,
			Score:      scores[i],
			Details: domain.SupplierDetails{
				Price:                c.Price,
				LeadTimeDays:         c.LeadTimeDays,
				Reliability:          rel,
				ReliabilityDefaulted: defaulted,
			},
		}
	}
	sortRanked(out)

	metrics.RankingStrategyTotal.WithLabelValues(string(strategy)).Inc()
	logger.Debug("suppliers_ranked",
		"item_id", itemID,
		"urgency", urgency,
		"strategy", strategy,
		"candidates", len(out),
	)

	return domain.SupplierRanking{Suppliers: out, Strategy: strategy}, nil
}

func (r *SupplierRanker) learnedScores(cands []domain.SupplierCandidate, urgency domain.Urgency) ([]float64, bool) {
	out := make([]float64, len(cands))
	for i, c := range cands {
		rel, _ := reliabilityOf(c)
		x := r.scaler.transform([]float64{c.Price, c.LeadTimeDays, rel, urgency.Level()})
		p := r.model.predict(x)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, false
		}
		out[i] = p
	}
	return out, true
}

// sortRanked orders by descending score, then ascending supplier id.
func sortRanked(s []domain.RankedSupplier) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].SupplierID < s[j].SupplierID
	})
}
