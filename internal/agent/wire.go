package agent

import (
	"context"
	"time"

	"stockAgent/business/decision"
	"stockAgent/business/forecast"
	"stockAgent/business/ranking"
	psqlRepo "stockAgent/internal/repository/postgres"
	redisRepo "stockAgent/internal/repository/redis"
	"stockAgent/pkg/config"
	"stockAgent/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const trainTimeout = time.Minute

// Components are the long-lived pieces of one agent process.
type Components struct {
	Engine     *decision.Engine
	Decisions  *psqlRepo.DecisionRepository
	Forecaster *forecast.Forecaster
	Ranker     *ranking.SupplierRanker
}

// Build wires repositories, the forecaster, the ranker and the engine. The
// ranker trains once here. rdb may be nil; decisions are then written
// without de-duplication.
func Build(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Components {
	inventoryRepo := psqlRepo.NewInventoryRepository(db)
	salesRepo := psqlRepo.NewSalesRepository(db)
	taskRepo := psqlRepo.NewTaskRepository(db)
	supplierRepo := psqlRepo.NewSupplierRepository(db)
	decisionRepo := psqlRepo.NewDecisionRepository(db)

	var decisionLog decision.DecisionLog = decisionRepo
	if rdb != nil && cfg.Agent.DecisionDedupTTL > 0 {
		decisionLog = redisRepo.NewDedupDecisionLog(decisionRepo, rdb, cfg.Agent.DecisionDedupTTL)
		logger.Info("decision_dedup_enabled", "ttl", cfg.Agent.DecisionDedupTTL)
	}

	forecaster := forecast.NewForecaster(salesRepo, ForecastConfig(cfg.Agent))

	trainCtx, cancel := context.WithTimeout(ctx, trainTimeout)
	ranker := ranking.NewSupplierRanker(trainCtx, supplierRepo, supplierRepo, RankingConfig(cfg.Agent))
	cancel()
	logger.Info("supplier_ranker_ready", "learned", ranker.Learned())

	engine := decision.NewEngine(
		inventoryRepo,
		taskRepo,
		forecaster,
		ranker,
		decisionLog,
		DecisionConfig(cfg.Agent),
	).WithStoreHealth(decisionRepo)

	return &Components{
		Engine:     engine,
		Decisions:  decisionRepo,
		Forecaster: forecaster,
		Ranker:     ranker,
	}
}

func ForecastConfig(a config.AgentConfig) forecast.Config {
	c := forecast.DefaultConfig()
	c.HorizonDays = a.ForecastHorizonDays
	c.WindowDays = a.ForecastWindowDays
	c.MinDays = a.MinForecastDays
	c.CacheTTL = a.ModelCacheTTL
	return c
}

func RankingConfig(a config.AgentConfig) ranking.Config {
	c := ranking.DefaultConfig()
	c.MinTrainingRows = a.MinTrainingRows
	return c
}

func DecisionConfig(a config.AgentConfig) decision.Config {
	c := decision.DefaultConfig()
	c.LeadTimeBufferDays = a.LeadTimeBufferDays
	c.ForecastHorizonDays = a.ForecastHorizonDays
	c.BottleneckWindowDays = a.BottleneckWindowDays
	c.MinDurationSamples = a.MinDurationSamples
	c.AnomalyContamination = a.AnomalyContamination
	c.StuckAfter = a.StuckAfter
	c.ExpiryWindowDays = a.ExpiryWindowDays
	c.Urgency.CriticalCoverDays = a.CriticalCoverDays
	return c
}
