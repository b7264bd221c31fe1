package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"stockAgent/domain"
	"stockAgent/pkg/logger"
	"stockAgent/pkg/metrics"
)

type Config struct {
	// default horizon when callers pass a non-positive one
	HorizonDays int
	// trailing window read for the seasonal model
	WindowDays int
	// distinct sale-days required before the seasonal model is tried
	MinDays int
	CacheTTL time.Duration

	WeeklyOrder       int
	YearlyOrder       int
	HolidayWindowDays int
	// ridge penalty on seasonal/holiday coefficients
	SeasonalityPrior float64
}

const (
	defaultHorizonDays       = 7
	defaultWindowDays        = 90
	defaultMinDays           = 10
	defaultCacheTTL          = 6 * time.Hour
	defaultWeeklyOrder       = 3
	defaultYearlyOrder       = 3
	defaultHolidayWindowDays = 1
	defaultSeasonalityPrior  = 1.0
)

func DefaultConfig() Config {
	return Config{
		HorizonDays:       defaultHorizonDays,
		WindowDays:        defaultWindowDays,
		MinDays:           defaultMinDays,
		CacheTTL:          defaultCacheTTL,
		WeeklyOrder:       defaultWeeklyOrder,
		YearlyOrder:       defaultYearlyOrder,
		HolidayWindowDays: defaultHolidayWindowDays,
		SeasonalityPrior:  defaultSeasonalityPrior,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.WindowDays <= 0 {
		c.WindowDays = d.WindowDays
	}
	if c.MinDays <= 0 {
		c.MinDays = d.MinDays
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.WeeklyOrder <= 0 {
		c.WeeklyOrder = d.WeeklyOrder
	}
	if c.YearlyOrder <= 0 {
		c.YearlyOrder = d.YearlyOrder
	}
	if c.HolidayWindowDays < 0 {
		c.HolidayWindowDays = d.HolidayWindowDays
	}
	if c.SeasonalityPrior <= 0 {
		c.SeasonalityPrior = d.SeasonalityPrior
	}
	return c
}

// SalesRepository reads per-day sold quantities for an item.
type SalesRepository interface {
	DailySales(ctx context.Context, itemID string, since time.Time) ([]domain.DailySales, error)
	AllDailySales(ctx context.Context, itemID string) ([]domain.DailySales, error)
}

type Forecaster struct {
	repo  SalesRepository
	cfg   Config
	cache *modelCache
	now   func() time.Time
}

func NewForecaster(repo SalesRepository, cfg Config) *Forecaster {
	cfg = cfg.withDefaults()
	return &Forecaster{
		repo:  repo,
		cfg:   cfg,
		cache: newModelCache(cfg.CacheTTL),
		now:   time.Now,
	}
}

// WithClock overrides the forecaster clock; used by the engine tests.
func (f *Forecaster) WithClock(now func() time.Time) *Forecaster {
	f.now = now
	return f
}

// PredictDemand returns the predicted average daily demand over the next
// horizonDays days. It never fails: any problem with the seasonal model falls
// back to the simple average of recorded sale-days.
func (f *Forecaster) PredictDemand(ctx context.Context, itemID string, horizonDays int) (out domain.DemandForecast) {
	if horizonDays <= 0 {
		horizonDays = f.cfg.HorizonDays
	}
	defer func() {
		metrics.ForecastStrategyTotal.WithLabelValues(string(out.Strategy)).Inc()
	}()

	v, err := f.seasonalForecast(ctx, itemID, horizonDays)
	if err != nil {
		if !errors.Is(err, errInsufficientHistory) {
			logger.Warn("forecasting_error",
				"item_id", itemID,
				"horizon_days", horizonDays,
				"error", err,
			)
		}
		return domain.DemandForecast{
			Value:    f.SimpleAverageFallback(ctx, itemID),
			Strategy: domain.ForecastSimpleAverage,
		}
	}

	return domain.DemandForecast{
		Value:    math.Max(0, v),
		Strategy: domain.ForecastSeasonal,
	}
}

func (f *Forecaster) seasonalForecast(ctx context.Context, itemID string, horizon int) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("seasonal model panic: %v", r)
		}
	}()

	since := truncateDay(f.now()).AddDate(0, 0, -f.cfg.WindowDays)
	rows, err := f.repo.DailySales(ctx, itemID, since)
	if err != nil {
		return 0, fmt.Errorf("read daily sales: %w", err)
	}

	if distinctDays(rows) < f.cfg.MinDays {
		return 0, errInsufficientHistory
	}

	series, start := buildSeries(rows)
	fp := fingerprintOf(series, start, distinctDays(rows))

	model, err := f.cache.getOrFit(itemID, fp, f.now(), func() (*seasonalModel, error) {
		return fitSeasonal(series, start, f.cfg)
	})
	if err != nil {
		return 0, err
	}

	return model.meanForecast(horizon)
}

// SimpleAverageFallback is the mean of per-day sold quantities over every
// recorded sale-day of the item. It returns 0 when there is no history or the
// read fails.
func (f *Forecaster) SimpleAverageFallback(ctx context.Context, itemID string) (avg float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("simple_average_failed", "item_id", itemID, "panic", r)
			avg = 0
		}
	}()

	rows, err := f.repo.AllDailySales(ctx, itemID)
	if err != nil {
		logger.Error("simple_average_failed", "item_id", itemID, "error", err)
		return 0
	}
	if len(rows) == 0 {
		return 0
	}

	byDay := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		byDay[truncateDay(r.Day)] += r.Quantity
	}

	total := 0.0
	for _, q := range byDay {
		total += q
	}
	avg = total / float64(len(byDay))
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0
	}
	return math.Max(0, avg)
}

func distinctDays(rows []domain.DailySales) int {
	seen := make(map[time.Time]struct{}, len(rows))
	for _, r := range rows {
		seen[truncateDay(r.Day)] = struct{}{}
	}
	return len(seen)
}
