package decision

import (
	"fmt"
	"strconv"
	"time"

	"stockAgent/domain"
	"stockAgent/pkg/logger"
)

func (c *cycle) detectDurationAnomalies() error {
	cfg := c.e.cfg
	since := c.now.AddDate(0, 0, -cfg.BottleneckWindowDays)

	samples, err := c.e.tasks.TaskDurations(c.ctx, since, c.now)
	if err != nil {
		return fmt.Errorf("load task durations: %w", err)
	}
	if len(samples) < cfg.MinDurationSamples {
		logger.Debug("anomaly_detection_skipped",
			"trace_id", c.traceID,
			"samples", len(samples),
			"min_samples", cfg.MinDurationSamples,
		)
		return nil
	}

	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.DurationMinutes
	}

	forest, err := fitIsolationForest(xs, cfg.AnomalyTrees, cfg.AnomalySubsample, cfg.AnomalySeed)
	if err != nil {
		return fmt.Errorf("fit isolation forest: %w", err)
	}
	flagged, scores, threshold := forest.outliers(xs, cfg.AnomalyContamination, cfg.AnomalyScoreThreshold)

	logger.Info("bottlenecks_detected",
		"trace_id", c.traceID,
		"kind", domain.DecisionBottleneckAnomaly,
		"samples", len(samples),
		"count", len(flagged),
		"threshold", threshold,
	)

	for _, i := range flagged {
		s := samples[i]
		staff := domain.StaffLabel(s.StaffName)
		c.emit(domain.DecisionBottleneckAnomaly, nil,
			fmt.Sprintf("Bottleneck: Task '%s' took %.0f minutes, far longer than recent tasks. Suggested Action: Reassign pending work from %s.",
				s.Title, s.DurationMinutes, staff),
			map[string]any{
				"task_id":          s.TaskID,
				"title":            s.Title,
				"status":           s.Status,
				"staff_id":         s.StaffID,
				"current_staff":    staff,
				"duration_minutes": s.DurationMinutes,
				"anomaly_score":    scores[i],
				"score_threshold":  threshold,
			},
		)
	}
	return nil
}

func (c *cycle) detectStuckTasks() error {
	stuckAfter := c.e.cfg.StuckAfter

	tasks, err := c.e.tasks.StuckTasks(c.ctx, c.now.Add(-stuckAfter))
	if err != nil {
		return fmt.Errorf("load stuck tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	logger.Info("bottlenecks_detected",
		"trace_id", c.traceID,
		"kind", domain.DecisionBottleneckStuck,
		"count", len(tasks),
	)

	for _, t := range tasks {
		staff := domain.StaffLabel(t.StaffName)
		c.emit(domain.DecisionBottleneckStuck, nil,
			fmt.Sprintf("Bottleneck: Task '%s' is stuck in %s for > %s days. Suggested Action: Reassign from %s.",
				t.Title, t.Status, formatDays(stuckAfter), staff),
			map[string]any{
				"task_id":       t.TaskID,
				"title":         t.Title,
				"status":        t.Status,
				"current_staff": staff,
				"updated_at":    t.UpdatedAt.UTC().Format(time.RFC3339),
			},
		)
	}
	return nil
}

func formatDays(d time.Duration) string {
	return strconv.FormatFloat(d.Hours()/24, 'f', -1, 64)
}
