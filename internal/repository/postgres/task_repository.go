package postgres

import (
	"context"
	"fmt"
	"time"

	"stockAgent/domain"

	"gorm.io/gorm"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

type taskSpanRow struct {
	TaskID      string            `gorm:"column:task_id"`
	Title       string            `gorm:"column:title"`
	Status      domain.TaskStatus `gorm:"column:status"`
	StaffID     *string           `gorm:"column:staff_id"`
	StaffName   *string           `gorm:"column:staff_name"`
	StartedAt   time.Time         `gorm:"column:started_at"`
	CompletedAt *time.Time        `gorm:"column:completed_at"`
}

// TaskDurations returns durations in minutes of completed or in-progress
// tasks started since startedSince. Open tasks are measured up to now.
func (r *TaskRepository) TaskDurations(ctx context.Context, startedSince, now time.Time) ([]domain.TaskDuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []taskSpanRow
	err := r.DB.WithContext(ctx).Raw(`
		SELECT t.id AS task_id, t.title, t.status, t.assigned_to AS staff_id,
			s.name AS staff_name, t.started_at, t.completed_at
		FROM tasks t
		LEFT JOIN staff s ON t.assigned_to = s.id
		WHERE t.started_at >= ?
		AND t.status IN ?
		ORDER BY t.started_at, t.id`,
		startedSince.UTC(),
		[]domain.TaskStatus{domain.TaskCompleted, domain.TaskInProgress},
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query task durations: %w", err)
	}

	out := make([]domain.TaskDuration, 0, len(rows))
	for _, row := range rows {
		end := now
		if row.CompletedAt != nil {
			end = *row.CompletedAt
		}
		minutes := end.Sub(row.StartedAt).Minutes()
		if minutes < 0 {
			continue
		}
		out = append(out, domain.TaskDuration{
			TaskID:          row.TaskID,
			Title:           row.Title,
			Status:          row.Status,
			StaffID:         row.StaffID,
			StaffName:       row.StaffName,
			DurationMinutes: minutes,
		})
	}

	return out, nil
}

// StuckTasks lists open tasks last updated before updatedBefore.
func (r *TaskRepository) StuckTasks(ctx context.Context, updatedBefore time.Time) ([]domain.StuckTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var tasks []domain.StuckTask
	err := r.DB.WithContext(ctx).Raw(`
		SELECT t.id AS task_id, t.title, t.status, s.name AS staff_name, t.updated_at
		FROM tasks t
		LEFT JOIN staff s ON t.assigned_to = s.id
		WHERE t.status IN ?
		AND t.updated_at < ?
		ORDER BY t.updated_at, t.id`,
		[]domain.TaskStatus{domain.TaskTodo, domain.TaskInProgress},
		updatedBefore.UTC(),
	).Scan(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck tasks: %w", err)
	}

	return tasks, nil
}
