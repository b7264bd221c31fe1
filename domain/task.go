package domain

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

type Staff struct {
	ID   string `gorm:"primaryKey;column:id;type:text"`
	Name string `gorm:"column:name;type:text;not null"`
}

func (Staff) TableName() string {
	return "staff"
}

type Task struct {
	ID          string     `gorm:"primaryKey;column:id;type:text"`
	Title       string     `gorm:"column:title;type:text;not null"`
	Status      TaskStatus `gorm:"column:status;type:text;not null"`
	AssignedTo  *string    `gorm:"column:assigned_to;type:text"`
	StartedAt   time.Time  `gorm:"column:started_at;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskDuration is one duration sample fed to the bottleneck detector.
type TaskDuration struct {
	TaskID          string     `json:"task_id"`
	Title           string     `json:"title"`
	Status          TaskStatus `json:"status"`
	StaffID         *string    `json:"staff_id"`
	StaffName       *string    `json:"staff_name"`
	DurationMinutes float64    `json:"duration_minutes"`
}

// StuckTask is an open task whose last update is older than the staleness limit.
type StuckTask struct {
	TaskID    string     `gorm:"column:task_id" json:"task_id"`
	Title     string     `gorm:"column:title" json:"title"`
	Status    TaskStatus `gorm:"column:status" json:"status"`
	StaffName *string    `gorm:"column:staff_name" json:"staff_name"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// StaffLabel returns the staff name or "Unassigned".
func StaffLabel(name *string) string {
	if name == nil || *name == "" {
		return "Unassigned"
	}
	return *name
}
