package domain

import (
	"time"

	"gorm.io/datatypes"
)

type DecisionKind string

const (
	DecisionRestock           DecisionKind = "RESTOCK"
	DecisionWarning           DecisionKind = "WARNING"
	DecisionBottleneckAnomaly DecisionKind = "BOTTLENECK_DURATION_ANOMALY"
	DecisionBottleneckStuck   DecisionKind = "BOTTLENECK_STUCK"
	DecisionExpiry            DecisionKind = "EXPIRY"
)

type Trigger string

const (
	TriggerSale   Trigger = "SALE"
	TriggerCron   Trigger = "CRON"
	TriggerManual Trigger = "MANUAL"
)

// CREATE TABLE public.agent_decision_logs (
//     id               UUID PRIMARY KEY,
//     decision_type    TEXT NOT NULL,
//     related_item_id  TEXT NULL,
//     decision_text    TEXT NOT NULL,
//     context          JSONB NOT NULL DEFAULT '{}',
//     created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
// );

type Decision struct {
	ID            string            `gorm:"primaryKey;column:id;type:text" json:"id"`
	Kind          DecisionKind      `gorm:"column:decision_type;type:text;not null;index" json:"decision_type"`
	RelatedItemID *string           `gorm:"column:related_item_id;type:text;index" json:"related_item_id"`
	Text          string            `gorm:"column:decision_text;type:text;not null" json:"decision_text"`
	Context       datatypes.JSONMap `gorm:"column:context" json:"context"`
	CreatedAt     time.Time         `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Decision) TableName() string {
	return "agent_decision_logs"
}

type DecisionFilter struct {
	Kind   DecisionKind
	ItemID string
	Since  time.Time
	Limit  int
}
