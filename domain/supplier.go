package domain

import "time"

// DefaultReliability replaces a missing supplier reliability score.
const DefaultReliability = 70.0

type Supplier struct {
	ID               string   `gorm:"primaryKey;column:id;type:text"`
	Name             string   `gorm:"column:name;type:text;not null"`
	ReliabilityScore *float64 `gorm:"column:reliability_score"`
	Price            float64  `gorm:"column:price;not null"`
	LeadTimeDays     float64  `gorm:"column:lead_time_days;not null"`
	ItemID           *string  `gorm:"column:item_id;type:text;index"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

type PurchaseHistory struct {
	ID                string    `gorm:"primaryKey;column:id;type:text"`
	SupplierID        string    `gorm:"column:supplier_id;type:text;not null"`
	ItemID            string    `gorm:"column:item_id;type:text"`
	Price             float64   `gorm:"column:price"`
	LeadTimeDays      float64   `gorm:"column:lead_time_days"`
	ReliabilityScore  *float64  `gorm:"column:reliability_score"`
	UrgencyLevel      float64   `gorm:"column:urgency_level"`
	ActualDelayDays   float64   `gorm:"column:actual_delay_days"`
	SatisfactionScore *float64  `gorm:"column:satisfaction_score"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (PurchaseHistory) TableName() string {
	return "purchase_history"
}

type Urgency string

const (
	UrgencyNormal Urgency = "NORMAL"
	UrgencyUrgent Urgency = "URGENT"
)

// Level maps an urgency onto the 1-10 scale recorded in purchase history.
// Unknown urgencies behave like NORMAL.
func (u Urgency) Level() float64 {
	switch u {
	case UrgencyUrgent:
		return 9
	default:
		return 5
	}
}

// SupplierCandidate is a supplier associated with the item being restocked.
type SupplierCandidate struct {
	SupplierID       string   `gorm:"column:supplier_id"`
	Name             string   `gorm:"column:name"`
	ReliabilityScore *float64 `gorm:"column:reliability_score"`
	Price            float64  `gorm:"column:price"`
	LeadTimeDays     float64  `gorm:"column:lead_time_days"`
}

type SupplierDetails struct {
	Price                float64 `json:"price"`
	LeadTimeDays         float64 `json:"lead_time_days"`
	Reliability          float64 `json:"reliability"`
	ReliabilityDefaulted bool    `json:"reliability_defaulted"`
}

type RankedSupplier struct {
	SupplierID string          `json:"supplier_id"`
	Name       string          `json:"name"`
	Score      float64         `json:"score"`
	Details    SupplierDetails `json:"details"`
}

type RankingStrategy string

const (
	RankingLearned   RankingStrategy = "learned_model"
	RankingRuleBased RankingStrategy = "rule_based"
)

// SupplierRanking is an ordered candidate list tagged with the strategy that scored it.
type SupplierRanking struct {
	Suppliers []RankedSupplier `json:"suppliers"`
	Strategy  RankingStrategy  `json:"strategy"`
}
