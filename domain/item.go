package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CREATE TABLE public.items (
//     id              TEXT PRIMARY KEY,
//     name            TEXT NOT NULL,
//     reorder_point   INTEGER NOT NULL DEFAULT 0,
//     cost_price      NUMERIC(12,2),
//     selling_price   NUMERIC(12,2),
//     created_at      TIMESTAMPTZ DEFAULT NOW()
// );

type Item struct {
	ID           string          `gorm:"primaryKey;column:id;type:text"`
	Name         string          `gorm:"column:name;type:text;not null"`
	ReorderPoint int             `gorm:"column:reorder_point;default:0"`
	CostPrice    decimal.Decimal `gorm:"column:cost_price;type:decimal(12,2)"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price;type:decimal(12,2)"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
}

func (Item) TableName() string {
	return "items"
}

type InventoryBatch struct {
	ID         string     `gorm:"primaryKey;column:id;type:text"`
	ItemID     string     `gorm:"column:item_id;type:text;not null;index"`
	Quantity   int        `gorm:"column:quantity;not null"`
	ExpiryDate *time.Time `gorm:"column:expiry_date"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (InventoryBatch) TableName() string {
	return "inventory_batches"
}

// ItemSnapshot is the read model used when evaluating stock health.
type ItemSnapshot struct {
	ItemID       string          `gorm:"column:item_id" json:"item_id"`
	Name         string          `gorm:"column:name" json:"name"`
	ReorderPoint int             `gorm:"column:reorder_point" json:"reorder_point"`
	CostPrice    decimal.Decimal `gorm:"column:cost_price" json:"cost_price"`
}

// ExpiringBatch is a batch with stock left that expires inside the alert window.
type ExpiringBatch struct {
	BatchID    string    `gorm:"column:batch_id" json:"batch_id"`
	ItemID     string    `gorm:"column:item_id" json:"item_id"`
	ItemName   string    `gorm:"column:item_name" json:"item_name"`
	Quantity   int       `gorm:"column:quantity" json:"quantity"`
	ExpiryDate time.Time `gorm:"column:expiry_date" json:"expiry_date"`
}
