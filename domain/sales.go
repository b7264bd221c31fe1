package domain

import "time"

type Sale struct {
	ID        string    `gorm:"primaryKey;column:id;type:text"`
	InvoiceID string    `gorm:"column:invoice_id;type:text;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (Sale) TableName() string {
	return "sales"
}

type SaleItem struct {
	ID       string `gorm:"primaryKey;column:id;type:text"`
	SaleID   string `gorm:"column:sale_id;type:text;not null;index"`
	ItemID   string `gorm:"column:item_id;type:text;not null;index"`
	Quantity int    `gorm:"column:quantity;not null"`
}

func (SaleItem) TableName() string {
	return "sale_items"
}

// DailySales is the total quantity of one item sold on one UTC calendar day.
type DailySales struct {
	Day      time.Time `json:"day"`
	Quantity float64   `json:"quantity"`
}
