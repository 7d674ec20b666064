package models

import "github.com/shopspring/decimal"

// OrderItem is a line of an Order. It is written together with its order and
// never changed afterwards.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey"`
	OrderID      uint            `gorm:"not null;index"`
	ItemName     string          `gorm:"type:varchar(100);not null"`
	Quantity     int             `gorm:"not null"`
	PricePerItem decimal.Decimal `gorm:"type:decimal(6,2);not null"`
}
