package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) IsValid() bool {
	return t == OrderTypePickup || t == OrderTypeDelivery
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"type:varchar(100);not null"`
	Phone          string          `gorm:"type:varchar(20);not null"`
	SpecialRequest string          `gorm:"type:text"`
	OrderType      OrderType       `gorm:"type:varchar(20);not null;index"`
	Street         string          `gorm:"type:varchar(255)"`
	City           string          `gorm:"type:varchar(100)"`
	State          string          `gorm:"type:varchar(50)"`
	Zip            string          `gorm:"type:varchar(20)"`
	PaymentMethod  string          `gorm:"type:varchar(20)"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt      time.Time       `gorm:"<-:create;not null;index"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// DeliveryAddress is derived from the address columns and only exists for
// delivery orders.
func (o *Order) DeliveryAddress() *string {
	if o.OrderType != OrderTypeDelivery {
		return nil
	}
	addr := fmt.Sprintf("%s, %s, %s %s", o.Street, o.City, o.State, o.Zip)
	return &addr
}
