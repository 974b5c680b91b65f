package models

import (
	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is an independent snapshot of a checkout. It does not reference the cart.
type Order struct {
	Base
	UserID     int64             `gorm:"column:user_id;not null;index"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
}

func (Order) TableName() string { return "orders" }
