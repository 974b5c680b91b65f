package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity or stock an INTEGER column holds.
const MaxQuantity = math.MaxInt32

// CartItem pairs a product with a quantity inside a cart.
type CartItem struct {
	Base
	CartID    int64   `gorm:"column:cart_id;not null;index"`
	ProductID int64   `gorm:"column:product_id;not null;index"`
	Quantity  int     `gorm:"column:quantity;not null;default:1"`
	Product   Product `gorm:"foreignKey:ProductID"`
}

func (CartItem) TableName() string { return "cart_items" }

// LineTotal is quantity times the preloaded product price.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
