package models

import "github.com/shopspring/decimal"

// Cart is the single per-user cart. TotalPrice is a cached sum that callers
// refresh explicitly after mutating items.
type Cart struct {
	Base
	UserID     int64           `gorm:"column:user_id;not null;uniqueIndex:carts_user_id_key"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(10,2);not null;default:0"`
	Items      []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// MaxTotalPrice is the exclusive upper bound of a NUMERIC(10,2) total.
var MaxTotalPrice = decimal.New(1, 8)

func (Cart) TableName() string { return "carts" }
