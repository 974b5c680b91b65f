package cart

import (
	"time"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

type CartDTO struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []ItemDTO       `json:"items"`
	Deleted    bool            `json:"deleted"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type ItemDTO struct {
	ID          int64           `json:"id"`
	CartID      int64           `json:"cart_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ItemInput is one requested line. CartID is accepted for compatibility and
// always replaced by the caller's cart.
type ItemInput struct {
	CartID    *int64 `json:"cart_id,omitempty"`
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=2147483647"`
}

type ItemsInput struct {
	Items []ItemInput `json:"items" validate:"dive"`
}

// ItemChangeInput adds or removes units of a single product.
type ItemChangeInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=0,lte=2147483647"`
}

// View is a cart loaded together with its lines.
type View struct {
	Cart  *models.Cart
	Items []models.CartItem
}

func FromView(v *View) *CartDTO {
	if v == nil || v.Cart == nil {
		return nil
	}
	dto := &CartDTO{
		ID:         v.Cart.ID,
		UserID:     v.Cart.UserID,
		TotalPrice: v.Cart.TotalPrice,
		Items:      make([]ItemDTO, 0, len(v.Items)),
		Deleted:    v.Cart.Deleted,
		CreatedAt:  v.Cart.CreatedAt,
		UpdatedAt:  v.Cart.UpdatedAt,
	}
	for _, item := range v.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:          item.ID,
			CartID:      item.CartID,
			ProductID:   item.ProductID,
			ProductName: item.Product.DisplayName(),
			UnitPrice:   item.Product.Price,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal(),
		})
	}
	return dto
}
