package orders

import (
	"time"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderDTO is the public order shape. TotalPrice is never accepted on input.
type OrderDTO struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Status     enums.OrderStatus `json:"status"`
	Deleted    bool              `json:"deleted"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:         o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		Status:     o.Status,
		Deleted:    o.Deleted,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
