package orders

import (
	"context"

	"github.com/angelmondragon/shopeasy-backend/internal/repo"
	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
	"github.com/angelmondragon/shopeasy-backend/pkg/pagination"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return repo.Translate(r.DB(ctx).Create(order).Error, "create order", "")
}

// ListByUser returns the user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, error) {
	params = params.Normalize()
	var rows []models.Order
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Offset(params.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, repo.Translate(err, "list orders", "")
	}
	return rows, nil
}

// FindForUser loads an order only when it belongs to userID.
func (r *Repository) FindForUser(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		return nil, repo.Translate(err, "load order", "")
	}
	return &order, nil
}

func (r *Repository) FindByID(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, orderID).Error; err != nil {
		return nil, repo.Translate(err, "load order", "")
	}
	return &order, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	res := r.DB(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return repo.Translate(res.Error, "update order status", "")
	}
	if res.RowsAffected == 0 {
		return repo.NotFound("order")
	}
	return nil
}
