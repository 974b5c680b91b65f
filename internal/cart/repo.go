package cart

import (
	"context"
	"errors"

	"github.com/angelmondragon/shopeasy-backend/internal/repo"
	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists carts and their line items.
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

// GetOrCreate returns the user's cart, creating an empty one on first use. A
// concurrent creator that loses the insert race re-reads the winning row.
func (r *Repository) GetOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := r.findByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.Translate(err, "load cart", "")
	}

	cart = &models.Cart{UserID: userID, TotalPrice: decimal.Zero}
	res := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(cart)
	if res.Error != nil {
		return nil, repo.Translate(res.Error, "create cart", "")
	}
	if res.RowsAffected == 0 {
		existing, findErr := r.findByUser(ctx, userID)
		if findErr != nil {
			return nil, repo.Translate(findErr, "load cart", "")
		}
		return existing, nil
	}
	return cart, nil
}

func (r *Repository) findByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListItems returns the cart's lines in storage order with products preloaded.
func (r *Repository) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, repo.Translate(err, "list cart items", "")
	}
	return items, nil
}

func (r *Repository) CreateItems(ctx context.Context, items []models.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	return repo.Translate(r.DB(ctx).Omit("Product").Create(&items).Error, "create cart items", "")
}

func (r *Repository) DeleteItems(ctx context.Context, cartID int64) error {
	return repo.Translate(r.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error, "clear cart items", "")
}

// FindItemByProduct returns the oldest line for productID, or nil when the cart has none.
func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Order("id ASC").
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, repo.Translate(err, "find cart item", "")
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	return repo.Translate(r.DB(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", quantity).Error, "update cart item", "")
}

func (r *Repository) DeleteItem(ctx context.Context, itemID int64) error {
	return repo.Translate(r.DB(ctx).Delete(&models.CartItem{}, itemID).Error, "delete cart item", "")
}

// UpdateTotal stores the cached total.
func (r *Repository) UpdateTotal(ctx context.Context, cartID int64, total decimal.Decimal) error {
	return repo.Translate(r.DB(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Update("total_price", total).Error, "update cart total", "")
}

// ExistingProductIDs returns which of ids are present in the products table.
func (r *Repository) ExistingProductIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var rows []int64
	if err := r.DB(ctx).Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &rows).Error; err != nil {
		return nil, repo.Translate(err, "check products", "")
	}
	for _, id := range rows {
		found[id] = true
	}
	return found, nil
}
