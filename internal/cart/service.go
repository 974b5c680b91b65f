package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultQuantity = 1

var quantityTooLarge = fmt.Sprintf("must be at most %d", models.MaxQuantity)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations keyed by the owning user.
type Service interface {
	Get(ctx context.Context, userID int64) (*View, error)
	CreateCart(ctx context.Context, userID int64, items []ItemInput) (*View, error)
	ReplaceItems(ctx context.Context, userID int64, items []ItemInput) (*View, error)
	AddItem(ctx context.Context, userID int64, input ItemChangeInput) (*View, error)
	RemoveItem(ctx context.Context, userID int64, input ItemChangeInput) (*View, error)
	RecomputeTotal(ctx context.Context, userID int64) (*View, error)
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, userID int64) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return &View{Cart: cart, Items: items}, nil
}

// CreateCart gets or creates the cart, appends one line per input and refreshes the total.
func (s *service) CreateCart(ctx context.Context, userID int64, items []ItemInput) (*View, error) {
	return s.mutate(ctx, userID, "cart.create", func(r *Repository, cart *models.Cart) error {
		lines, err := s.buildLines(ctx, r, cart.ID, items)
		if err != nil {
			return err
		}
		return r.CreateItems(ctx, lines)
	})
}

// ReplaceItems drops every line of the cart, writes the inputs and refreshes the total.
func (s *service) ReplaceItems(ctx context.Context, userID int64, items []ItemInput) (*View, error) {
	return s.mutate(ctx, userID, "cart.replace_items", func(r *Repository, cart *models.Cart) error {
		lines, err := s.buildLines(ctx, r, cart.ID, items)
		if err != nil {
			return err
		}
		if err := r.DeleteItems(ctx, cart.ID); err != nil {
			return err
		}
		return r.CreateItems(ctx, lines)
	})
}

// AddItem increments the first line holding the product, or creates one.
func (s *service) AddItem(ctx context.Context, userID int64, input ItemChangeInput) (*View, error) {
	qty := input.Quantity
	if qty == 0 {
		qty = defaultQuantity
	}
	if err := checkQuantity("quantity", qty); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, "cart.add_item", func(r *Repository, cart *models.Cart) error {
		existing, err := r.FindItemByProduct(ctx, cart.ID, input.ProductID)
		if err != nil {
			return err
		}
		if existing != nil {
			if qty > models.MaxQuantity-existing.Quantity {
				return pkgerrors.Field("quantity", quantityTooLarge)
			}
			return r.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+qty)
		}
		lines, err := s.buildLines(ctx, r, cart.ID, []ItemInput{{ProductID: input.ProductID, Quantity: qty}})
		if err != nil {
			return err
		}
		return r.CreateItems(ctx, lines)
	})
}

// RemoveItem decrements the product's line and deletes it once nothing is left.
func (s *service) RemoveItem(ctx context.Context, userID int64, input ItemChangeInput) (*View, error) {
	qty := input.Quantity
	if qty == 0 {
		qty = defaultQuantity
	}
	if err := checkQuantity("quantity", qty); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, "cart.remove_item", func(r *Repository, cart *models.Cart) error {
		existing, err := r.FindItemByProduct(ctx, cart.ID, input.ProductID)
		if err != nil {
			return err
		}
		if existing == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
		}
		if remaining := existing.Quantity - qty; remaining > 0 {
			return r.UpdateItemQuantity(ctx, existing.ID, remaining)
		}
		return r.DeleteItem(ctx, existing.ID)
	})
}

func (s *service) RecomputeTotal(ctx context.Context, userID int64) (*View, error) {
	return s.mutate(ctx, userID, "cart.recompute", func(*Repository, *models.Cart) error { return nil })
}

// mutate runs fn against the user's cart in one transaction and always ends
// by recomputing the cached total.
func (s *service) mutate(ctx context.Context, userID int64, op string, fn func(r *Repository, cart *models.Cart) error) (*View, error) {
	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		cart, err := r.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(r, cart); err != nil {
			return err
		}
		view, err = RecomputeTotal(ctx, r, cart)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
		}
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithCartID(ctx, view.Cart.ID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{"items": len(view.Items), "total_price": view.Cart.TotalPrice.StringFixed(2)})
		s.logg.Info(logCtx, op)
	}
	return view, nil
}

// RecomputeTotal sums quantity times current price over the cart's lines and
// persists the result. An empty cart totals zero. Running it twice yields the same total.
func RecomputeTotal(ctx context.Context, r *Repository, cart *models.Cart) (*View, error) {
	items, err := r.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	total := SumItems(items)
	if total.GreaterThanOrEqual(models.MaxTotalPrice) {
		return nil, pkgerrors.Field("total_price", "cart total must be less than "+models.MaxTotalPrice.StringFixed(0))
	}
	if err := r.UpdateTotal(ctx, cart.ID, total); err != nil {
		return nil, err
	}
	cart.TotalPrice = total
	return &View{Cart: cart, Items: items}, nil
}

// SumItems is the authoritative cart total. It never reads the cached column.
func SumItems(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}

func (s *service) buildLines(ctx context.Context, r *Repository, cartID int64, inputs []ItemInput) ([]models.CartItem, error) {
	ids := make([]int64, 0, len(inputs))
	for i, in := range inputs {
		if in.ProductID <= 0 {
			return nil, pkgerrors.Field(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if err := checkQuantity(fmt.Sprintf("items[%d].quantity", i), in.Quantity); err != nil {
			return nil, err
		}
		ids = append(ids, in.ProductID)
	}
	existing, err := r.ExistingProductIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.CartItem, 0, len(inputs))
	for i, in := range inputs {
		if !existing[in.ProductID] {
			return nil, pkgerrors.Field(fmt.Sprintf("items[%d].product_id", i), "product does not exist")
		}
		qty := in.Quantity
		if qty == 0 {
			qty = defaultQuantity
		}
		lines = append(lines, models.CartItem{CartID: cartID, ProductID: in.ProductID, Quantity: qty})
	}
	return lines, nil
}

func checkQuantity(field string, qty int) error {
	if qty < 0 {
		return pkgerrors.Field(field, "must be greater than 0")
	}
	if qty > models.MaxQuantity {
		return pkgerrors.Field(field, quantityTooLarge)
	}
	return nil
}
