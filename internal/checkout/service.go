package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shopeasy-backend/internal/cart"
	"github.com/angelmondragon/shopeasy-backend/internal/orders"
	"github.com/angelmondragon/shopeasy-backend/internal/products"
	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/logger"
	"github.com/angelmondragon/shopeasy-backend/pkg/metrics"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service turns a user's cart into an order.
type Service interface {
	CreateOrder(ctx context.Context, userID int64) (*models.Order, error)
}

type service struct {
	tx          txRunner
	cartRepo    *cart.Repository
	productRepo *products.Repository
	ordersRepo  *orders.Repository
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the checkout service. A nil metrics recorder disables metrics.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	productRepo *products.Repository,
	ordersRepo *orders.Repository,
	recorder *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		ordersRepo:  ordersRepo,
		metrics:     recorder,
		logg:        logg,
		now:         time.Now,
	}, nil
}

// CreateOrder runs the whole checkout in one transaction. The total is
// recomputed from the current lines and the cached cart total is ignored.
// Each line is checked and then decremented with a guarded update, so an
// under-stocked product rolls back every earlier decrement. The cart and its
// lines are left as they are; a repeated call will decrement stock again.
func (s *service) CreateOrder(ctx context.Context, userID int64) (*models.Order, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	started := s.now()

	var (
		order    *models.Order
		rejected bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		record, err := cartRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		items, err := cartRepo.ListItems(ctx, record.ID)
		if err != nil {
			return err
		}
		total := cart.SumItems(items)

		for _, item := range items {
			if item.Product.Stock < item.Quantity {
				rejected = true
				return insufficientStock(item.Product)
			}
			ok, err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				rejected = true
				return insufficientStock(item.Product)
			}
		}

		order = &models.Order{
			UserID:     userID,
			TotalPrice: total,
			Status:     enums.OrderStatusPending,
		}
		return ordersRepo.Create(ctx, order)
	})

	elapsed := s.now().Sub(started)
	if err != nil {
		outcome := metrics.OutcomeError
		if rejected {
			outcome = metrics.OutcomeInsufficientStock
		} else if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		s.metrics.Observe(outcome, elapsed)
		if s.logg != nil {
			logCtx := s.logg.WithField(s.logg.WithUserID(ctx, userID), "outcome", outcome)
			if rejected {
				s.logg.Warn(logCtx, "checkout.rejected")
			} else {
				s.logg.Error(s.logg.WithFields(logCtx, pkgerrors.Dump(err).Fields()), "checkout.failed", err)
			}
		}
		return nil, err
	}

	s.metrics.Observe(metrics.OutcomeCreated, elapsed)
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID), order.ID)
		s.logg.Info(s.logg.WithField(logCtx, "total_price", order.TotalPrice.StringFixed(2)), "checkout.order_created")
	}
	return order, nil
}

func insufficientStock(product models.Product) error {
	return pkgerrors.Field("stock", "insufficient stock for product: "+product.DisplayName())
}
