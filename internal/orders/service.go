package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/angelmondragon/shopeasy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/pagination"
)

type repository interface {
	ListByUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, error)
	FindForUser(ctx context.Context, userID, orderID int64) (*models.Order, error)
	FindByID(ctx context.Context, orderID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
}

// Service reads orders and applies staff status changes. Orders are only
// created by checkout.
type Service interface {
	List(ctx context.Context, userID int64, params pagination.Params) ([]OrderDTO, pagination.Page, error)
	Get(ctx context.Context, userID, orderID int64) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID int64, input UpdateStatusInput) (*OrderDTO, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID int64, params pagination.Params) ([]OrderDTO, pagination.Page, error) {
	rows, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	rows, page := pagination.Trim(rows, params)
	return FromModels(rows), page, nil
}

func (s *service) Get(ctx context.Context, userID, orderID int64) (*OrderDTO, error) {
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

// UpdateStatus sets any known status. There are no transition rules.
func (s *service) UpdateStatus(ctx context.Context, orderID int64, input UpdateStatusInput) (*OrderDTO, error) {
	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Field("status", "must be one of pending, paid, shipped, delivered")
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}
