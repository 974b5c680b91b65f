package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
)

type repository interface {
	Create(ctx context.Context, category *models.Category) error
	List(ctx context.Context, includeDeleted bool) ([]models.Category, error)
	SoftDelete(ctx context.Context, id int64) error
}

// Service exposes category catalog operations.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("categories repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	return FromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.Field("name", "is required")
	}
	category := &models.Category{Name: input.Name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return FromModel(category), nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}
