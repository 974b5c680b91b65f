package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
	"github.com/angelmondragon/shopeasy-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

var maxPrice = decimal.New(1, 8)

type repository interface {
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, error)
	SoftDelete(ctx context.Context, id int64) error
	CreateImage(ctx context.Context, image *models.ProductImage) error
	Exists(ctx context.Context, id int64) (bool, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
}

// Service exposes catalog operations. It returns models so the HTTP layer can
// resolve media URLs against the incoming request.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, pagination.Page, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id int64, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	AddImage(ctx context.Context, input CreateImageInput) (*models.ProductImage, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, pagination.Page, error) {
	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	rows, page := pagination.Trim(rows, params)
	return rows, page, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.Field("name", "is required")
	}
	if input.Price == nil {
		return nil, pkgerrors.Field("price", "is required")
	}
	if err := validatePrice(*input.Price); err != nil {
		return nil, err
	}
	if err := validateStock(input.Stock); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       *input.Price,
		Stock:       input.Stock,
		Image:       trimOptional(input.Image),
		ImageURL:    trimOptional(input.ImageURL),
		OnPromotion: input.OnPromotion,
		Featured:    input.Featured,
		InCarousel:  input.InCarousel,
		CategoryID:  input.CategoryID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, product.ID)
}

// Update applies a partial edit. The image requirement only applies on
// create, so an update may clear both image sources.
func (s *service) Update(ctx context.Context, id int64, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.Field("name", "may not be blank")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if err := validateStock(*input.Stock); err != nil {
			return nil, err
		}
		product.Stock = *input.Stock
	}
	if input.Image.Valid {
		product.Image = trimOptional(input.Image.Value)
	}
	if input.ImageURL.Valid {
		product.ImageURL = trimOptional(input.ImageURL.Value)
	}
	if input.OnPromotion != nil {
		product.OnPromotion = *input.OnPromotion
	}
	if input.Featured != nil {
		product.Featured = *input.Featured
	}
	if input.InCarousel != nil {
		product.InCarousel = *input.InCarousel
	}
	if input.CategoryID.Valid {
		if err := s.ensureCategory(ctx, input.CategoryID.Value); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID.Value
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *service) AddImage(ctx context.Context, input CreateImageInput) (*models.ProductImage, error) {
	image := strings.TrimSpace(input.Image)
	if image == "" {
		return nil, pkgerrors.Field("image", "is required")
	}
	ok, err := s.repo.Exists(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.Field("product_id", "product does not exist")
	}
	record := &models.ProductImage{
		ProductID: input.ProductID,
		Image:     image,
		Caption:   trimOptional(input.Caption),
	}
	if err := s.repo.CreateImage(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) ensureCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	ok, err := s.repo.CategoryExists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.Field("category_id", "category does not exist")
	}
	return nil
}

// validatePrice enforces the NUMERIC(10,2) column bounds.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.Field("price", "must be greater than or equal to 0")
	}
	if price.Exponent() < -2 && !price.Equal(price.Round(2)) {
		return pkgerrors.Field("price", "must have at most 2 decimal places")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return pkgerrors.Field("price", "must have at most 8 digits before the decimal point")
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateStock(stock int) error {
	if stock < 0 {
		return pkgerrors.Field("stock", "must be greater than or equal to 0")
	}
	if stock > models.MaxQuantity {
		return pkgerrors.Field("stock", fmt.Sprintf("must be at most %d", models.MaxQuantity))
	}
	return nil
}
