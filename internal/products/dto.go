package products

import (
	"strings"
	"time"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/angelmondragon/shopeasy-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// ProductDTO is the public product shape.
type ProductDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	DisplayName   string          `json:"display_name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Image         *string         `json:"image"`
	ImageURL      *string         `json:"image_url"`
	FinalImageURL *string         `json:"final_image_url"`
	OnPromotion   bool            `json:"on_promotion"`
	Featured      bool            `json:"featured"`
	InCarousel    bool            `json:"in_carousel"`
	CategoryID    *int64          `json:"category_id"`
	CategoryName  *string         `json:"category_name,omitempty"`
	Images        []ImageDTO      `json:"images"`
	Deleted       bool            `json:"deleted"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ImageDTO is a gallery entry. The owning product id is never echoed.
type ImageDTO struct {
	ID      int64   `json:"id"`
	Image   string  `json:"image"`
	Caption *string `json:"caption"`
}

type CreateProductInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock" validate:"gte=0,lte=2147483647"`
	Image       *string          `json:"image" validate:"omitempty,max=255"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url"`
	OnPromotion bool             `json:"on_promotion"`
	Featured    bool             `json:"featured"`
	InCarousel  bool             `json:"in_carousel"`
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
}

// UpdateProductInput is a partial update. Absent fields are left alone and
// explicit nulls clear nullable columns.
type UpdateProductInput struct {
	Name        *string                `json:"name" validate:"omitempty,max=200"`
	Description *string                `json:"description"`
	Price       *decimal.Decimal       `json:"price"`
	Stock       *int                   `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	Image       types.Nullable[string] `json:"image"`
	ImageURL    types.Nullable[string] `json:"image_url"`
	OnPromotion *bool                  `json:"on_promotion"`
	Featured    *bool                  `json:"featured"`
	InCarousel  *bool                  `json:"in_carousel"`
	CategoryID  types.Nullable[int64]  `json:"category_id"`
}

type CreateImageInput struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Image     string  `json:"image" validate:"required,max=255"`
	Caption   *string `json:"caption" validate:"omitempty,max=255"`
}

// Presenter renders products with media URLs resolved against the configured prefix.
type Presenter struct {
	mediaPrefix string
}

func NewPresenter(mediaPrefix string) Presenter {
	return Presenter{mediaPrefix: mediaPrefix}
}

// MediaURL resolves a stored file reference. With a base URL (scheme://host)
// the result is absolute; without one it is the relative media path. An
// absolute media prefix is returned as is.
func (p Presenter) MediaURL(baseURL, ref string) string {
	ref = strings.TrimLeft(strings.TrimSpace(ref), "/")
	prefix := p.mediaPrefix
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	path := prefix + ref
	if strings.HasPrefix(prefix, "http://") || strings.HasPrefix(prefix, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if baseURL == "" {
		return path
	}
	return strings.TrimRight(baseURL, "/") + path
}

// FinalImageURL prefers the uploaded file, then the external URL, then nil.
func (p Presenter) FinalImageURL(baseURL string, product *models.Product) *string {
	if product == nil {
		return nil
	}
	if product.Image != nil && strings.TrimSpace(*product.Image) != "" {
		resolved := p.MediaURL(baseURL, *product.Image)
		return &resolved
	}
	if product.ImageURL != nil && strings.TrimSpace(*product.ImageURL) != "" {
		url := strings.TrimSpace(*product.ImageURL)
		return &url
	}
	return nil
}

func (p Presenter) Product(baseURL string, product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		DisplayName:   product.DisplayName(),
		Description:   product.Description,
		Price:         product.Price,
		Stock:         product.Stock,
		Image:         product.Image,
		ImageURL:      product.ImageURL,
		FinalImageURL: p.FinalImageURL(baseURL, product),
		OnPromotion:   product.OnPromotion,
		Featured:      product.Featured,
		InCarousel:    product.InCarousel,
		CategoryID:    product.CategoryID,
		Images:        make([]ImageDTO, 0, len(product.Images)),
		Deleted:       product.Deleted,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
	if product.Category != nil {
		name := product.Category.DisplayName()
		dto.CategoryName = &name
	}
	for i := range product.Images {
		dto.Images = append(dto.Images, p.Image(baseURL, &product.Images[i]))
	}
	return dto
}

func (p Presenter) Products(baseURL string, rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *p.Product(baseURL, &rows[i]))
	}
	return out
}

func (p Presenter) Image(baseURL string, image *models.ProductImage) ImageDTO {
	return ImageDTO{
		ID:      image.ID,
		Image:   p.MediaURL(baseURL, image.Image),
		Caption: image.Caption,
	}
}
