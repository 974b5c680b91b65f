package products

import (
	"context"
	"strings"

	"github.com/angelmondragon/shopeasy-backend/internal/repo"
	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"github.com/angelmondragon/shopeasy-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilters narrows the public catalog listing.
type ListFilters struct {
	CategoryID  *int64
	OnPromotion *bool
	Featured    *bool
	InCarousel  *bool
	Query       string
}

// Repository persists products and their gallery images.
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

// Create inserts the product. The model hook enforces the image-or-URL rule.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return repo.Translate(r.DB(ctx).Omit(clause.Associations).Create(product).Error, "create product", "")
}

// Save persists every column of an existing product. Only update hooks run.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return repo.Translate(r.DB(ctx).Omit(clause.Associations).Save(product).Error, "update product", "")
}

// FindByID loads a product with its category and gallery, regardless of the deleted flag.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&product, id).Error
	if err != nil {
		return nil, repo.Translate(err, "find product", "")
	}
	return &product, nil
}

// List returns live products matching filters, newest first. It fetches one
// extra row so callers can detect a following page.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, error) {
	params = params.Normalize()
	query := r.DB(ctx).
		Model(&models.Product{}).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("products.deleted = ?", false)

	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if filters.OnPromotion != nil {
		query = query.Where("products.on_promotion = ?", *filters.OnPromotion)
	}
	if filters.Featured != nil {
		query = query.Where("products.featured = ?", *filters.Featured)
	}
	if filters.InCarousel != nil {
		query = query.Where("products.in_carousel = ?", *filters.InCarousel)
	}
	if q := models.NormalizeName(filters.Query); q != "" {
		query = query.Where("products.name LIKE ? ESCAPE '\\'", "%"+escapeLike(q)+"%")
	}

	var rows []models.Product
	err := query.
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Offset(params.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, repo.Translate(err, "list products", "")
	}
	return rows, nil
}

// SoftDelete flags the product. Cart lines and orders that reference it are left alone.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumn("deleted", true)
	if res.Error != nil {
		return repo.Translate(res.Error, "delete product", "")
	}
	if res.RowsAffected == 0 {
		return repo.NotFound("product")
	}
	return nil
}

// CreateImage appends a gallery entry.
func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	return repo.Translate(r.DB(ctx).Create(image).Error, "create product image", "")
}

// Exists reports whether a product row with id is present.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, repo.Translate(err, "check product", "")
	}
	return count > 0, nil
}

// CategoryExists reports whether the category referenced by a product input is present.
func (r *Repository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, repo.Translate(err, "check category", "")
	}
	return count > 0, nil
}

// DecrementStock subtracts qty only while enough stock remains. It reports
// false without error when the guard rejects the update. Hooks are skipped.
func (r *Repository) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, repo.Translate(res.Error, "decrement stock", "")
	}
	return res.RowsAffected == 1, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
