package categories

import (
	"context"

	"github.com/angelmondragon/shopeasy-backend/internal/repo"
	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"gorm.io/gorm"
)

const duplicateCategoryMessage = "a category with this name already exists"

// Repository persists categories.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the category. The model hook normalizes the name, so the
// unique index sees the stored form.
func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	return repo.Translate(r.DB(ctx).Create(category).Error, "create category", duplicateCategoryMessage)
}

// List returns categories ordered by name. Soft-deleted rows are included only when asked.
func (r *Repository) List(ctx context.Context, includeDeleted bool) ([]models.Category, error) {
	query := r.DB(ctx).Order("name ASC")
	if !includeDeleted {
		query = query.Where("deleted = ?", false)
	}
	var rows []models.Category
	if err := query.Find(&rows).Error; err != nil {
		return nil, repo.Translate(err, "list categories", "")
	}
	return rows, nil
}

// SoftDelete flags the row without touching related products.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	res := r.DB(ctx).Model(&models.Category{}).Where("id = ?", id).UpdateColumn("deleted", true)
	if res.Error != nil {
		return repo.Translate(res.Error, "delete category", "")
	}
	if res.RowsAffected == 0 {
		return repo.NotFound("category")
	}
	return nil
}
