package users

import (
	"context"
	"time"

	"github.com/angelmondragon/shopeasy-backend/internal/repo"
	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	"gorm.io/gorm"
)

const usernameTakenMessage = "a user with that username already exists"

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, repo.Translate(err, "create user", usernameTakenMessage)
	}
	return user, nil
}

// FindByUsername retrieves the user matching the provided username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, repo.Translate(err, "load user", "")
	}
	return &user, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, id).Error; err != nil {
		return nil, repo.Translate(err, "load user", "")
	}
	return &user, nil
}

// UpdateProfile writes only the owner-editable columns present in fields.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return repo.Translate(res.Error, "update user", usernameTakenMessage)
	}
	if res.RowsAffected == 0 {
		return repo.NotFound("user")
	}
	return nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return repo.Translate(r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error, "update password", "")
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return repo.Translate(r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error, "update last login", "")
}
