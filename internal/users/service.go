package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopeasy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopeasy-backend/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, fields map[string]any) error
}

// ProfileService reads and edits the caller's own profile.
type ProfileService interface {
	Get(ctx context.Context, userID int64) (*UserDTO, error)
	Update(ctx context.Context, userID int64, input UpdateProfileInput) (*UserDTO, error)
}

type profileService struct {
	repo profileRepository
}

func NewProfileService(repo profileRepository) (ProfileService, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &profileService{repo: repo}, nil
}

func (s *profileService) Get(ctx context.Context, userID int64) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *profileService) Update(ctx context.Context, userID int64, input UpdateProfileInput) (*UserDTO, error) {
	fields := map[string]any{}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, pkgerrors.Field("username", "may not be blank")
		}
		fields["username"] = username
	}
	if input.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if err := s.repo.UpdateProfile(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
