package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
)

// Service reads and edits the signed in user's profile. The profile prefills
// the checkout shipping form.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*UserDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*UserDTO, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
	}
	found, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.Profile(ctx, userID)
}
