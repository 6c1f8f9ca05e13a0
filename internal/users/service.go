package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

// Service serves the authenticated user's own profile.
type Service interface {
	Me(ctx context.Context, userID uint64) (*ProfileDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Me(ctx context.Context, userID uint64) (*ProfileDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	profile := &ProfileDTO{UserDTO: *FromModel(user)}
	switch user.Role {
	case enums.UserRoleSeller:
		seller, err := s.repo.FindSeller(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller profile")
		}
		if seller != nil {
			rating := seller.SellerRating
			profile.SellerRating = &rating
		}
	case enums.UserRoleBuyer:
		buyer, err := s.repo.FindBuyer(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer profile")
		}
		if buyer != nil {
			profile.City = buyer.City
			profile.Address = buyer.Address
		}
	}
	return profile, nil
}
