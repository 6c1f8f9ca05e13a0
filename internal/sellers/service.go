package sellers

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

// ProfileDTO is the public seller profile.
type ProfileDTO struct {
	SellerID     uint64  `json:"seller_id"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	SellerRating float64 `json:"seller_rating"`
	ProductCount int64   `json:"product_count"`
	ReviewCount  int64   `json:"review_count"`
}

// Service exposes seller profile reads.
type Service interface {
	GetProfile(ctx context.Context, sellerID uint64) (*ProfileDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds the sellers service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, sellerID uint64) (*ProfileDTO, error) {
	if sellerID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	seller, err := s.repo.FindSeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}
	products, err := s.repo.CountProducts(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seller products")
	}
	reviews, err := s.repo.CountReviews(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count seller reviews")
	}

	profile := &ProfileDTO{
		SellerID:     seller.UserID,
		SellerRating: seller.SellerRating,
		ProductCount: products,
		ReviewCount:  reviews,
	}
	if seller.User != nil {
		profile.Name = seller.User.Name
		profile.Username = seller.User.Username
	}
	return profile, nil
}
