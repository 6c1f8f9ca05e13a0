package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

const (
	minRating        = 0
	maxRating        = 5
	maxCommentLength = 3000

	uniqueReviewConstraint = "idx_reviews_user_product"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RatingRefresher recomputes and stores a seller's rating.
type RatingRefresher interface {
	Refresh(ctx context.Context, tx *gorm.DB, sellerID uint64) (float64, error)
}

// Input carries the user-editable review fields.
type Input struct {
	Rating  float64
	Comment string
}

// Service manages product reviews. Every write refreshes the seller rating
// in the same transaction.
type Service interface {
	Create(ctx context.Context, userID, productID uint64, input Input) (*ReviewDTO, error)
	Update(ctx context.Context, userID, reviewID uint64, input Input) (*ReviewDTO, error)
	Delete(ctx context.Context, userID, reviewID uint64) error
	ListByProduct(ctx context.Context, productID uint64) (*ListResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	ratings RatingRefresher
	logg    *logger.Logger
}

// NewService builds a review service.
func NewService(repo Repository, tx txRunner, ratings RatingRefresher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ratings == nil {
		return nil, fmt.Errorf("rating refresher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, ratings: ratings, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, userID, productID uint64, input Input) (*ReviewDTO, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	comment, err := validate(input)
	if err != nil {
		return nil, err
	}

	var created *models.Review
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sellerID, err := repo.ProductSeller(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if sellerID == userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "sellers cannot review their own products")
		}

		review := &models.Review{UserID: userID, ProductID: productID, Rating: input.Rating, Comment: comment}
		if err := repo.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, uniqueReviewConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed").
					WithDetails(map[string]any{"product_id": productID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		if _, err := s.ratings.Refresh(ctx, tx, sellerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh seller rating")
		}
		created, err = repo.FindByID(ctx, review.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"review_id": created.ID, "product_id": productID})
	s.logg.Info(logCtx, "review created")

	dto := toReviewDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, reviewID uint64, input Input) (*ReviewDTO, error) {
	comment, err := validate(input)
	if err != nil {
		return nil, err
	}

	var updated *models.Review
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := s.loadAuthored(ctx, repo, userID, reviewID)
		if err != nil {
			return err
		}
		if err := repo.UpdateContent(ctx, review.ID, input.Rating, comment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
		if err := s.refreshForProduct(ctx, tx, repo, review.ProductID); err != nil {
			return err
		}
		updated, err = repo.FindByID(ctx, review.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toReviewDTO(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, reviewID uint64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		review, err := s.loadAuthored(ctx, repo, userID, reviewID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, review.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		return s.refreshForProduct(ctx, tx, repo, review.ProductID)
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"review_id": reviewID})
	s.logg.Info(logCtx, "review deleted")
	return nil
}

func (s *service) ListByProduct(ctx context.Context, productID uint64) (*ListResult, error) {
	if _, err := s.repo.ProductSeller(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	summary, err := s.repo.Summarize(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
	}
	result := &ListResult{Reviews: make([]ReviewDTO, 0, len(rows)), Summary: summary}
	for _, row := range rows {
		result.Reviews = append(result.Reviews, toReviewDTO(row))
	}
	return result, nil
}

func (s *service) loadAuthored(ctx context.Context, repo Repository, userID, reviewID uint64) (*models.Review, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	review, err := repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review belongs to another user")
	}
	return review, nil
}

func (s *service) refreshForProduct(ctx context.Context, tx *gorm.DB, repo Repository, productID uint64) error {
	sellerID, err := repo.ProductSeller(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product seller")
	}
	if _, err := s.ratings.Refresh(ctx, tx, sellerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh seller rating")
	}
	return nil
}

func validate(input Input) (string, error) {
	if input.Rating < minRating || input.Rating > maxRating {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 0 and 5")
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "comment is required")
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "comment is too long")
	}
	return comment, nil
}
