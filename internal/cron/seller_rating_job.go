package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

const (
	// SellerRatingJobName identifies the rating reconciliation in logs and metrics.
	SellerRatingJobName = "seller-rating-reconcile"

	defaultReconcileLimit = 250
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sellerLister interface {
	ListSellerIDs(ctx context.Context, afterID uint64, limit int) ([]uint64, error)
}

type ratingRefresher interface {
	Refresh(ctx context.Context, tx *gorm.DB, sellerID uint64) (float64, error)
}

// SellerRatingJobParams configure the seller rating reconciliation job.
type SellerRatingJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Sellers sellerLister
	Ratings ratingRefresher
	Limit   int
}

// NewSellerRatingJob builds a job that recomputes every stored seller rating
// from the current reviews, repairing drift from out-of-band writes.
func NewSellerRatingJob(params SellerRatingJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if params.Ratings == nil {
		return nil, fmt.Errorf("rating refresher required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &sellerRatingJob{
		logg:    params.Logger,
		db:      params.DB,
		sellers: params.Sellers,
		ratings: params.Ratings,
		limit:   limit,
	}, nil
}

type sellerRatingJob struct {
	logg    *logger.Logger
	db      txRunner
	sellers sellerLister
	ratings ratingRefresher
	limit   int
}

func (j *sellerRatingJob) Name() string { return SellerRatingJobName }

func (j *sellerRatingJob) Run(ctx context.Context) error {
	var (
		errs   error
		lastID uint64
		count  int
	)
	for {
		ids, err := j.sellers.ListSellerIDs(ctx, lastID, j.limit)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list sellers: %w", err))
		}
		for _, id := range ids {
			lastID = id
			err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
				_, err := j.ratings.Refresh(ctx, tx, id)
				return err
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("refresh seller %d: %w", id, err))
				continue
			}
			count++
		}
		if len(ids) < j.limit {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "seller rating reconcile complete")
	return errs
}
