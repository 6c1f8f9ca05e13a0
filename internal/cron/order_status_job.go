package cron

import (
	"context"
	"fmt"

	"github.com/mercato-dev/mercato-backend/internal/orders"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

// OrderStatusJobName identifies the order status sweep in logs and metrics.
const OrderStatusJobName = "order-status-refresh"

type statusRefresher interface {
	RefreshStatuses(ctx context.Context) (orders.RefreshResult, error)
}

// OrderStatusJobParams configure the order status sweep.
type OrderStatusJobParams struct {
	Logger *logger.Logger
	Orders statusRefresher
}

// NewOrderStatusJob builds the cron job that moves confirmed orders through
// shipped and delivered as their time thresholds pass.
func NewOrderStatusJob(params OrderStatusJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &orderStatusJob{logg: params.Logger, orders: params.Orders}, nil
}

type orderStatusJob struct {
	logg   *logger.Logger
	orders statusRefresher
}

func (j *orderStatusJob) Name() string { return OrderStatusJobName }

func (j *orderStatusJob) Run(ctx context.Context) error {
	result, err := j.orders.RefreshStatuses(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":  result.Scanned,
		"advanced": result.Advanced(),
		"skipped":  result.Skipped,
	})
	if err != nil {
		return fmt.Errorf("refresh order statuses: %w", err)
	}
	j.logg.Info(logCtx, "order status loop complete")
	return nil
}
