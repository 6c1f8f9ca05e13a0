package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mercato-dev/mercato-backend/internal/orders"
	"github.com/mercato-dev/mercato-backend/internal/sellers"
	"github.com/mercato-dev/mercato-backend/pkg/db/dbtest"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
)

type fakeRefresher struct {
	result orders.RefreshResult
	err    error
	calls  int
}

func (f *fakeRefresher) RefreshStatuses(context.Context) (orders.RefreshResult, error) {
	f.calls++
	return f.result, f.err
}

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestOrderStatusJobRunsRefresh(t *testing.T) {
	refresher := &fakeRefresher{result: orders.RefreshResult{Scanned: 3, Shipped: 1, Delivered: 1}}
	job, err := NewOrderStatusJob(OrderStatusJobParams{Logger: discardLogger(), Orders: refresher})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if job.Name() != OrderStatusJobName {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if refresher.calls != 1 {
		t.Fatalf("expected one refresh, got %d", refresher.calls)
	}
}

func TestOrderStatusJobPropagatesError(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("db down")}
	job, err := NewOrderStatusJob(OrderStatusJobParams{Logger: discardLogger(), Orders: refresher})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSellerRatingJobRepairsDrift(t *testing.T) {
	client, conn := dbtest.Client(t)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")
	idle := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "idle")
	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer, "buyer")
	product := dbtest.SeedProduct(t, conn, seller.ID, "Lamp", "10.00", 1)
	dbtest.SeedReview(t, conn, buyer.ID, product.ID, 4)
	if err := conn.Model(&models.UserSeller{}).Where("user_id = ?", idle.ID).Update("seller_rating", 3.3).Error; err != nil {
		t.Fatalf("seed drift: %v", err)
	}

	job, err := NewSellerRatingJob(SellerRatingJobParams{
		Logger:  discardLogger(),
		DB:      client,
		Sellers: sellers.NewRepository(conn),
		Ratings: sellers.NewRatingAggregator(),
		Limit:   1,
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var rows []models.UserSeller
	if err := conn.Order("user_id").Find(&rows).Error; err != nil {
		t.Fatalf("load sellers: %v", err)
	}
	if len(rows) != 2 || rows[0].SellerRating != 4 || rows[1].SellerRating != 0 {
		t.Fatalf("unexpected ratings %+v", rows)
	}
}
