package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/db/dbtest"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/pagination"
)

type ordersFixture struct {
	conn   *gorm.DB
	svc    *service
	buyer  models.User
	seller models.User
	now    time.Time
}

func newOrdersFixture(t *testing.T, batch int) *ordersFixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(conn),
		Tx:           db.NewFromConn(conn),
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		RefreshBatch: batch,
	})
	require.NoError(t, err)

	f := &ordersFixture{
		conn:   conn,
		svc:    svc.(*service),
		buyer:  dbtest.SeedUser(t, conn, enums.UserRoleBuyer, "buyer"),
		seller: dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller"),
		now:    time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *ordersFixture) seedOrder(t *testing.T, status enums.OrderStatus, confirmedAt *time.Time) models.Order {
	t.Helper()
	order := models.Order{
		UserID:      f.buyer.ID,
		SellerID:    f.seller.ID,
		Total:       decimal.RequireFromString("25.00"),
		Status:      status,
		ConfirmedAt: confirmedAt,
		Items: []models.OrderItem{
			{ProductName: "Lamp", Quantity: 2, Price: decimal.RequireFromString("10.00")},
			{ProductName: "Bulb", Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
	}
	_, err := NewRepository(f.conn).CreateOrder(context.Background(), &order)
	require.NoError(t, err)
	return order
}

func (f *ordersFixture) statusOf(t *testing.T, id uint64) enums.OrderStatus {
	t.Helper()
	var order models.Order
	require.NoError(t, f.conn.First(&order, id).Error)
	return order.Status
}

func ago(now time.Time, d time.Duration) *time.Time {
	ts := now.Add(-d)
	return &ts
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestConfirm_PendingToConfirmed(t *testing.T) {
	f := newOrdersFixture(t, 0)
	order := f.seedOrder(t, enums.OrderStatusPending, nil)

	dto, err := f.svc.Confirm(context.Background(), f.seller.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, dto.Status)
	require.NotNil(t, dto.ConfirmedAt)
	require.True(t, dto.ConfirmedAt.Equal(f.now))

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, order.ID).Error)
	require.Equal(t, enums.OrderStatusConfirmed, stored.Status)
	require.NotNil(t, stored.ConfirmedAt)

	// Confirming again is a no-op.
	f.now = f.now.Add(time.Hour)
	again, err := f.svc.Confirm(context.Background(), f.seller.ID, order.ID)
	require.NoError(t, err)
	require.True(t, again.ConfirmedAt.Equal(*stored.ConfirmedAt))
}

func TestConfirm_Errors(t *testing.T) {
	f := newOrdersFixture(t, 0)
	other := dbtest.SeedUser(t, f.conn, enums.UserRoleSeller, "other")
	pending := f.seedOrder(t, enums.OrderStatusPending, nil)
	shipped := f.seedOrder(t, enums.OrderStatusShipped, ago(f.now, 3*24*time.Hour))

	_, err := f.svc.Confirm(context.Background(), other.ID, pending.ID)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = f.svc.Confirm(context.Background(), f.seller.ID, shipped.ID)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.Confirm(context.Background(), f.seller.ID, 9999)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = f.svc.Confirm(context.Background(), f.seller.ID, 0)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.Equal(t, enums.OrderStatusPending, f.statusOf(t, pending.ID))
}

func TestRefreshStatuses_AdvancesAndPersists(t *testing.T) {
	f := newOrdersFixture(t, 2)
	day := 24 * time.Hour

	pending := f.seedOrder(t, enums.OrderStatusPending, nil)
	fresh := f.seedOrder(t, enums.OrderStatusConfirmed, ago(f.now, day))
	toShip := f.seedOrder(t, enums.OrderStatusConfirmed, ago(f.now, 2*day))
	toDeliver := f.seedOrder(t, enums.OrderStatusConfirmed, ago(f.now, 6*day))
	shippedToDeliver := f.seedOrder(t, enums.OrderStatusShipped, ago(f.now, 5*day))
	delivered := f.seedOrder(t, enums.OrderStatusDelivered, ago(f.now, 20*day))

	result, err := f.svc.RefreshStatuses(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, result.Scanned)
	require.Equal(t, 1, result.Shipped)
	require.Equal(t, 2, result.Delivered)
	require.Equal(t, 3, result.Advanced())

	require.Equal(t, enums.OrderStatusPending, f.statusOf(t, pending.ID))
	require.Equal(t, enums.OrderStatusConfirmed, f.statusOf(t, fresh.ID))
	require.Equal(t, enums.OrderStatusShipped, f.statusOf(t, toShip.ID))
	require.Equal(t, enums.OrderStatusDelivered, f.statusOf(t, toDeliver.ID))
	require.Equal(t, enums.OrderStatusDelivered, f.statusOf(t, shippedToDeliver.ID))
	require.Equal(t, enums.OrderStatusDelivered, f.statusOf(t, delivered.ID))

	// A second sweep at the same instant changes nothing.
	again, err := f.svc.RefreshStatuses(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, again.Advanced())
	require.Equal(t, 2, again.Scanned)
}

func TestUpdateStatusIfIsGuarded(t *testing.T) {
	f := newOrdersFixture(t, 0)
	order := f.seedOrder(t, enums.OrderStatusDelivered, ago(f.now, 10*24*time.Hour))

	ok, err := NewRepository(f.conn).UpdateStatusIf(context.Background(), order.ID, enums.OrderStatusConfirmed, enums.OrderStatusShipped)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, enums.OrderStatusDelivered, f.statusOf(t, order.ID))
}

func TestGetOrder_EffectiveStatusAndAccess(t *testing.T) {
	f := newOrdersFixture(t, 0)
	stranger := dbtest.SeedUser(t, f.conn, enums.UserRoleBuyer, "stranger")
	order := f.seedOrder(t, enums.OrderStatusConfirmed, ago(f.now, 3*24*time.Hour))

	dto, err := f.svc.GetOrder(context.Background(), f.buyer.ID, enums.UserRoleBuyer, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, dto.Status)
	require.Equal(t, enums.ShippedLabel, dto.StatusLabel)
	require.Equal(t, "25.00", dto.Total)
	require.Len(t, dto.Items, 2)
	require.Equal(t, "10.00", dto.Items[0].Price)
	require.Equal(t, "20.00", dto.Items[0].LineTotal)

	// Reads never write.
	require.Equal(t, enums.OrderStatusConfirmed, f.statusOf(t, order.ID))

	_, err = f.svc.GetOrder(context.Background(), f.seller.ID, enums.UserRoleSeller, order.ID)
	require.NoError(t, err)
	_, err = f.svc.GetOrder(context.Background(), 1, enums.UserRoleAdmin, order.ID)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), stranger.ID, enums.UserRoleBuyer, order.ID)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestListBuyerOrders_Paginates(t *testing.T) {
	f := newOrdersFixture(t, 0)
	var ids []uint64
	for i := 0; i < 3; i++ {
		ids = append(ids, f.seedOrder(t, enums.OrderStatusPending, nil).ID)
	}

	page, err := f.svc.ListBuyerOrders(context.Background(), f.buyer.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	require.Equal(t, ids[2], page.Orders[0].ID)
	require.Equal(t, ids[1], page.Orders[1].ID)
	require.NotEmpty(t, page.NextCursor)

	next, err := f.svc.ListBuyerOrders(context.Background(), f.buyer.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Orders, 1)
	require.Equal(t, ids[0], next.Orders[0].ID)
	require.Empty(t, next.NextCursor)

	sellerPage, err := f.svc.ListSellerOrders(context.Background(), f.seller.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, sellerPage.Orders, 3)

	_, err = f.svc.ListBuyerOrders(context.Background(), f.buyer.ID, pagination.Params{Cursor: "garbage!"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
