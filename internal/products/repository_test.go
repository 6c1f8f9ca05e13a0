package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mercato-dev/mercato-backend/pkg/db/dbtest"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

func TestDecrementStockIsConditional(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")
	product := dbtest.SeedProduct(t, conn, seller.ID, "Lamp", "10.00", 3)
	ctx := context.Background()

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	require.False(t, ok)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, product.ID).Error)
	require.Equal(t, 1, reloaded.Quantity)

	ok, err = repo.DecrementStock(ctx, 9999, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReviewSummaryWithoutReviews(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")
	product := dbtest.SeedProduct(t, conn, seller.ID, "Lamp", "10.00", 3)

	summary, err := repo.ReviewSummary(context.Background(), product.ID)
	require.NoError(t, err)
	require.Zero(t, summary.TotalCount)
	require.Zero(t, summary.AverageRating)
}

func TestFindByIDsSkipsMissing(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")
	a := dbtest.SeedProduct(t, conn, seller.ID, "A", "1.00", 1)

	found, err := repo.FindByIDs(context.Background(), []uint64{a.ID, 777})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "A", found[a.ID].Name)
}
