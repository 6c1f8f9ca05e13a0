package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mercato-dev/mercato-backend/pkg/db/dbtest"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

func TestMeIncludesRoleFields(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	buyer := dbtest.SeedUser(t, conn, enums.UserRoleBuyer, "buyer")
	seller := dbtest.SeedUser(t, conn, enums.UserRoleSeller, "seller")

	profile, err := svc.Me(context.Background(), buyer.ID)
	require.NoError(t, err)
	require.Equal(t, "Milano", profile.City)
	require.Nil(t, profile.SellerRating)

	profile, err = svc.Me(context.Background(), seller.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.SellerRating)
	require.Zero(t, *profile.SellerRating)
	require.Empty(t, profile.City)

	_, err = svc.Me(context.Background(), 9999)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestTakenReportsEachField(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	dbtest.SeedUser(t, conn, enums.UserRoleBuyer, "ada")

	email, username, err := repo.Taken(context.Background(), "ada@example.com", "someone")
	require.NoError(t, err)
	require.True(t, email)
	require.False(t, username)

	email, username, err = repo.Taken(context.Background(), "new@example.com", "ada")
	require.NoError(t, err)
	require.False(t, email)
	require.True(t, username)
}
