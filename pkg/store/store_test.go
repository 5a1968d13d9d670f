package store

import (
	"context"
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/drabenstadtj/bgman/pkg/model"
)

func newTestStore(t *testing.T) CollectionStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	log := logrus.New()
	log.Out = io.Discard

	return New(db, log)
}

func TestAddOwned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	out := s.AddOwned(ctx, "12345", 13)
	assert.True(t, out.Added)
	assert.Equal(t, ReasonNone, out.Reason)
	assert.Equal(t, "Game with ID 13 has been added to your collection.", out.Message)

	ids, err := s.ListOwned(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, []int{13}, ids)
}

func TestAddOwnedDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.AddOwned(ctx, "12345", 13).Added)

	out := s.AddOwned(ctx, "12345", 13)
	assert.False(t, out.Added)
	assert.Equal(t, ReasonDuplicate, out.Reason)
	assert.Equal(t, "Game with ID 13 is already in your collection.", out.Message)

	ids, err := s.ListOwned(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, []int{13}, ids, "duplicate add must not grow the list")
}

func TestAddWishlistDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.AddWishlist(ctx, "67890", 2).Added)

	out := s.AddWishlist(ctx, "67890", 2)
	assert.False(t, out.Added)
	assert.Equal(t, ReasonDuplicate, out.Reason)
	assert.Equal(t, "Game with ID 2 is already in your wishlist.", out.Message)
}

func TestListsAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.AddOwned(ctx, "u", 7).Added)

	// The same game can sit in both lists.
	out := s.AddWishlist(ctx, "u", 7)
	assert.True(t, out.Added)

	owned, err := s.ListOwned(ctx, "u")
	require.NoError(t, err)
	wishlist, err := s.ListWishlist(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, owned)
	assert.Equal(t, []int{7}, wishlist)
}

func TestRemoveOwned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.AddOwned(ctx, "u", 13).Added)

	out := s.RemoveOwned(ctx, "u", 13)
	assert.True(t, out.Removed)
	assert.Equal(t, "Game with ID 13 has been removed from your collection.", out.Message)

	ids, err := s.ListOwned(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRemoveNotAMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.AddOwned(ctx, "u", 13).Added)

	out := s.RemoveOwned(ctx, "u", 99)
	assert.False(t, out.Removed)
	assert.Equal(t, ReasonNotAMember, out.Reason)
}

func TestRemoveUnknownUser(t *testing.T) {
	s := newTestStore(t)

	out := s.RemoveWishlist(context.Background(), "ghost", 7)
	assert.False(t, out.Removed)
	assert.Equal(t, ReasonUserNotFound, out.Reason)
	assert.Equal(t, "Game with ID 7 is not in your wishlist.", out.Message)
}

func TestListUnknownUser(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.ListOwned(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = s.ListWishlist(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListManyGames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := []int{5, 3, 11, 8, 1}
	for _, id := range want {
		require.True(t, s.AddOwned(ctx, "u", id).Added)
	}

	ids, err := s.ListOwned(ctx, "u")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, ids)
}

func TestGameSharedAcrossUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.AddOwned(ctx, "a", 13).Added)
	require.True(t, s.AddOwned(ctx, "b", 13).Added)

	// Removing from one user's list leaves the other's untouched.
	require.True(t, s.RemoveOwned(ctx, "a", 13).Removed)

	ids, err := s.ListOwned(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []int{13}, ids)
}
