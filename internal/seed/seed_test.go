package seed

import (
	"context"
	"testing"

	"socialnet/internal/cache"
	"socialnet/internal/models"
	"socialnet/internal/repository"
	"socialnet/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed_CreatesConsistentData(t *testing.T) {
	db := testutil.OpenDB(t)

	res, err := Seed(context.Background(), db, Options{
		NumUsers:    4,
		NumPosts:    6,
		MaxLikes:    3,
		MaxComments: 2,
		SkipBcrypt:  true,
		RandSeed:    42,
	})
	require.NoError(t, err)
	assert.Len(t, res.Users, 4)
	assert.Equal(t, 6, res.Posts)

	var likes, comments int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(res.Likes), likes)
	assert.Equal(t, int64(res.Comments), comments)

	// Re-seeding with clean replaces everything.
	res, err = Seed(context.Background(), db, Options{NumUsers: 2, NumPosts: 1, ShouldClean: true, SkipBcrypt: true, RandSeed: 7})
	require.NoError(t, err)
	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(1), posts)
	assert.Zero(t, res.Likes)
}

func TestCreateUsers_HashesPassword(t *testing.T) {
	db := testutil.OpenDB(t)
	users, err := NewSeeder(db, 1).CreateUsers(context.Background(), 1, false)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(DefaultPassword)))
}

func TestSeed_NoUsers(t *testing.T) {
	db := testutil.OpenDB(t)
	res, err := Seed(context.Background(), db, Options{NumPosts: 5, SkipBcrypt: true})
	require.NoError(t, err)
	assert.Zero(t, res.Posts)
}

func TestClearAll_RemovesEveryTableAndCachedProfiles(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	db := testutil.OpenDB(t)
	res, err := Seed(ctx, db, Options{
		NumUsers:    3,
		NumPosts:    4,
		MaxLikes:    3,
		MaxComments: 2,
		SkipBcrypt:  true,
		RandSeed:    3,
	})
	require.NoError(t, err)

	userID := res.Users[0].ID
	_, err = repository.NewUserRepository(db).GetPublic(ctx, userID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.UserKey(userID)))

	require.NoError(t, NewSeeder(db, 1).ClearAll(ctx))

	for _, model := range []any{&models.User{}, &models.Post{}, &models.Like{}, &models.Comment{}} {
		var n int64
		require.NoError(t, db.Unscoped().Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows left after ClearAll", model)
	}
	assert.False(t, mr.Exists(cache.UserKey(userID)))
}
