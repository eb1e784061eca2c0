package service

import (
	"context"
	"strings"
	"testing"

	"socialnet/internal/cache"
	"socialnet/internal/models"
	"socialnet/internal/repository"
	"socialnet/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProfileService_GetProfile(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	postRepo := repository.NewPostRepository(db)
	posts := NewPostService(postRepo, nil)
	profiles := NewProfileService(repository.NewUserRepository(db), postRepo)

	for _, text := range []string{"older", "newer"} {
		_, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Text: text})
		require.NoError(t, err)
	}
	_, err := posts.CreatePost(ctx, CreatePostInput{UserID: bob.ID, Text: "not alice"})
	require.NoError(t, err)

	profile, err := profiles.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.User.ID)
	assert.Equal(t, "alice@example.com", profile.User.Email)
	require.Len(t, profile.Posts, 2)
	assert.Equal(t, "newer", profile.Posts[0].Text)
	assert.Equal(t, "alice", profile.Posts[0].User.Name)

	empty, err := profiles.GetProfile(ctx, bob.ID+100)
	assert.Nil(t, empty)
	assert.True(t, models.IsNotFound(err))
}

func TestProfileService_DeletedPostLeavesProfileAndChildRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	postRepo := repository.NewPostRepository(db)
	posts := NewPostService(postRepo, nil)
	profiles := NewProfileService(repository.NewUserRepository(db), postRepo)

	kept, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Text: "kept"})
	require.NoError(t, err)
	doomed, err := posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Text: "doomed"})
	require.NoError(t, err)
	_, err = posts.ToggleLike(ctx, doomed.ID, bob.ID)
	require.NoError(t, err)
	_, err = posts.AddComment(ctx, AddCommentInput{PostID: doomed.ID, UserID: bob.ID, Text: "nice!"})
	require.NoError(t, err)
	_, err = posts.ToggleLike(ctx, kept.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, posts.DeletePost(ctx, DeletePostInput{PostID: doomed.ID, UserID: alice.ID}))

	profile, err := profiles.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, profile.Posts, 1)
	assert.Equal(t, kept.ID, profile.Posts[0].ID)

	var likes, comments int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", doomed.ID).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", doomed.ID).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)

	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", kept.ID).Count(&likes).Error)
	assert.Equal(t, int64(1), likes)
}

func TestProfileService_PostsBypassCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	postRepo := repository.NewPostRepository(db)
	profiles := NewProfileService(repository.NewUserRepository(db), postRepo)

	first, err := profiles.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, first.Posts)
	assert.True(t, mr.Exists(cache.UserKey(alice.ID)))

	_, err = NewPostService(postRepo, nil).CreatePost(ctx, CreatePostInput{UserID: alice.ID, Text: "fresh"})
	require.NoError(t, err)

	second, err := profiles.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, second.Posts, 1)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	db := testutil.OpenDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	profiles := NewProfileService(repository.NewUserRepository(db), repository.NewPostRepository(db))

	_, err := profiles.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.UserKey(alice.ID)))

	updated, err := profiles.UpdateProfile(ctx, UpdateProfileInput{
		UserID:         alice.ID,
		Bio:            strPtr("  hiking and tea  "),
		ProfilePicture: strPtr("https://example.com/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hiking and tea", updated.Bio)
	assert.False(t, mr.Exists(cache.UserKey(alice.ID)), "update must drop the cached user")

	profile, err := profiles.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hiking and tea", profile.User.Bio)
	assert.Equal(t, "https://example.com/a.png", profile.User.ProfilePicture)

	// Omitted fields stay as they are.
	updated, err = profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Bio: strPtr("short")})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", updated.ProfilePicture)

	_, err = profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Bio: strPtr(strings.Repeat("b", MaxBioLen+1))})
	assert.True(t, models.IsValidation(err))

	_, err = profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, ProfilePicture: strPtr("nope")})
	assert.True(t, models.IsValidation(err))

	_, err = profiles.UpdateProfile(ctx, UpdateProfileInput{UserID: 9999, Bio: strPtr("x")})
	assert.True(t, models.IsNotFound(err))
}
