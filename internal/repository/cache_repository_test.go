package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil), mr
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()
	pool := []models.Tutor{{ID: "tut-1", Name: "Minh", Expertise: []string{"pointers"}, Workload: &models.Workload{Current: 1, Max: 4}}}

	require.NoError(t, repo.Set(ctx, "matching:tutors:active", pool, time.Minute))

	var cached []models.Tutor
	require.NoError(t, repo.Get(ctx, "matching:tutors:active", &cached))
	require.Equal(t, pool, cached)

	mr.FastForward(2 * time.Minute)
	require.ErrorIs(t, repo.Get(ctx, "matching:tutors:active", &cached), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDropsCorruptEntries(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, mr.Set("matching:tutors:active", "{not json"))

	var cached []models.Tutor
	require.ErrorIs(t, repo.Get(context.Background(), "matching:tutors:active", &cached), appErrors.ErrCacheMiss)
	require.False(t, mr.Exists("matching:tutors:active"))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "matching:tutors:active", []string{"a"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "matching:tutors:dept-cs", []string{"b"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "other:key", []string{"c"}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "matching:tutors:*"))
	require.False(t, mr.Exists("matching:tutors:active"))
	require.False(t, mr.Exists("matching:tutors:dept-cs"))
	require.True(t, mr.Exists("other:key"))
	require.NoError(t, repo.Ping(ctx))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest []string
	require.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(context.Background(), "k", dest, time.Minute))
	require.Error(t, repo.Ping(context.Background()))
}
