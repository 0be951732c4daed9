package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carecompanion/go-care/internal/domain/clinical"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, 30*time.Second, nil), mr
}

func TestSetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	stats := clinical.DashboardStats{
		PatientID:           "p-1",
		TasksTotal:          9,
		TasksCompleted:      3,
		TasksCompletionRate: 33,
	}
	require.NoError(t, cache.Set(ctx, DashboardKey("p-1"), stats))

	var got clinical.DashboardStats
	require.NoError(t, cache.Get(ctx, DashboardKey("p-1"), &got))
	assert.Equal(t, stats, got)
}

func TestGetMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	var got clinical.DashboardStats
	err := cache.Get(context.Background(), DashboardKey("absent"), &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestEntryExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, DashboardKey("p-1"), clinical.DashboardStats{PatientID: "p-1"}))
	mr.FastForward(31 * time.Second)

	var got clinical.DashboardStats
	err := cache.Get(ctx, DashboardKey("p-1"), &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, DashboardKey("p-1"), clinical.DashboardStats{PatientID: "p-1"}))
	require.NoError(t, cache.Invalidate(ctx, DashboardKey("p-1")))

	var got clinical.DashboardStats
	err := cache.Get(ctx, DashboardKey("p-1"), &got)
	assert.ErrorIs(t, err, ErrMiss)
}
