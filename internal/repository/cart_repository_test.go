package repository

import (
	"context"
	"testing"
	"time"

	"wms-storefront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCartStore(t *testing.T, ttl time.Duration) (CartRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCartRepository(client, ttl), mr
}

func testCartState() domain.CartState {
	return domain.CartState{
		Items: []domain.CartItem{
			{Product: domain.Product{ID: "1", Name: "Scanner", Price: decimal.RequireFromString("349.99"), Category: "Electronics"}, Quantity: 2},
			{Product: domain.Product{ID: "4", Name: "Kettle", Price: decimal.NewFromInt(89), Category: "Kitchen"}, Quantity: 1},
		},
		AppliedCoupon: "SAVE50",
	}
}

func TestCartRepository_RoundTrip(t *testing.T) {
	redisStore, _ := newRedisCartStore(t, time.Hour)
	stores := map[string]CartRepository{
		"memory": NewMemoryCartRepository(),
		"redis":  redisStore,
	}

	for name, repo := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := repo.Load(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, empty.Items)
			assert.Empty(t, empty.AppliedCoupon)

			want := testCartState()
			require.NoError(t, repo.Save(ctx, "u1", want))

			got, err := repo.Load(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, got.Items, 2)
			assert.Equal(t, "SAVE50", got.AppliedCoupon)
			assert.Equal(t, 2, got.Items[0].Quantity)
			assert.True(t, got.Items[0].Product.Price.Equal(want.Items[0].Product.Price))

			other, err := repo.Load(ctx, "u2")
			require.NoError(t, err)
			assert.Empty(t, other.Items)

			require.NoError(t, repo.Delete(ctx, "u1"))
			got, err = repo.Load(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, got.Items)

			require.NoError(t, repo.Delete(ctx, "u1"), "deleting a missing cart is not an error")
		})
	}
}

func TestRedisCartRepository_KeyAndTTL(t *testing.T) {
	repo, mr := newRedisCartStore(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "u1", testCartState()))
	assert.True(t, mr.Exists("cart:u1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("cart:u1"))

	mr.FastForward(31 * time.Minute)
	got, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestRedisCartRepository_CorruptState(t *testing.T) {
	repo, mr := newRedisCartStore(t, 0)
	require.NoError(t, mr.Set("cart:u1", "{not json"))

	_, err := repo.Load(context.Background(), "u1")
	assert.Error(t, err)
}

func TestRedisCartRepository_Unavailable(t *testing.T) {
	repo, mr := newRedisCartStore(t, 0)
	mr.Close()

	_, err := repo.Load(context.Background(), "u1")
	assert.Error(t, err)
	assert.Error(t, repo.Save(context.Background(), "u1", testCartState()))
}

func TestMemoryCartRepository_SavedStateIsIsolated(t *testing.T) {
	repo := NewMemoryCartRepository()
	ctx := context.Background()

	state := testCartState()
	require.NoError(t, repo.Save(ctx, "u1", state))
	state.Items[0].Quantity = 40

	got, err := repo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)
}
