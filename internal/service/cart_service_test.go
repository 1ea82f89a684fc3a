package service

import (
	"context"
	"sync"
	"testing"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/repository"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, products ...domain.Product) repository.ProductRepository {
	t.Helper()

	repo := repository.NewMemoryProductRepository(clock.NewMock(), 0)
	for i := range products {
		require.NoError(t, repo.Create(context.Background(), &products[i]))
	}
	return repo
}

func newTestCartService(t *testing.T) (CartService, repository.CartRepository) {
	t.Helper()

	catalog := newTestCatalog(t,
		testProduct("1", 200),
		testProduct("2", 45),
	)
	carts := repository.NewMemoryCartRepository()
	return NewCartService(carts, catalog, domain.DefaultCoupons(), domain.DefaultPricingRules()), carts
}

func TestCartService_StatePersistsBetweenCalls(t *testing.T) {
	service, carts := newTestCartService(t)
	ctx := context.Background()

	_, err := service.AddItem(ctx, "u1", "1", 2)
	require.NoError(t, err)
	summary, err := service.ApplyCoupon(ctx, "u1", "SAVE50")
	require.NoError(t, err)
	assert.True(t, summary.GrandTotal.Equal(decimal.NewFromInt(350)))

	state, err := carts.Load(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, "SAVE50", state.AppliedCoupon)

	summary, err = service.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
	assert.True(t, summary.Discount.Equal(decimal.NewFromInt(50)))

	other, err := service.GetCart(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestCartService_UnknownProduct(t *testing.T) {
	service, _ := newTestCartService(t)

	_, err := service.AddItem(context.Background(), "u1", "404", 1)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestCartService_RefusedCouponLeavesCart(t *testing.T) {
	service, carts := newTestCartService(t)
	ctx := context.Background()

	_, err := service.AddItem(ctx, "u1", "2", 1)
	require.NoError(t, err)

	_, err = service.ApplyCoupon(ctx, "u1", "SAVE50")
	assert.ErrorIs(t, err, ErrCouponMinimumNotMet)

	_, err = service.ApplyCoupon(ctx, "u1", "BADCODE")
	assert.ErrorIs(t, err, ErrUnknownCoupon)

	state, err := carts.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, state.AppliedCoupon)
}

func TestCartService_QuantityAndRemoval(t *testing.T) {
	service, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := service.AddItem(ctx, "u1", "1", 1)
	require.NoError(t, err)
	_, err = service.AddItem(ctx, "u1", "2", 1)
	require.NoError(t, err)

	summary, err := service.SetQuantity(ctx, "u1", "2", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalItems)

	summary, err = service.RemoveItem(ctx, "u1", "1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalItems)
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(180)))

	summary, err = service.SetQuantity(ctx, "u1", "2", 0)
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.True(t, summary.GrandTotal.Equal(decimal.NewFromInt(10)))
}

func TestCartService_ClearAndRemoveCoupon(t *testing.T) {
	service, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := service.AddItem(ctx, "u1", "1", 2)
	require.NoError(t, err)
	_, err = service.ApplyCoupon(ctx, "u1", "SAVE50")
	require.NoError(t, err)

	summary, err := service.RemoveCoupon(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, summary.AppliedCoupon)
	assert.True(t, summary.Discount.IsZero())

	require.NoError(t, service.Clear(ctx, "u1"))
	summary, err = service.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
}

func TestCartService_ConcurrentAddsAreSerialized(t *testing.T) {
	service, _ := newTestCartService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AddItem(ctx, "u1", "2", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	summary, err := service.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, summary.TotalItems)
}
