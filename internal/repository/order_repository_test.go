package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"wms-storefront/internal/domain"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderStoreFactory func(t *testing.T, clk clock.Clock) OrderRepository

func orderStores() map[string]orderStoreFactory {
	return map[string]orderStoreFactory{
		"memory": func(t *testing.T, clk clock.Clock) OrderRepository {
			return NewMemoryOrderRepository(clk, 0)
		},
		"postgres": func(t *testing.T, clk clock.Clock) OrderRepository {
			return NewOrderRepository(requireDB(t), clk)
		},
	}
}

var (
	orderIDPattern    = regexp.MustCompile(`^ORD-\d{4}$`)
	trackingIDPattern = regexp.MustCompile(`^TRK-[0-9A-F]{12}$`)
)

func testOrder(userID string) *domain.Order {
	product := domain.Product{ID: "1", Name: "Scanner", Price: decimal.NewFromInt(120), Category: "Electronics"}
	return &domain.Order{
		UserID:      userID,
		Items:       []domain.OrderItem{{Product: product, Quantity: 2, Price: product.Price}},
		Status:      domain.OrderStatusPending,
		Subtotal:    decimal.NewFromInt(240),
		DeliveryFee: decimal.Zero,
		Discount:    decimal.Zero,
		Total:       decimal.NewFromInt(240),
		DeliveryAddress: domain.DeliveryAddress{
			FullName: "Test User", AddressLine1: "1 Quay", City: "Pune",
			State: "MH", PostalCode: "411001", Phone: "9876543210",
		},
		PaymentMethod: domain.PaymentMethodUPI,
	}
}

func TestOrderRepository_CreateAndRead(t *testing.T) {
	for name, newStore := range orderStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mock := newMockClock()
			repo := newStore(t, mock)

			first := testOrder("u1")
			require.NoError(t, repo.Create(ctx, first))
			assert.Regexp(t, orderIDPattern, first.ID)
			assert.True(t, first.CreatedAt.Equal(mock.Now()))

			mock.Add(time.Minute)
			second := testOrder("u1")
			require.NoError(t, repo.Create(ctx, second))
			mock.Add(time.Minute)
			other := testOrder("u2")
			require.NoError(t, repo.Create(ctx, other))

			got, err := repo.FindByID(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, "u1", got.UserID)
			require.Len(t, got.Items, 1)
			assert.Equal(t, 2, got.Items[0].Quantity)
			assert.True(t, got.Items[0].Price.Equal(decimal.NewFromInt(120)))
			assert.True(t, got.Total.Equal(decimal.NewFromInt(240)))
			assert.Equal(t, "Pune", got.DeliveryAddress.City)
			assert.Equal(t, domain.PaymentMethodUPI, got.PaymentMethod)
			assert.Nil(t, got.ShippedAt)

			mine, err := repo.ListByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, mine, 2)
			assert.Equal(t, second.ID, mine[0].ID, "newest first")
			assert.Equal(t, first.ID, mine[1].ID)

			all, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, other.ID, all[0].ID)

			_, err = repo.FindByID(ctx, "ORD-0000")
			assert.ErrorIs(t, err, ErrOrderNotFound)
		})
	}
}

func TestOrderRepository_TransitionStatus(t *testing.T) {
	for name, newStore := range orderStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mock := newMockClock()
			repo := newStore(t, mock)

			order := testOrder("u1")
			require.NoError(t, repo.Create(ctx, order))

			mock.Add(2 * time.Minute)
			shipped, err := repo.TransitionStatus(ctx, order.ID, domain.OrderStatusShipped,
				domain.OrderStatusPending, domain.OrderStatusProcessing)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusShipped, shipped.Status)
			require.NotNil(t, shipped.ShippedAt)
			assert.True(t, shipped.ShippedAt.Equal(mock.Now()))
			assert.Regexp(t, trackingIDPattern, shipped.TrackingNumber)

			_, err = repo.TransitionStatus(ctx, order.ID, domain.OrderStatusProcessing, domain.OrderStatusPending)
			assert.ErrorIs(t, err, ErrStatusConflict)

			_, err = repo.TransitionStatus(ctx, order.ID, domain.OrderStatusCancelled)
			assert.ErrorIs(t, err, ErrStatusConflict, "an empty from set never matches")

			_, err = repo.TransitionStatus(ctx, "ORD-0000", domain.OrderStatusShipped, domain.OrderStatusPending)
			assert.ErrorIs(t, err, ErrOrderNotFound)

			got, err := repo.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusShipped, got.Status)
		})
	}
}

func TestOrderRepository_UpdateStatusStampsFirstArrivalOnly(t *testing.T) {
	for name, newStore := range orderStores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mock := newMockClock()
			repo := newStore(t, mock)

			order := testOrder("u1")
			require.NoError(t, repo.Create(ctx, order))

			mock.Add(time.Minute)
			shipped, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped)
			require.NoError(t, err)
			shippedAt := *shipped.ShippedAt
			tracking := shipped.TrackingNumber

			mock.Add(time.Minute)
			_, err = repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPending)
			require.NoError(t, err)

			mock.Add(time.Minute)
			again, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped)
			require.NoError(t, err)
			assert.True(t, again.ShippedAt.Equal(shippedAt))
			assert.Equal(t, tracking, again.TrackingNumber)
			assert.True(t, again.UpdatedAt.Equal(mock.Now()))

			delivered, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered)
			require.NoError(t, err)
			require.NotNil(t, delivered.DeliveredAt)
			assert.True(t, delivered.DeliveredAt.Equal(mock.Now()))

			_, err = repo.UpdateStatus(ctx, "ORD-0000", domain.OrderStatusDelivered)
			assert.ErrorIs(t, err, ErrOrderNotFound)
		})
	}
}

func TestMemoryOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryOrderRepository(newMockClock(), 0)

	order := testOrder("u1")
	require.NoError(t, repo.Create(ctx, order))
	order.Items[0].Quantity = 99

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	got.Items[0].Quantity = 50

	again, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestNewOrderID(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Regexp(t, orderIDPattern, NewOrderID())
	}
	assert.Regexp(t, trackingIDPattern, NewTrackingNumber())
}
