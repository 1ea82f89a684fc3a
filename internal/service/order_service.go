package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNotCancellable  = errors.New("order can no longer be cancelled")
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

const (
	dashboardRecentOrders = 5
	dashboardTopProducts  = 5
)

// PlaceOrderInput carries the checkout details supplied by the customer
type PlaceOrderInput struct {
	DeliveryAddress domain.DeliveryAddress
	PaymentMethod   domain.PaymentMethod
}

// TopProduct is a product ranked by the number of orders containing it
type TopProduct struct {
	Product domain.Product `json:"product"`
	Orders  int            `json:"orders"`
}

// Dashboard summarises the store for administrators
type Dashboard struct {
	TotalOrders   int                        `json:"totalOrders"`
	TotalRevenue  decimal.Decimal            `json:"totalRevenue"`
	TotalProducts int                        `json:"totalProducts"`
	LowStockCount int                        `json:"lowStockProducts"`
	StatusCounts  map[domain.OrderStatus]int `json:"statusCounts"`
	RecentOrders  []domain.Order             `json:"recentOrders"`
	TopProducts   []TopProduct               `json:"topProducts"`
}

// OrderService defines the interface for order business logic
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	// GetForUser returns the order if userID placed it or asAdmin is set.
	// Other users get ErrOrderNotFound.
	GetForUser(ctx context.Context, userID, orderID string, asAdmin bool) (*domain.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	carts     CartService
	simulator *LifecycleSimulator
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts CartService,
	simulator *LifecycleSimulator,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		simulator: simulator,
		logger:    logger,
	}
}

// PlaceOrder turns the user's cart into a pending order and starts its
// fulfillment. The cart is emptied only once the order is stored.
func (s *orderService) PlaceOrder(ctx context.Context, userID string, input PlaceOrderInput) (*domain.Order, error) {
	if !input.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	var placed *domain.Order
	err := s.carts.Checkout(ctx, userID, func(summary domain.CartSummary) error {
		if len(summary.Items) == 0 {
			return ErrEmptyCart
		}

		items := make([]domain.OrderItem, 0, len(summary.Items))
		for _, item := range summary.Items {
			items = append(items, domain.OrderItem{
				Product:  item.Product,
				Quantity: item.Quantity,
				Price:    item.Product.Price,
			})
		}

		order := &domain.Order{
			UserID:          userID,
			Items:           items,
			Status:          domain.OrderStatusPending,
			Subtotal:        summary.Subtotal,
			DeliveryFee:     summary.DeliveryFee,
			Discount:        summary.Discount,
			Total:           summary.GrandTotal,
			DeliveryAddress: input.DeliveryAddress,
			PaymentMethod:   input.PaymentMethod,
		}
		if summary.Discount.IsPositive() {
			order.AppliedCoupon = summary.AppliedCoupon
		}

		if err := s.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to place order: %w", err)
		}
		placed = order
		return nil
	})

	if placed == nil {
		return nil, err
	}

	// The order exists even if clearing the cart failed, so it must progress.
	s.simulator.Start(*placed)
	if err != nil {
		s.logger.Warn("Order placed but cart not cleared",
			zap.String("order_id", placed.ID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", placed.ID),
		zap.String("user_id", userID),
		zap.String("total", placed.Total.StringFixed(2)),
	)
	return placed, nil
}

func (s *orderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetForUser(ctx context.Context, userID, orderID string, asAdmin bool) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !asAdmin && order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

// Cancel cancels one of the user's orders while it is still pending or
// processing and stops its scheduled transitions
func (s *orderService) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if _, err := s.GetForUser(ctx, userID, orderID, false); err != nil {
		return nil, err
	}

	order, err := s.orders.TransitionStatus(ctx, orderID, domain.OrderStatusCancelled,
		domain.OrderStatusPending, domain.OrderStatusProcessing)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrOrderNotCancellable
		}
		return nil, err
	}

	s.simulator.Cancel(orderID)
	s.logger.Info("Order cancelled", zap.String("order_id", orderID), zap.String("user_id", userID))
	return order, nil
}

// ListAll returns every order, or only those in status when it is set
func (s *orderService) ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if status == "" {
		return orders, nil
	}

	filtered := []domain.Order{}
	for _, o := range orders {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// UpdateStatus sets the status of any order. Automatic transitions stop
// once the order reaches delivered or cancelled.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}

	if status.Terminal() {
		s.simulator.Cancel(orderID)
	}

	s.logger.Info("Order status set by admin",
		zap.String("order_id", orderID),
		zap.String("status", string(status)),
	)
	return order, nil
}

func (s *orderService) Dashboard(ctx context.Context) (*Dashboard, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	d := &Dashboard{
		TotalOrders:   len(orders),
		TotalRevenue:  decimal.Zero,
		TotalProducts: len(products),
		StatusCounts:  make(map[domain.OrderStatus]int, len(domain.OrderStatuses)),
	}
	for _, status := range domain.OrderStatuses {
		d.StatusCounts[status] = 0
	}

	ordersPerProduct := make(map[string]int)
	for _, o := range orders {
		d.TotalRevenue = d.TotalRevenue.Add(o.Total)
		d.StatusCounts[o.Status]++

		seen := make(map[string]bool, len(o.Items))
		for _, item := range o.Items {
			if !seen[item.Product.ID] {
				seen[item.Product.ID] = true
				ordersPerProduct[item.Product.ID]++
			}
		}
	}

	for _, p := range products {
		if p.Stock < domain.LowStockThreshold {
			d.LowStockCount++
		}
	}

	// Orders arrive newest first.
	d.RecentOrders = orders
	if len(d.RecentOrders) > dashboardRecentOrders {
		d.RecentOrders = d.RecentOrders[:dashboardRecentOrders]
	}

	top := make([]TopProduct, 0, len(products))
	for _, p := range products {
		top = append(top, TopProduct{Product: p, Orders: ordersPerProduct[p.ID]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Orders > top[j].Orders })
	if len(top) > dashboardTopProducts {
		top = top[:dashboardTopProducts]
	}
	d.TopProducts = top

	return d, nil
}
