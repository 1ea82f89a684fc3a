package service

import (
	"context"
	"fmt"
	"sync"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/repository"
)

// CartService defines the interface for per-user cart operations
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.CartSummary, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (domain.CartSummary, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (domain.CartSummary, error)
	RemoveItem(ctx context.Context, userID, productID string) (domain.CartSummary, error)
	Clear(ctx context.Context, userID string) error
	// ApplyCoupon returns ErrUnknownCoupon or ErrCouponMinimumNotMet when the
	// code is refused; the cart is left unchanged in that case.
	ApplyCoupon(ctx context.Context, userID, code string) (domain.CartSummary, error)
	RemoveCoupon(ctx context.Context, userID string) (domain.CartSummary, error)
	// Checkout hands the current cart to place and empties the cart only if
	// place succeeds. The cart is locked for the duration of the call.
	Checkout(ctx context.Context, userID string, place func(summary domain.CartSummary) error) error
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	coupons  domain.CouponCatalog
	rules    domain.PricingRules

	locks sync.Map
}

// NewCartService creates a new instance of CartService
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	coupons domain.CouponCatalog,
	rules domain.PricingRules,
) CartService {
	return &cartService{
		carts:    carts,
		products: products,
		coupons:  coupons,
		rules:    rules,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID string) (domain.CartSummary, error) {
	var summary domain.CartSummary
	err := s.withCart(ctx, userID, false, func(cart *CartEngine) error {
		summary = cart.Summary()
		return nil
	})
	return summary, err
}

// AddItem adds quantity units of a catalog product to the cart
func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int) (domain.CartSummary, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.CartSummary{}, err
	}

	return s.mutate(ctx, userID, func(cart *CartEngine) error {
		cart.AddItem(*product, quantity)
		return nil
	})
}

func (s *cartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (domain.CartSummary, error) {
	return s.mutate(ctx, userID, func(cart *CartEngine) error {
		cart.SetQuantity(productID, quantity)
		return nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (domain.CartSummary, error) {
	return s.mutate(ctx, userID, func(cart *CartEngine) error {
		cart.RemoveItem(productID)
		return nil
	})
}

func (s *cartService) Clear(ctx context.Context, userID string) error {
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *cartService) ApplyCoupon(ctx context.Context, userID, code string) (domain.CartSummary, error) {
	return s.mutate(ctx, userID, func(cart *CartEngine) error {
		return cart.CheckCoupon(code)
	})
}

func (s *cartService) RemoveCoupon(ctx context.Context, userID string) (domain.CartSummary, error) {
	return s.mutate(ctx, userID, func(cart *CartEngine) error {
		cart.RemoveCoupon()
		return nil
	})
}

func (s *cartService) Checkout(ctx context.Context, userID string, place func(summary domain.CartSummary) error) error {
	return s.withCart(ctx, userID, false, func(cart *CartEngine) error {
		if err := place(cart.Summary()); err != nil {
			return err
		}
		if err := s.carts.Delete(ctx, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

func (s *cartService) mutate(ctx context.Context, userID string, fn func(cart *CartEngine) error) (domain.CartSummary, error) {
	var summary domain.CartSummary
	err := s.withCart(ctx, userID, true, func(cart *CartEngine) error {
		if err := fn(cart); err != nil {
			return err
		}
		summary = cart.Summary()
		return nil
	})
	return summary, err
}

// withCart loads the user's cart under its lock, runs fn and saves the
// result when save is set and fn succeeded
func (s *cartService) withCart(ctx context.Context, userID string, save bool, fn func(cart *CartEngine) error) error {
	mu := s.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.carts.Load(ctx, userID)
	if err != nil {
		return err
	}

	cart := NewCartEngine(s.coupons, s.rules)
	cart.Restore(state)

	if err := fn(cart); err != nil {
		return err
	}
	if !save {
		return nil
	}
	return s.carts.Save(ctx, userID, cart.State())
}

func (s *cartService) lock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
