package service

import (
	"errors"
	"sync"

	"wms-storefront/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownCoupon       = errors.New("unknown coupon code")
	ErrCouponMinimumNotMet = errors.New("minimum order not met")
)

// CartEngine holds the line items and applied coupon of a single cart and
// derives every price figure from them. Figures are recomputed on each read,
// so an applied coupon whose minimum is no longer met silently yields no
// discount until the subtotal climbs back.
type CartEngine struct {
	mu      sync.RWMutex
	items   []domain.CartItem
	coupon  string
	coupons domain.CouponCatalog
	rules   domain.PricingRules
}

// NewCartEngine creates an empty cart priced with the given coupon catalog and rules
func NewCartEngine(coupons domain.CouponCatalog, rules domain.PricingRules) *CartEngine {
	if coupons == nil {
		coupons = domain.CouponCatalog{}
	}
	return &CartEngine{
		coupons: coupons,
		rules:   rules,
	}
}

// AddItem increments the quantity of an existing line for the product or
// appends a new one. Non-positive quantities are ignored.
func (c *CartEngine) AddItem(product domain.Product, quantity int) {
	if quantity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Product.ID == product.ID {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, domain.CartItem{Product: product, Quantity: quantity})
}

// RemoveItem deletes the line for productID if there is one
func (c *CartEngine) RemoveItem(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(productID)
}

func (c *CartEngine) removeLocked(productID string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.Product.ID != productID {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

// SetQuantity replaces the quantity of the matching line. A quantity of zero
// or less removes the line.
func (c *CartEngine) SetQuantity(productID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.removeLocked(productID)
		return
	}
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart and drops the applied coupon
func (c *CartEngine) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.coupon = ""
}

// CheckCoupon applies code and reports why it was refused, if it was.
// A successful call replaces any previously applied coupon.
func (c *CartEngine) CheckCoupon(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	coupon, ok := c.coupons[code]
	if !ok {
		return ErrUnknownCoupon
	}
	if c.subtotalLocked().LessThan(coupon.MinOrder) {
		return ErrCouponMinimumNotMet
	}
	c.coupon = code
	return nil
}

// ApplyCoupon applies code and reports whether it was accepted
func (c *CartEngine) ApplyCoupon(code string) bool {
	return c.CheckCoupon(code) == nil
}

// RemoveCoupon drops the applied coupon
func (c *CartEngine) RemoveCoupon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coupon = ""
}

// AppliedCoupon returns the applied coupon code, empty when none
func (c *CartEngine) AppliedCoupon() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.coupon
}

// Items returns a copy of the line items
func (c *CartEngine) Items() []domain.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.CartItem(nil), c.items...)
}

// TotalItems returns the number of units in the cart
func (c *CartEngine) TotalItems() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// Subtotal returns the sum of price times quantity over all lines
func (c *CartEngine) Subtotal() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subtotalLocked()
}

// DeliveryFee returns the fee owed for the current subtotal
func (c *CartEngine) DeliveryFee() decimal.Decimal {
	return c.Summary().DeliveryFee
}

// Discount returns the coupon discount valid for the current subtotal
func (c *CartEngine) Discount() decimal.Decimal {
	return c.Summary().Discount
}

// GrandTotal returns subtotal + delivery fee - discount
func (c *CartEngine) GrandTotal() decimal.Decimal {
	return c.Summary().GrandTotal
}

// Summary returns all derived figures computed from a single read of the cart
func (c *CartEngine) Summary() domain.CartSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subtotal := c.subtotalLocked()
	fee := DeliveryFeeFor(subtotal, c.rules)
	discount := c.discountLocked(subtotal)

	totalItems := 0
	for _, item := range c.items {
		totalItems += item.Quantity
	}

	return domain.CartSummary{
		Items:         append([]domain.CartItem{}, c.items...),
		TotalItems:    totalItems,
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Discount:      discount,
		GrandTotal:    subtotal.Add(fee).Sub(discount),
		AppliedCoupon: c.coupon,
	}
}

// State exports the persisted part of the cart
func (c *CartEngine) State() domain.CartState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.CartState{
		Items:         append([]domain.CartItem{}, c.items...),
		AppliedCoupon: c.coupon,
	}
}

// Restore replaces the cart contents with state. Lines for the same product
// are merged and lines with a non-positive quantity are dropped.
func (c *CartEngine) Restore(state domain.CartState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	for _, item := range state.Items {
		if item.Quantity <= 0 {
			continue
		}
		merged := false
		for i := range c.items {
			if c.items[i].Product.ID == item.Product.ID {
				c.items[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
		if !merged {
			c.items = append(c.items, item)
		}
	}
	c.coupon = state.AppliedCoupon
}

func (c *CartEngine) subtotalLocked() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

func (c *CartEngine) discountLocked(subtotal decimal.Decimal) decimal.Decimal {
	if c.coupon == "" {
		return decimal.Zero
	}
	coupon, ok := c.coupons[c.coupon]
	if !ok || subtotal.LessThan(coupon.MinOrder) {
		return decimal.Zero
	}
	return coupon.Amount
}

// DeliveryFeeFor returns zero when subtotal is strictly above the free
// delivery threshold and the flat fee otherwise
func DeliveryFeeFor(subtotal decimal.Decimal, rules domain.PricingRules) decimal.Decimal {
	if subtotal.GreaterThan(rules.FreeDeliveryAbove) {
		return decimal.Zero
	}
	return rules.DeliveryFee
}
