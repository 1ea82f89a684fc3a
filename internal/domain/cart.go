package domain

import (
	"github.com/shopspring/decimal"
)

// CartItem is a product line in a cart
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns the list price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartState is the persisted part of a cart: its items and the applied coupon code
type CartState struct {
	Items         []CartItem `json:"items"`
	AppliedCoupon string     `json:"appliedCoupon,omitempty"`
}

// Coupon grants a fixed discount once the order reaches MinOrder
type Coupon struct {
	Code     string          `json:"code"`
	Amount   decimal.Decimal `json:"amount"`
	MinOrder decimal.Decimal `json:"minOrder"`
}

// CouponCatalog maps coupon codes to their terms
type CouponCatalog map[string]Coupon

// DefaultCoupons returns the built-in coupon catalog
func DefaultCoupons() CouponCatalog {
	return CouponCatalog{
		"SAVE50": {
			Code:     "SAVE50",
			Amount:   decimal.NewFromInt(50),
			MinOrder: decimal.NewFromInt(300),
		},
		"SAVE100": {
			Code:     "SAVE100",
			Amount:   decimal.NewFromInt(100),
			MinOrder: decimal.NewFromInt(500),
		},
	}
}

// PricingRules configures the delivery fee: orders strictly above
// FreeDeliveryAbove ship free, everything else pays DeliveryFee
type PricingRules struct {
	FreeDeliveryAbove decimal.Decimal
	DeliveryFee       decimal.Decimal
}

// DefaultPricingRules returns free delivery above 100 and a fee of 10 otherwise
func DefaultPricingRules() PricingRules {
	return PricingRules{
		FreeDeliveryAbove: decimal.NewFromInt(100),
		DeliveryFee:       decimal.NewFromInt(10),
	}
}

// CartSummary is the set of figures derived from a cart at one point in time
type CartSummary struct {
	Items         []CartItem      `json:"items"`
	TotalItems    int             `json:"totalItems"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	Discount      decimal.Decimal `json:"discount"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	AppliedCoupon string          `json:"appliedCoupon,omitempty"`
}
