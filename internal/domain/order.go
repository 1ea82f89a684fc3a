package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is expected from s
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Cancellable reports whether a customer may still cancel an order in status s
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// PaymentMethod is how the customer pays for an order
type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodUPI  PaymentMethod = "upi"
)

// Valid reports whether m is a supported payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodUPI:
		return true
	}
	return false
}

// DeliveryAddress is where an order is shipped
type DeliveryAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Phone        string `json:"phone"`
}

// OrderItem is a product snapshot with the price paid at checkout
type OrderItem struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LineTotal returns price times quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a placed order. The money fields are snapshots taken at
// checkout and never follow later product price changes.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	Status          OrderStatus     `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	AppliedCoupon   string          `json:"appliedCoupon,omitempty"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
}

// ItemCount returns the number of units across all items
func (o Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Clone returns a deep copy so callers cannot mutate stored state
func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.ShippedAt != nil {
		t := *o.ShippedAt
		c.ShippedAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return c
}

// WithStatus returns a copy of o moved to status at now. ShippedAt and
// DeliveredAt are stamped only on the first arrival in their status.
// newTracking is called to assign a tracking number on first shipment.
func (o Order) WithStatus(status OrderStatus, now time.Time, newTracking func() string) Order {
	c := o.Clone()
	c.Status = status
	c.UpdatedAt = now
	switch status {
	case OrderStatusShipped:
		if c.ShippedAt == nil {
			t := now
			c.ShippedAt = &t
		}
		if c.TrackingNumber == "" && newTracking != nil {
			c.TrackingNumber = newTracking()
		}
	case OrderStatusDelivered:
		if c.DeliveredAt == nil {
			t := now
			c.DeliveredAt = &t
		}
	}
	return c
}
