package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategories lists the categories a product may belong to
var ProductCategories = []string{
	"Electronics",
	"Furniture",
	"Clothing",
	"Toys",
	"Books",
	"Kitchen",
	"Sports",
	"Tools",
	"Home",
}

// LowStockThreshold marks products the admin dashboard reports as running low
const LowStockThreshold = 10

// Product represents a product in the catalog.
//
// Featured and Discount are optional: a nil Featured means the product is not
// featured and a nil Discount means 0% off. Neither is treated as invalid.
type Product struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Stock        int             `json:"stock" db:"stock"`
	Category     string          `json:"category" db:"category"`
	Image        string          `json:"image" db:"image"`
	IsReturnable bool            `json:"isReturnable" db:"is_returnable"`
	Featured     *bool           `json:"featured,omitempty" db:"featured"`
	Discount     *int            `json:"discount,omitempty" db:"discount"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// IsFeatured reports whether the product is flagged as featured
func (p Product) IsFeatured() bool {
	return p.Featured != nil && *p.Featured
}

// DiscountPercent returns the discount percentage, 0 when none is set
func (p Product) DiscountPercent() int {
	if p.Discount == nil {
		return 0
	}
	return *p.Discount
}

// FinalPrice returns the display price after the product discount
func (p Product) FinalPrice() decimal.Decimal {
	pct := p.DiscountPercent()
	if pct == 0 {
		return p.Price
	}
	off := p.Price.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
	return p.Price.Sub(off)
}

// InStock reports whether at least one unit is available
func (p Product) InStock() bool {
	return p.Stock > 0
}

// IsValidCategory reports whether category is one of ProductCategories
func IsValidCategory(category string) bool {
	for _, c := range ProductCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ProductPatch carries a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Stock        *int             `json:"stock,omitempty"`
	Category     *string          `json:"category,omitempty"`
	Image        *string          `json:"image,omitempty"`
	IsReturnable *bool            `json:"isReturnable,omitempty"`
	Featured     *bool            `json:"featured,omitempty"`
	Discount     *int             `json:"discount,omitempty"`
}

// Apply returns a copy of p with the patch fields applied
func (patch ProductPatch) Apply(p Product) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.IsReturnable != nil {
		p.IsReturnable = *patch.IsReturnable
	}
	if patch.Featured != nil {
		featured := *patch.Featured
		p.Featured = &featured
	}
	if patch.Discount != nil {
		discount := *patch.Discount
		p.Discount = &discount
	}
	return p
}
