package service

import (
	"context"
	"testing"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProductService(t *testing.T) (ProductService, repository.ProductRepository) {
	t.Helper()
	repo := newTestCatalog(t, repository.SeedProducts()...)
	return NewProductService(repo, zap.NewNop()), repo
}

// Feature: storefront, Property 6: Category filter only returns products of that category
func TestProperty_CategoryFilter(t *testing.T) {
	service, _ := newTestProductService(t)
	properties := gopter.NewProperties(nil)

	properties.Property("every listed product belongs to the requested category", prop.ForAll(
		func(category string) bool {
			products, err := service.List(context.Background(), category)
			if err != nil {
				t.Logf("FAIL: listing %s: %v", category, err)
				return false
			}
			for _, p := range products {
				if p.Category != category {
					t.Logf("FAIL: product %s has category %s", p.ID, p.Category)
					return false
				}
			}
			return true
		},
		gen.OneConstOf("Electronics", "Furniture", "Clothing", "Toys", "Books", "Kitchen", "Sports", "Tools", "Home"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductService_Browse(t *testing.T) {
	service, _ := newTestProductService(t)
	ctx := context.Background()

	all, err := service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(repository.SeedProducts()))

	featured, err := service.ListFeatured(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, featured)
	for _, p := range featured {
		assert.True(t, p.IsFeatured())
	}

	_, err = service.List(ctx, "Groceries")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = service.Get(ctx, "404")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	assert.Equal(t, domain.ProductCategories, service.Categories())
}

func TestProductService_CreateValidates(t *testing.T) {
	service, _ := newTestProductService(t)
	ctx := context.Background()

	base := domain.Product{
		Name:     "Standing Desk",
		Price:    decimal.NewFromInt(450),
		Stock:    8,
		Category: "Furniture",
	}

	tests := []struct {
		name   string
		mutate func(p *domain.Product)
		err    error
	}{
		{"negative price", func(p *domain.Product) { p.Price = decimal.NewFromInt(-1) }, ErrInvalidPrice},
		{"negative stock", func(p *domain.Product) { p.Stock = -1 }, ErrInvalidStock},
		{"discount above 100", func(p *domain.Product) { d := 101; p.Discount = &d }, ErrInvalidDiscount},
		{"negative discount", func(p *domain.Product) { d := -5; p.Discount = &d }, ErrInvalidDiscount},
		{"unknown category", func(p *domain.Product) { p.Category = "Groceries" }, ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			_, err := service.Create(ctx, p)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	created, err := service.Create(ctx, base)
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err)

	stored, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standing Desk", stored.Name)
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	service, _ := newTestProductService(t)
	ctx := context.Background()

	stock := 3
	featured := true
	updated, err := service.Update(ctx, "1", domain.ProductPatch{Stock: &stock, Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.True(t, updated.IsFeatured())

	badDiscount := 150
	_, err = service.Update(ctx, "1", domain.ProductPatch{Discount: &badDiscount})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = service.Update(ctx, "404", domain.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	require.NoError(t, service.Delete(ctx, "1"))
	assert.ErrorIs(t, service.Delete(ctx, "1"), repository.ErrProductNotFound)
	_, err = service.Get(ctx, "1")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
