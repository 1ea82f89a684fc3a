package service

import (
	"context"
	"errors"
	"fmt"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidStock    = errors.New("stock must not be negative")
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	ErrInvalidCategory = errors.New("unknown product category")
)

// ProductService defines the interface for catalog browsing and administration
type ProductService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	ListFeatured(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Categories() []string
	Create(ctx context.Context, product domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{products: products, logger: logger}
}

// List returns the catalog, restricted to category when it is set
func (s *productService) List(ctx context.Context, category string) ([]domain.Product, error) {
	if category == "" {
		return s.products.List(ctx)
	}
	if !domain.IsValidCategory(category) {
		return nil, ErrInvalidCategory
	}
	return s.products.ListByCategory(ctx, category)
}

func (s *productService) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListFeatured(ctx)
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *productService) Categories() []string {
	return append([]string(nil), domain.ProductCategories...)
}

// Create validates and stores a new product under a fresh ID
func (s *productService) Create(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	product.ID = uuid.NewString()
	if err := s.products.Create(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return &product, nil
}

// Update applies patch to an existing product after validating the result
func (s *productService) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	current, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateProduct(patch.Apply(*current)); err != nil {
		return nil, err
	}

	updated, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.String("product_id", id))
	return updated, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

func validateProduct(p domain.Product) error {
	if p.Price.LessThan(decimal.Zero) {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	if pct := p.DiscountPercent(); pct < 0 || pct > 100 {
		return ErrInvalidDiscount
	}
	if !domain.IsValidCategory(p.Category) {
		return ErrInvalidCategory
	}
	return nil
}
