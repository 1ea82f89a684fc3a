package repository

import (
	"context"
	"sync"
	"time"

	"wms-storefront/internal/domain"

	"github.com/benbjohnson/clock"
)

// memoryProductRepository keeps the catalog in process memory. Every
// mutation replaces the slice instead of editing it in place, so slices
// handed out by earlier reads are never modified.
type memoryProductRepository struct {
	mu       sync.RWMutex
	products []domain.Product
	clock    clock.Clock
	latency  time.Duration
}

// NewMemoryProductRepository creates an in-memory ProductRepository that waits
// latency before each operation
func NewMemoryProductRepository(clk clock.Clock, latency time.Duration) ProductRepository {
	return &memoryProductRepository{clock: clk, latency: latency}
}

func (r *memoryProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}
	return r.filter(func(domain.Product) bool { return true }), nil
}

func (r *memoryProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *memoryProductRepository) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}
	return r.filter(domain.Product.IsFeatured), nil
}

func (r *memoryProductRepository) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}
	return r.filter(func(p domain.Product) bool { return p.Category == category }), nil
}

func (r *memoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return err
	}

	now := r.clock.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]domain.Product, 0, len(r.products)+1)
	next = append(next, r.products...)
	r.products = append(next, *product)
	return nil
}

func (r *memoryProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID != id {
			continue
		}
		updated := patch.Apply(p)
		updated.UpdatedAt = r.clock.Now().UTC()

		next := make([]domain.Product, len(r.products))
		copy(next, r.products)
		next[i] = updated
		r.products = next
		return &updated, nil
	}
	return nil, ErrProductNotFound
}

func (r *memoryProductRepository) Delete(ctx context.Context, id string) error {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID != id {
			continue
		}
		next := make([]domain.Product, 0, len(r.products)-1)
		next = append(next, r.products[:i]...)
		r.products = append(next, r.products[i+1:]...)
		return nil
	}
	return ErrProductNotFound
}

func (r *memoryProductRepository) filter(keep func(domain.Product) bool) []domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
