package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wms-storefront/internal/domain"

	"github.com/benbjohnson/clock"
)

type memoryOrderRepository struct {
	mu      sync.RWMutex
	orders  []domain.Order
	clock   clock.Clock
	latency time.Duration
}

// NewMemoryOrderRepository creates an in-memory OrderRepository that waits
// latency before each operation
func NewMemoryOrderRepository(clk clock.Clock, latency time.Duration) OrderRepository {
	return &memoryOrderRepository{clock: clk, latency: latency}
}

func (r *memoryOrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}
	return r.filter(func(domain.Order) bool { return true }), nil
}

func (r *memoryOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.ID == id {
			order := o.Clone()
			return &order, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (r *memoryOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}
	return r.filter(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r *memoryOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := ""
	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		candidate := NewOrderID()
		if !r.existsLocked(candidate) {
			id = candidate
			break
		}
	}
	if id == "" {
		return fmt.Errorf("failed to create order: no free order number after %d attempts", maxOrderIDAttempts)
	}

	now := r.clock.Now().UTC()
	order.ID = id
	order.CreatedAt = now
	order.UpdatedAt = now

	next := make([]domain.Order, 0, len(r.orders)+1)
	next = append(next, r.orders...)
	r.orders = append(next, order.Clone())
	return nil
}

func (r *memoryOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return r.setStatus(ctx, id, status, nil)
}

func (r *memoryOrderRepository) TransitionStatus(ctx context.Context, id string, status domain.OrderStatus, from ...domain.OrderStatus) (*domain.Order, error) {
	if len(from) == 0 {
		return nil, ErrStatusConflict
	}
	return r.setStatus(ctx, id, status, from)
}

func (r *memoryOrderRepository) setStatus(ctx context.Context, id string, status domain.OrderStatus, from []domain.OrderStatus) (*domain.Order, error) {
	if err := simulateLatency(ctx, r.clock, r.latency); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, o := range r.orders {
		if o.ID != id {
			continue
		}
		if from != nil && !statusIn(o.Status, from) {
			return nil, ErrStatusConflict
		}

		updated := o.WithStatus(status, r.clock.Now().UTC(), NewTrackingNumber)

		next := make([]domain.Order, len(r.orders))
		copy(next, r.orders)
		next[i] = updated
		r.orders = next

		result := updated.Clone()
		return &result, nil
	}
	return nil, ErrOrderNotFound
}

func (r *memoryOrderRepository) existsLocked(id string) bool {
	for _, o := range r.orders {
		if o.ID == id {
			return true
		}
	}
	return false
}

// filter returns matching orders newest first
func (r *memoryOrderRepository) filter(keep func(domain.Order) bool) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func statusIn(status domain.OrderStatus, set []domain.OrderStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
