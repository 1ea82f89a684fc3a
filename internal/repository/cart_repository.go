package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"wms-storefront/internal/domain"

	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

// CartRepository persists the cart state of each user between requests
type CartRepository interface {
	// Load returns the saved state, or an empty state when nothing is saved
	Load(ctx context.Context, userID string) (domain.CartState, error)
	Save(ctx context.Context, userID string, state domain.CartState) error
	Delete(ctx context.Context, userID string) error
}

type redisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartRepository creates a CartRepository storing JSON documents in
// Redis. A zero ttl keeps carts forever.
func NewRedisCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &redisCartRepository{client: client, ttl: ttl}
}

func (r *redisCartRepository) Load(ctx context.Context, userID string) (domain.CartState, error) {
	raw, err := r.client.Get(ctx, cartKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CartState{}, nil
		}
		return domain.CartState{}, fmt.Errorf("failed to load cart: %w", err)
	}

	var state domain.CartState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.CartState{}, fmt.Errorf("failed to decode cart: %w", err)
	}
	return state, nil
}

func (r *redisCartRepository) Save(ctx context.Context, userID string, state domain.CartState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKeyPrefix+userID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *redisCartRepository) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

type memoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

// NewMemoryCartRepository creates a CartRepository kept in process memory.
// States are stored encoded so later edits by callers never leak in.
func NewMemoryCartRepository() CartRepository {
	return &memoryCartRepository{carts: make(map[string][]byte)}
}

func (r *memoryCartRepository) Load(ctx context.Context, userID string) (domain.CartState, error) {
	r.mu.RLock()
	raw, ok := r.carts[userID]
	r.mu.RUnlock()

	if !ok {
		return domain.CartState{}, nil
	}

	var state domain.CartState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.CartState{}, fmt.Errorf("failed to decode cart: %w", err)
	}
	return state, nil
}

func (r *memoryCartRepository) Save(ctx context.Context, userID string, state domain.CartState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[userID] = raw
	return nil
}

func (r *memoryCartRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}
