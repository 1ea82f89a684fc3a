package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"wms-storefront/internal/domain"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrStatusConflict = errors.New("order status does not allow this transition")
)

// maxOrderIDAttempts bounds the retries when a generated order number is taken
const maxOrderIDAttempts = 20

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	List(ctx context.Context) ([]domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// Create assigns the order ID and timestamps and stores the order
	Create(ctx context.Context, order *domain.Order) error
	// UpdateStatus moves the order to status regardless of its current status
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	// TransitionStatus moves the order to status only if its current status is
	// one of from. Otherwise it returns ErrStatusConflict.
	TransitionStatus(ctx context.Context, id string, status domain.OrderStatus, from ...domain.OrderStatus) (*domain.Order, error)
}

// NewOrderID returns an order number of the form ORD-NNNN
func NewOrderID() string {
	return fmt.Sprintf("ORD-%d", 1000+rand.IntN(9000))
}

// NewTrackingNumber returns a carrier tracking reference
func NewTrackingNumber() string {
	return "TRK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

const orderColumns = `id, user_id, items, status, subtotal, delivery_fee, discount, total, applied_coupon,
	delivery_address, payment_method, tracking_number, created_at, updated_at, shipped_at, delivered_at`

type orderRepository struct {
	db    *sql.DB
	clock clock.Clock
}

// NewOrderRepository creates a PostgreSQL backed OrderRepository
func NewOrderRepository(db *sql.DB, clk clock.Clock) OrderRepository {
	return &orderRepository{db: db, clock: clk}
}

// List retrieves all orders, newest first
func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

// ListByUser retrieves the orders placed by userID, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// Create inserts the order under a freshly generated order number
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	address, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("failed to encode delivery address: %w", err)
	}

	now := r.clock.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`

	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		order.ID = NewOrderID()

		result, err := r.db.ExecContext(
			ctx,
			query,
			order.ID,
			order.UserID,
			items,
			string(order.Status),
			order.Subtotal,
			order.DeliveryFee,
			order.Discount,
			order.Total,
			order.AppliedCoupon,
			address,
			string(order.PaymentMethod),
			order.TrackingNumber,
			order.CreatedAt,
			order.UpdatedAt,
			order.ShippedAt,
			order.DeliveredAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 1 {
			return nil
		}
	}

	return fmt.Errorf("failed to create order: no free order number after %d attempts", maxOrderIDAttempts)
}

// UpdateStatus moves the order to status unconditionally
func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return r.setStatus(ctx, id, status, nil)
}

// TransitionStatus moves the order to status if its current status is in from
func (r *orderRepository) TransitionStatus(ctx context.Context, id string, status domain.OrderStatus, from ...domain.OrderStatus) (*domain.Order, error) {
	if len(from) == 0 {
		return nil, ErrStatusConflict
	}
	return r.setStatus(ctx, id, status, from)
}

func (r *orderRepository) setStatus(ctx context.Context, id string, status domain.OrderStatus, from []domain.OrderStatus) (*domain.Order, error) {
	now := r.clock.Now().UTC()

	query := `
		UPDATE orders
		SET status = $2::text,
		    updated_at = $3::timestamptz,
		    shipped_at = CASE WHEN $2::text = 'shipped' AND shipped_at IS NULL THEN $3::timestamptz ELSE shipped_at END,
		    delivered_at = CASE WHEN $2::text = 'delivered' AND delivered_at IS NULL THEN $3::timestamptz ELSE delivered_at END,
		    tracking_number = CASE WHEN $2::text = 'shipped' AND tracking_number = '' THEN $4::text ELSE tracking_number END
		WHERE id = $1`
	args := []interface{}{id, string(status), now, NewTrackingNumber()}

	if len(from) > 0 {
		query += ` AND status IN (` + placeholders(len(args)+1, len(from)) + `)`
		for _, s := range from {
			args = append(args, string(s))
		}
	}
	query += ` RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	// No row matched: either the order is missing or its status did not qualify.
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrStatusConflict
}

func (r *orderRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order       domain.Order
		items       []byte
		address     []byte
		shippedAt   sql.NullTime
		deliveredAt sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&items,
		&order.Status,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Discount,
		&order.Total,
		&order.AppliedCoupon,
		&address,
		&order.PaymentMethod,
		&order.TrackingNumber,
		&order.CreatedAt,
		&order.UpdatedAt,
		&shippedAt,
		&deliveredAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if err := json.Unmarshal(address, &order.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("failed to decode delivery address: %w", err)
	}
	if shippedAt.Valid {
		t := shippedAt.Time
		order.ShippedAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		order.DeliveredAt = &t
	}

	return &order, nil
}
