package service

import (
	"context"
	"encoding/json"
	"time"

	"wms-storefront/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StatusChannel is the Redis pub/sub channel carrying order status events
const StatusChannel = "orders:status"

const publishTimeout = 2 * time.Second

// StatusEvent is the message published for every automatic status change
type StatusEvent struct {
	OrderID        string             `json:"orderId"`
	UserID         string             `json:"userId"`
	Status         domain.OrderStatus `json:"status"`
	TrackingNumber string             `json:"trackingNumber,omitempty"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// NewStatusEvent builds the event describing the current status of order
func NewStatusEvent(order domain.Order) StatusEvent {
	return StatusEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		TrackingNumber: order.TrackingNumber,
		UpdatedAt:      order.UpdatedAt,
	}
}

// StatusLogger returns an observer writing each status change to logger
func StatusLogger(logger *zap.Logger) OrderObserver {
	return func(order domain.Order) {
		fields := []zap.Field{
			zap.String("order_id", order.ID),
			zap.String("user_id", order.UserID),
			zap.String("status", string(order.Status)),
		}
		if order.TrackingNumber != "" {
			fields = append(fields, zap.String("tracking_number", order.TrackingNumber))
		}
		logger.Info("Order progressed", fields...)
	}
}

// RedisStatusPublisher returns an observer publishing a StatusEvent as JSON
// on channel. Publish failures are logged and dropped.
func RedisStatusPublisher(client *redis.Client, channel string, logger *zap.Logger) OrderObserver {
	return func(order domain.Order) {
		payload, err := json.Marshal(NewStatusEvent(order))
		if err != nil {
			logger.Error("Failed to encode status event", zap.String("order_id", order.ID), zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := client.Publish(ctx, channel, payload).Err(); err != nil {
			logger.Warn("Failed to publish status event",
				zap.String("order_id", order.ID),
				zap.String("channel", channel),
				zap.Error(err),
			)
		}
	}
}
