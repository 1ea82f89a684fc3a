package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/repository"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// transitionTimeout bounds a single scheduled status update
const transitionTimeout = 30 * time.Second

// Schedule holds the delays, relative to order placement, after which an
// order is moved to each fulfillment status
type Schedule struct {
	Processing time.Duration
	Shipped    time.Duration
	Delivered  time.Duration
}

// DefaultSchedule returns the demo fulfillment timing
func DefaultSchedule() Schedule {
	return Schedule{
		Processing: time.Second,
		Shipped:    2 * time.Minute,
		Delivered:  10 * time.Minute,
	}
}

// OrderObserver is notified with the updated order after each automatic transition
type OrderObserver func(order domain.Order)

type lifecycleStep struct {
	status domain.OrderStatus
	from   []domain.OrderStatus
	delay  func(Schedule) time.Duration
}

// Steps never move an order backwards and never touch a cancelled one.
var lifecycleSteps = []lifecycleStep{
	{
		status: domain.OrderStatusProcessing,
		from:   []domain.OrderStatus{domain.OrderStatusPending},
		delay:  func(s Schedule) time.Duration { return s.Processing },
	},
	{
		status: domain.OrderStatusShipped,
		from:   []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusProcessing},
		delay:  func(s Schedule) time.Duration { return s.Shipped },
	},
	{
		status: domain.OrderStatusDelivered,
		from:   []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusShipped},
		delay:  func(s Schedule) time.Duration { return s.Delivered },
	},
}

// LifecycleSimulator advances placed orders through processing, shipped and
// delivered on a timer, emulating a fulfillment pipeline. Every scheduled
// transition is kept per order so that cancelling the order stops them.
type LifecycleSimulator struct {
	orders   repository.OrderRepository
	clock    clock.Clock
	schedule Schedule
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	timers    map[string]map[domain.OrderStatus]*clock.Timer
	observers []OrderObserver
	inflight  sync.WaitGroup
}

// NewLifecycleSimulator creates a simulator updating orders through repo
func NewLifecycleSimulator(orders repository.OrderRepository, clk clock.Clock, schedule Schedule, logger *zap.Logger) *LifecycleSimulator {
	ctx, cancel := context.WithCancel(context.Background())
	return &LifecycleSimulator{
		orders:   orders,
		clock:    clk,
		schedule: schedule,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		timers:   make(map[string]map[domain.OrderStatus]*clock.Timer),
	}
}

// Subscribe registers an observer for automatic transitions
func (s *LifecycleSimulator) Subscribe(observer OrderObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Start schedules the automatic transitions for a newly placed order
func (s *LifecycleSimulator) Start(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	orderID := order.ID
	if _, scheduled := s.timers[orderID]; scheduled {
		return
	}

	timers := make(map[domain.OrderStatus]*clock.Timer, len(lifecycleSteps))
	for _, step := range lifecycleSteps {
		timers[step.status] = s.clock.AfterFunc(step.delay(s.schedule), func() {
			s.fire(orderID, step)
		})
	}
	s.timers[orderID] = timers

	s.logger.Debug("Order lifecycle scheduled",
		zap.String("order_id", orderID),
		zap.Duration("processing_after", s.schedule.Processing),
		zap.Duration("shipped_after", s.schedule.Shipped),
		zap.Duration("delivered_after", s.schedule.Delivered),
	)
}

// Cancel stops every transition still scheduled for orderID and returns how
// many were stopped
func (s *LifecycleSimulator) Cancel(orderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := 0
	for _, timer := range s.timers[orderID] {
		if timer.Stop() {
			stopped++
		}
	}
	delete(s.timers, orderID)

	if stopped > 0 {
		s.logger.Debug("Order lifecycle cancelled",
			zap.String("order_id", orderID),
			zap.Int("stopped", stopped),
		)
	}
	return stopped
}

// Pending returns the number of transitions still scheduled for orderID
func (s *LifecycleSimulator) Pending(orderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers[orderID])
}

// Stop cancels every scheduled transition and waits for running ones to finish
func (s *LifecycleSimulator) Stop() {
	s.mu.Lock()
	s.cancel()
	for orderID, timers := range s.timers {
		for _, timer := range timers {
			timer.Stop()
		}
		delete(s.timers, orderID)
	}
	s.mu.Unlock()

	s.inflight.Wait()
}

func (s *LifecycleSimulator) fire(orderID string, step lifecycleStep) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	observers := append([]OrderObserver(nil), s.observers...)
	s.mu.Unlock()

	defer s.inflight.Done()
	defer s.forget(orderID, step.status)

	ctx, cancel := context.WithTimeout(s.ctx, transitionTimeout)
	defer cancel()

	updated, err := s.orders.TransitionStatus(ctx, orderID, step.status, step.from...)
	if err != nil {
		fields := []zap.Field{
			zap.String("order_id", orderID),
			zap.String("status", string(step.status)),
			zap.Error(err),
		}
		if errors.Is(err, repository.ErrStatusConflict) {
			s.logger.Info("Skipped order status update", fields...)
		} else {
			s.logger.Warn("Failed to update order status", fields...)
		}
		return
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(updated.Status)),
	)

	for _, observe := range observers {
		observe(*updated)
	}
}

// forget drops a fired timer from the bookkeeping of orderID
func (s *LifecycleSimulator) forget(orderID string, status domain.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timers, ok := s.timers[orderID]
	if !ok {
		return
	}
	delete(timers, status)
	if len(timers) == 0 {
		delete(s.timers, orderID)
	}
}
