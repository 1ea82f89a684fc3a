package transport

import (
	"errors"
	"net/http"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/middleware"
	"wms-storefront/internal/repository"
	"wms-storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DeliveryAddressRequest is the shipping address supplied at checkout
type DeliveryAddressRequest struct {
	FullName     string `json:"fullName" validate:"required,max=100"`
	AddressLine1 string `json:"addressLine1" validate:"required,max=200"`
	AddressLine2 string `json:"addressLine2" validate:"max=200"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	PostalCode   string `json:"postalCode" validate:"required,max=20"`
	Phone        string `json:"phone" validate:"required,min=7,max=20"`
}

// PlaceOrderRequest represents the checkout payload
type PlaceOrderRequest struct {
	DeliveryAddress DeliveryAddressRequest `json:"deliveryAddress" validate:"required"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required,oneof=cod card upi"`
}

// UpdateOrderStatusRequest represents an admin status change
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers the customer order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.PlaceOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
	})
}

// RegisterAdminRoutes registers order management routes on an admin router
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.ListAllOrders)
	r.Put("/orders/{id}/status", h.UpdateOrderStatus)
	r.Get("/dashboard", h.GetDashboard)
}

// PlaceOrder checks out the user's cart
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	addr := req.DeliveryAddress
	order, err := h.orderService.PlaceOrder(r.Context(), userID, service.PlaceOrderInput{
		DeliveryAddress: domain.DeliveryAddress{
			FullName:     addr.FullName,
			AddressLine1: addr.AddressLine1,
			AddressLine2: addr.AddressLine2,
			City:         addr.City,
			State:        addr.State,
			PostalCode:   addr.PostalCode,
			Phone:        addr.Phone,
		},
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		h.respondError(w, err, "failed to place order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOrders returns the user's orders, newest first
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	orders, err := h.orderService.ListForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order. Admins may read any order.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.GetForUser(r.Context(), userID, chi.URLParam(r, "id"), middleware.IsAdmin(r.Context()))
	if err != nil {
		h.respondError(w, err, "failed to get order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// CancelOrder cancels a pending or processing order
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err, "failed to cancel order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// ListAllOrders returns every order, optionally filtered by ?status=
func (h *OrderHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.orderService.ListAll(r.Context(), status)
	if err != nil {
		h.respondError(w, err, "failed to list orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus sets an order's status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		h.respondError(w, err, "failed to update order status")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// GetDashboard returns store statistics
func (h *OrderHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.orderService.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to build dashboard")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, dashboard)
}

func (h *OrderHandler) respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidOrderStatus):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOrderNotCancellable):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
