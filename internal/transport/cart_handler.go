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

// AddCartItemRequest represents the payload for adding a product to the cart
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=99"`
}

// SetQuantityRequest represents the payload for changing a line quantity.
// Zero removes the line.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

// ApplyCouponRequest represents the payload for applying a coupon code
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

// CartHandler handles HTTP requests for the user's cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers the cart routes; all of them need authentication
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.SetQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Post("/coupon", h.ApplyCoupon)
		r.Delete("/coupon", h.RemoveCoupon)
	})
}

// GetCart returns the cart with all derived figures
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	h.respond(w, userID)(h.cartService.GetCart(r.Context(), userID))
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if err := h.cartService.Clear(r.Context(), userID); err != nil {
		h.respondError(w, userID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem adds a product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	h.respond(w, userID)(h.cartService.AddItem(r.Context(), userID, req.ProductID, req.Quantity))
}

// SetQuantity replaces the quantity of a cart line
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	h.respond(w, userID)(h.cartService.SetQuantity(r.Context(), userID, chi.URLParam(r, "productID"), req.Quantity))
}

// RemoveItem deletes a cart line
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	h.respond(w, userID)(h.cartService.RemoveItem(r.Context(), userID, chi.URLParam(r, "productID")))
}

// ApplyCoupon applies a coupon code. Refused codes answer 422 with the reason.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ApplyCouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	h.respond(w, userID)(h.cartService.ApplyCoupon(r.Context(), userID, req.Code))
}

// RemoveCoupon drops the applied coupon
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	h.respond(w, userID)(h.cartService.RemoveCoupon(r.Context(), userID))
}

func (h *CartHandler) respond(w http.ResponseWriter, userID string) func(domain.CartSummary, error) {
	return func(summary domain.CartSummary, err error) {
		if err != nil {
			h.respondError(w, userID, err)
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, summary)
	}
}

func (h *CartHandler) respondError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnknownCoupon), errors.Is(err, service.ErrCouponMinimumNotMet):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("Cart operation failed", zap.String("user_id", userID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "cart operation failed")
	}
}

// requireUserID reads the authenticated user, answering 401 when there is none
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID == "" {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}
