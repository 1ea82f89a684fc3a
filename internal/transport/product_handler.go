package transport

import (
	"errors"
	"net/http"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/middleware"
	"wms-storefront/internal/repository"
	"wms-storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the payload for adding a catalog product
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	Price        decimal.Decimal `json:"price" validate:"gte=0"`
	Stock        int             `json:"stock" validate:"gte=0"`
	Category     string          `json:"category" validate:"required"`
	Image        string          `json:"image" validate:"omitempty,url"`
	IsReturnable bool            `json:"isReturnable"`
	Featured     *bool           `json:"featured"`
	Discount     *int            `json:"discount" validate:"omitempty,gte=0,lte=100"`
}

// UpdateProductRequest represents a partial product update; absent fields are kept
type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description" validate:"omitempty,max=2000"`
	Price        *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock        *int             `json:"stock" validate:"omitempty,gte=0"`
	Category     *string          `json:"category"`
	Image        *string          `json:"image" validate:"omitempty,url"`
	IsReturnable *bool            `json:"isReturnable"`
	Featured     *bool            `json:"featured"`
	Discount     *int             `json:"discount" validate:"omitempty,gte=0,lte=100"`
}

// ProductHandler handles HTTP requests for the catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/categories", h.ListCategories)
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/featured", h.ListFeatured)
		r.Get("/{id}", h.GetProduct)
	})
}

// RegisterAdminRoutes registers catalog management routes on an admin router
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Patch("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})
}

// ListCategories returns the fixed category list
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.productService.Categories())
}

// ListProducts returns the catalog, optionally filtered by ?category=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.respondError(w, err, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListFeatured returns featured products
func (h *ProductHandler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListFeatured(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to list featured products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateProduct adds a product to the catalog
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Create(r.Context(), domain.Product{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		Category:     req.Category,
		Image:        req.Image,
		IsReturnable: req.IsReturnable,
		Featured:     req.Featured,
		Discount:     req.Discount,
	})
	if err != nil {
		h.respondError(w, err, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct applies a partial update to a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.productService.Update(r.Context(), chi.URLParam(r, "id"), domain.ProductPatch{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Stock:        req.Stock,
		Category:     req.Category,
		Image:        req.Image,
		IsReturnable: req.IsReturnable,
		Featured:     req.Featured,
		Discount:     req.Discount,
	})
	if err != nil {
		h.respondError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product from the catalog
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidStock),
		errors.Is(err, service.ErrInvalidDiscount),
		errors.Is(err, service.ErrInvalidCategory):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
