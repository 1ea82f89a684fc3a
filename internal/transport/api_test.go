package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/middleware"
	"wms-storefront/internal/repository"
	"wms-storefront/internal/service"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "transport-test-secret"

// testAPI is a router wired over the in-memory stores and the seeded catalog
type testAPI struct {
	t         *testing.T
	router    http.Handler
	clock     *clock.Mock
	auth      service.AuthService
	products  repository.ProductRepository
	orders    repository.OrderRepository
	simulator *service.LifecycleSimulator
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	products := repository.NewMemoryProductRepository(mock, 0)
	_, err := repository.SeedCatalog(ctx, products)
	require.NoError(t, err)

	users, err := repository.SeedUsers(bcrypt.MinCost)
	require.NoError(t, err)

	orders := repository.NewMemoryOrderRepository(mock, 0)
	simulator := service.NewLifecycleSimulator(orders, mock, service.DefaultSchedule(), logger)
	t.Cleanup(simulator.Stop)

	authService := service.NewAuthService(repository.NewUserRepository(users...), testJWTSecret, time.Hour)
	productService := service.NewProductService(products, logger)
	cartService := service.NewCartService(repository.NewMemoryCartRepository(), products, domain.DefaultCoupons(), domain.DefaultPricingRules())
	orderService := service.NewOrderService(orders, products, cartService, simulator, logger)

	authMiddleware := middleware.AuthMiddleware(authService, logger)

	r := chi.NewRouter()
	r.Use(middleware.ErrorHandlingMiddleware(logger))
	r.NotFound(middleware.NotFoundHandler)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler)

	NewAuthHandler(authService, logger).RegisterRoutes(r, authMiddleware, nil)
	productHandler := NewProductHandler(productService, logger)
	productHandler.RegisterRoutes(r)
	NewCartHandler(cartService, logger).RegisterRoutes(r, authMiddleware)
	orderHandler := NewOrderHandler(orderService, logger)
	orderHandler.RegisterRoutes(r, authMiddleware)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin(logger))
		productHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
	})

	return &testAPI{
		t:         t,
		router:    r,
		clock:     mock,
		auth:      authService,
		products:  products,
		orders:    orders,
		simulator: simulator,
	}
}

// login returns an access token for one of the seeded accounts
func (a *testAPI) login(email, password string) string {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(a.t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.AccessToken
}

func (a *testAPI) customerToken() string {
	return a.login("user@example.com", "user123")
}

func (a *testAPI) adminToken() string {
	return a.login("admin@example.com", "admin123")
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp middleware.ErrorResponse
	decodeBody(t, rec, &resp)
	return resp.Error.Message
}
