package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"wms-storefront/internal/config"
	"wms-storefront/internal/database"
	custommiddleware "wms-storefront/internal/middleware"
	"wms-storefront/internal/repository"
	"wms-storefront/internal/service"
	"wms-storefront/internal/transport"

	"github.com/benbjohnson/clock"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	db        *sql.DB
	redis     *redis.Client
	simulator *service.LifecycleSimulator
}

type stores struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
}

// NewServer connects the configured backends, seeds the catalog and builds the router
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{config: cfg, logger: logger}

	clk := clock.New()
	st, err := s.openStores(ctx, clk)
	if err != nil {
		s.Close()
		return nil, err
	}

	seeded, err := repository.SeedCatalog(ctx, st.products)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}
	if seeded > 0 {
		logger.Info("Catalog seeded", zap.Int("products", seeded))
	}

	users, err := repository.SeedUsers(service.BcryptCost)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}

	s.simulator = service.NewLifecycleSimulator(st.orders, clk, service.Schedule{
		Processing: cfg.Lifecycle.Processing,
		Shipped:    cfg.Lifecycle.Shipped,
		Delivered:  cfg.Lifecycle.Delivered,
	}, logger)
	s.simulator.Subscribe(service.StatusLogger(logger))
	if s.redis != nil {
		s.simulator.Subscribe(service.RedisStatusPublisher(s.redis, service.StatusChannel, logger))
	}

	authService := service.NewAuthService(repository.NewUserRepository(users...), cfg.JWT.Secret, cfg.JWT.AccessExpiry)
	productService := service.NewProductService(st.products, logger)
	cartService := service.NewCartService(st.carts, st.products, cfg.Pricing.Coupons, cfg.Pricing.Rules)
	orderService := service.NewOrderService(st.orders, st.products, cartService, s.simulator, logger)

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack(cfg.Server.RequestTimeout)...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.NotFound(custommiddleware.NotFoundHandler)
	router.MethodNotAllowed(custommiddleware.MethodNotAllowedHandler)

	router.Get("/health", s.health)

	authMiddleware := custommiddleware.AuthMiddleware(authService, logger)

	var rateLimit func(http.Handler) http.Handler
	if s.redis != nil {
		rateLimit = custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:auth",
		}, logger)
	}

	productHandler := transport.NewProductHandler(productService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, authMiddleware, rateLimit)
	productHandler.RegisterRoutes(router)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, authMiddleware)
	orderHandler.RegisterRoutes(router, authMiddleware)

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(custommiddleware.RequireAdmin(logger))
		productHandler.RegisterAdminRoutes(r)
		orderHandler.RegisterAdminRoutes(r)
	})

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
	}

	return s, nil
}

func (s *Server) openStores(ctx context.Context, clk clock.Clock) (*stores, error) {
	st := &stores{}
	cfg := s.config

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s.db = db
		if err := database.RunMigrations(db, s.logger); err != nil {
			return nil, err
		}
		st.products = repository.NewProductRepository(db, clk)
		st.orders = repository.NewOrderRepository(db, clk)
	default:
		st.products = repository.NewMemoryProductRepository(clk, cfg.Store.Latency)
		st.orders = repository.NewMemoryOrderRepository(clk, cfg.Store.Latency)
	}

	if !cfg.Redis.Enabled {
		st.carts = repository.NewMemoryCartRepository()
		s.logger.Info("Stores ready", zap.String("backend", cfg.Store.Backend), zap.Bool("redis", false))
		return st, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.redis = client
	st.carts = repository.NewRedisCartRepository(client, cfg.Redis.CartTTL)

	s.logger.Info("Stores ready", zap.String("backend", cfg.Store.Backend), zap.Bool("redis", true))
	return st, nil
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{"store": s.config.Store.Backend}}
	if s.db != nil {
		resp.Checks["database"] = checkResult(s.db.PingContext(ctx))
	}
	if s.redis != nil {
		resp.Checks["redis"] = checkResult(s.redis.Ping(ctx).Err())
	}

	status := http.StatusOK
	for _, result := range resp.Checks {
		if result == "down" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	custommiddleware.RespondWithJSON(w, status, resp)
}

func checkResult(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}

// Close stops pending order transitions and releases the backends
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.simulator != nil {
		s.simulator.Stop()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
