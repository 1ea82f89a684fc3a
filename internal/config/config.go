package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"wms-storefront/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Pricing   PricingConfig
	Lifecycle LifecycleConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	RequestTimeout time.Duration
}

// IsDevelopment reports whether the server runs in development mode
func (c ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

type StoreConfig struct {
	Backend string
	Latency time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

// DSN returns the connection string for the pgx driver
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode, c.Schema)
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	CartTTL  time.Duration
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

type PricingConfig struct {
	Rules   domain.PricingRules
	Coupons domain.CouponCatalog
}

type LifecycleConfig struct {
	Processing time.Duration
	Shipped    time.Duration
	Delivered  time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from .env and the environment. A missing .env is
// not an error; an unreadable coupon file or an invalid value is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Could not load .env: %v", err)
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("STORE_LATENCY", "0s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CART_TTL", "168h")
	v.SetDefault("JWT_ACCESS_EXPIRY", "24h")
	v.SetDefault("PRICING_FREE_DELIVERY_ABOVE", "100")
	v.SetDefault("PRICING_DELIVERY_FEE", "10")
	v.SetDefault("LIFECYCLE_PROCESSING_DELAY", "1s")
	v.SetDefault("LIFECYCLE_SHIPPED_DELAY", "2m")
	v.SetDefault("LIFECYCLE_DELIVERED_DELAY", "10m")
	v.SetDefault("RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("COUPONS_FILE", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
			Latency: v.GetDuration("STORE_LATENCY"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CartTTL:  v.GetDuration("CART_TTL"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetDuration("JWT_ACCESS_EXPIRY"),
		},
		Lifecycle: LifecycleConfig{
			Processing: v.GetDuration("LIFECYCLE_PROCESSING_DELAY"),
			Shipped:    v.GetDuration("LIFECYCLE_SHIPPED_DELAY"),
			Delivered:  v.GetDuration("LIFECYCLE_DELIVERED_DELAY"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	switch cfg.Store.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}

	if cfg.JWT.Secret == "" {
		if !cfg.Server.IsDevelopment() {
			return nil, errors.New("JWT_SECRET is required outside development")
		}
		cfg.JWT.Secret = "dev-secret-change-me"
	}

	freeAbove, err := decimal.NewFromString(v.GetString("PRICING_FREE_DELIVERY_ABOVE"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_FREE_DELIVERY_ABOVE: %w", err)
	}
	fee, err := decimal.NewFromString(v.GetString("PRICING_DELIVERY_FEE"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_DELIVERY_FEE: %w", err)
	}
	cfg.Pricing.Rules = domain.PricingRules{FreeDeliveryAbove: freeAbove, DeliveryFee: fee}

	cfg.Pricing.Coupons = domain.DefaultCoupons()
	if path := v.GetString("COUPONS_FILE"); path != "" {
		coupons, err := LoadCoupons(path)
		if err != nil {
			return nil, err
		}
		cfg.Pricing.Coupons = coupons
	}

	if cfg.Lifecycle.Processing < 0 {
		return nil, errors.New("lifecycle delays must not be negative")
	}
	if cfg.Lifecycle.Processing > cfg.Lifecycle.Shipped || cfg.Lifecycle.Shipped > cfg.Lifecycle.Delivered {
		return nil, errors.New("lifecycle delays must be non-decreasing: processing <= shipped <= delivered")
	}

	return cfg, nil
}

type couponFile struct {
	Coupons []struct {
		Code     string          `yaml:"code"`
		Amount   decimal.Decimal `yaml:"amount"`
		MinOrder decimal.Decimal `yaml:"min_order"`
	} `yaml:"coupons"`
}

// LoadCoupons reads a coupon catalog from a YAML file of the form
//
//	coupons:
//	  - code: SAVE50
//	    amount: 50
//	    min_order: 300
func LoadCoupons(path string) (domain.CouponCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coupons file: %w", err)
	}
	return ParseCoupons(data)
}

// ParseCoupons decodes a YAML coupon catalog
func ParseCoupons(data []byte) (domain.CouponCatalog, error) {
	var file couponFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse coupons: %w", err)
	}

	catalog := make(domain.CouponCatalog, len(file.Coupons))
	for _, c := range file.Coupons {
		if c.Code == "" {
			return nil, errors.New("coupon without code")
		}
		if !c.Amount.IsPositive() || c.MinOrder.IsNegative() {
			return nil, fmt.Errorf("coupon %s: amount must be positive and min_order not negative", c.Code)
		}
		if c.Amount.GreaterThan(c.MinOrder) {
			return nil, fmt.Errorf("coupon %s: amount must not exceed min_order", c.Code)
		}
		if _, dup := catalog[c.Code]; dup {
			return nil, fmt.Errorf("duplicate coupon %s", c.Code)
		}
		catalog[c.Code] = domain.Coupon{
			Code:     c.Code,
			Amount:   c.Amount,
			MinOrder: c.MinOrder,
		}
	}
	return catalog, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
