package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wms-storefront/internal/config"
	"wms-storefront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			RequestTimeout: 5 * time.Second,
		},
		Store: config.StoreConfig{Backend: config.BackendMemory},
		JWT:   config.JWTConfig{Secret: "server-test-secret", AccessExpiry: time.Hour},
		Pricing: config.PricingConfig{
			Rules:   domain.DefaultPricingRules(),
			Coupons: domain.DefaultCoupons(),
		},
		Lifecycle: config.LifecycleConfig{
			Processing: time.Hour,
			Shipped:    2 * time.Hour,
			Delivered:  3 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{Requests: 3, Window: time.Minute},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	srv, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func withRedis(t *testing.T, cfg *config.Config) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	host, port, found := strings.Cut(mr.Addr(), ":")
	require.True(t, found)
	cfg.Redis = config.RedisConfig{Enabled: true, Host: host, Port: port, CartTTL: time.Hour}
	return mr
}

func request(t *testing.T, ts *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp := request(t, ts, http.MethodPost, "/api/auth/login", "", `{"email":"user@example.com","password":"user123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.AccessToken
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := request(t, ts, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, config.BackendMemory, body.Checks["store"])
}

func TestServer_HealthReportsRedisOutage(t *testing.T) {
	cfg := testConfig()
	mr := withRedis(t, cfg)
	ts := newTestServer(t, cfg)

	mr.Close()

	resp := request(t, ts, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_UnknownRoutesUseErrorEnvelope(t *testing.T) {
	ts := newTestServer(t, testConfig())

	resp := request(t, ts, http.MethodGet, "/api/nowhere", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "message")
}

func TestServer_CartIsStoredInRedis(t *testing.T) {
	cfg := testConfig()
	mr := withRedis(t, cfg)
	ts := newTestServer(t, cfg)

	token := login(t, ts)
	resp := request(t, ts, http.MethodPost, "/api/cart/items", token, `{"productId":"1","quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, mr.Exists("cart:2"))
	assert.Positive(t, mr.TTL("cart:2"))

	resp = request(t, ts, http.MethodPost, "/api/orders", token, `{
		"deliveryAddress": {"fullName":"Test User","addressLine1":"1 Quay","city":"Pune","state":"MH","postalCode":"411001","phone":"9876543210"},
		"paymentMethod": "cod"
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.False(t, mr.Exists("cart:2"))
}

func TestServer_LoginIsRateLimitedWithRedis(t *testing.T) {
	cfg := testConfig()
	withRedis(t, cfg)
	ts := newTestServer(t, cfg)

	body := `{"email":"user@example.com","password":"wrong"}`
	for i := 0; i < cfg.RateLimit.Requests; i++ {
		resp := request(t, ts, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := request(t, ts, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	resp = request(t, ts, http.MethodGet, "/api/products", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RedisUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"}

	_, err := NewServer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
