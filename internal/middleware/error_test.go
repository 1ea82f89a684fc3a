package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type storefrontError struct {
	status  int
	message string
}

var storefrontErrors = []storefrontError{
	{http.StatusBadRequest, "cart is empty"},
	{http.StatusBadRequest, "invalid payment method"},
	{http.StatusUnauthorized, "unauthorized"},
	{http.StatusForbidden, "insufficient permissions"},
	{http.StatusNotFound, "order not found"},
	{http.StatusNotFound, "product not found"},
	{http.StatusConflict, "order can no longer be cancelled"},
	{http.StatusUnprocessableEntity, "unknown coupon code"},
	{http.StatusUnprocessableEntity, "minimum order not met"},
	{http.StatusTooManyRequests, "rate limit exceeded"},
	{http.StatusInternalServerError, "cart operation failed"},
	{http.StatusNotFound, "route not found"},
	{http.StatusMethodNotAllowed, "method not allowed"},
}

// Feature: storefront, Property 20: Errors have consistent structure
func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("storefront errors share one envelope", prop.ForAll(
		func(i int) bool {
			e := storefrontErrors[i]

			w := httptest.NewRecorder()
			RespondWithError(w, e.status, e.message)

			if w.Code != e.status || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			if response.Error.Code != http.StatusText(e.status) || response.Error.Message != e.message {
				return false
			}
			if response.Error.Details != nil {
				return false
			}
			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.IntRange(0, len(storefrontErrors)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{
		{Field: "quantity", Message: "quantity must be at most 99"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "validation failed", response.Error.Message)
	require.Contains(t, response.Error.Details, "validation_errors")

	fields, ok := response.Error.Details["validation_errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "quantity", fields[0].(map[string]interface{})["field"])
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "internal server error", response.Error.Message)
}

func TestNotFoundHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NotFoundHandler(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"Not Found"`)
}
