package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"wms-storefront/internal/domain"
	"wms-storefront/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"

	userHolderKey contextKey = "user_holder"
)

// userHolder lets the auth middleware report the user to outer middleware
type userHolder struct {
	userID string
}

func withUserHolder(ctx context.Context, holder *userHolder) context.Context {
	return context.WithValue(ctx, userHolderKey, holder)
}

// TokenValidator checks an access token and returns its claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates bearer tokens and puts the user ID and role on the request context
func AuthMiddleware(tokens TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if claims.Role == "" {
				logger.Error("Missing role in token claims", zap.String("user_id", claims.UserID))
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			if holder, ok := r.Context().Value(userHolderKey).(*userHolder); ok {
				holder.userID = claims.UserID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// IsAdmin reports whether the authenticated user holds the admin role
func IsAdmin(ctx context.Context) bool {
	role, _ := GetUserRole(ctx)
	return role == domain.RoleAdmin
}
