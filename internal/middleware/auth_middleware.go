package middleware

import (
	"context"
	"net/http"
	"strings"

	"pmdesk/internal/transport"
	"pmdesk/pkg/jwt"
	"pmdesk/pkg/response"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	userSlotKey contextKey = "userSlot"
)

// AuthMiddleware accepts the session cookie or a bearer token.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := requestToken(r)
			if !ok {
				response.Unauthorized(w, "Missing authentication token")
				return
			}

			claims, err := jwt.ValidateToken(token, jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			if slot, ok := r.Context().Value(userSlotKey).(*string); ok {
				*slot = claims.UserID
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if ck, err := r.Cookie(transport.CookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
