package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"civicvoice/internal/httputil"
	"civicvoice/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
)

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, true)
}

// OptionalAuth identifies the viewer when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected, so
// clients learn it expired.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, false)
}

func authenticate(jwtSecret string, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if required {
					httputil.WriteUnauthorized(w, "Missing authentication token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			userID, err := parseUserID(tokenString, jwtSecret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Access token has expired")
					return
				}
				httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// access_token cookie.
func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func parseUserID(tokenString, jwtSecret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", jwt.ErrTokenInvalidClaims
	}
	return id.String(), nil
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
