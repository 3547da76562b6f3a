package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/services/auth"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

// Authenticator turns a raw bearer token into a session.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (auth.Session, error)
}

// bearerToken reads the Authorization header, falling back to ?token= for
// websocket handshakes, which cannot set headers from a browser.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
		return "", errors.New("Authorization header required")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("Invalid authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.New("Token not provided")
	}
	return token, nil
}

// AuthMiddleware validates the bearer token and puts the session in the
// request context.
func AuthMiddleware(authn Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(err))
				return
			}

			session, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthorized) {
					logger.Error("authenticate request", zap.Error(err))
				}
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("Invalid token")))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// AdminOnly lets through sessions whose user is listed in adminIDs. It runs
// after AuthMiddleware.
func AdminOnly(adminIDs []string, logger *zap.Logger) func(http.Handler) http.Handler {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
				return
			}
			if _, ok := admins[userID]; !ok {
				logger.Warn("admin route refused", zap.String("user_id", userID), zap.String("path", r.URL.Path))
				response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("admin access required")))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return "", false
	}
	return session.UserID, true
}
