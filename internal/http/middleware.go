package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/client"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	accountKey
	workspaceKey
)

func logFrom(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// RequestIDMiddleware echoes the request id, hands it to outgoing
// collaborator calls and stamps it on the request logger. It runs after
// chi's RequestID.
func RequestIDMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	log = logger.OrDefault(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = r.Header.Get(HeaderRequestID)
			}

			ctx := r.Context()
			if requestID != "" {
				w.Header().Set(HeaderRequestID, requestID)
				ctx = client.WithRequestID(ctx, requestID)
			}
			ctx = context.WithValue(ctx, loggerKey, log.With("request_id", requestID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Claims are the JWT claims issued by the identity service. The subject is
// the account id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenValidator checks HS256 bearer tokens.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator returns nil for an empty secret, which disables
// authentication.
func NewTokenValidator(secret string) *TokenValidator {
	if secret == "" {
		return nil
	}
	return &TokenValidator{secret: []byte(secret)}
}

func (v *TokenValidator) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token subject is required")
	}
	return claims, nil
}

// AuthMiddleware lets anonymous shoppers through. A bearer token, when
// present, must be valid; its subject becomes the account id.
func AuthMiddleware(validator *TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || validator == nil {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "expected 'Bearer <token>'")
				return
			}
			claims, err := validator.Validate(parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accountFrom(ctx context.Context) string {
	if id, ok := ctx.Value(accountKey).(string); ok {
		return id
	}
	return ""
}

// WorkspaceMiddleware resolves the shopper's session from X-Session-ID,
// minting one when absent, and attaches its workspace to the request.
func WorkspaceMiddleware(registry *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := registry.Acquire(r.Context(), r.Header.Get(HeaderSessionID))
			if err != nil {
				logFrom(r).ErrorContext(r.Context(), "failed to resolve session", "error", err)
				respondError(w, http.StatusServiceUnavailable, "session_unavailable", "session store unavailable")
				return
			}

			w.Header().Set(HeaderSessionID, ws.ID())
			ctx := context.WithValue(r.Context(), workspaceKey, ws)
			ctx = context.WithValue(ctx, loggerKey, logFrom(r).With("session_id", ws.ID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func workspaceFrom(r *http.Request) *Workspace {
	ws, _ := r.Context().Value(workspaceKey).(*Workspace)
	return ws
}
