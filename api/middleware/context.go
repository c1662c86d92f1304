package middleware

import (
	"context"

	"github.com/moritea/storefront/internal/cart"
)

type contextKey string

const (
	ctxCartSession contextKey = "cart_session"
	ctxUserID      contextKey = "user_id"
)

// CartSessionFromContext returns the cart session attached by CartSession.
func CartSessionFromContext(ctx context.Context) *cart.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCartSession).(*cart.Session); ok {
		return v
	}
	return nil
}

// WithCartSession injects the cart session into the context.
func WithCartSession(ctx context.Context, s *cart.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, s)
}

// UserIDFromContext returns the user bound to the cart-session token, if any.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// WithUserID binds a user to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}
