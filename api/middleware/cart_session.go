package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/moritea/storefront/api/responses"
	"github.com/moritea/storefront/internal/cart"
	"github.com/moritea/storefront/pkg/auth"
	"github.com/moritea/storefront/pkg/config"
	pkgerrors "github.com/moritea/storefront/pkg/errors"
	"github.com/moritea/storefront/pkg/logger"
)

// CartSessionHeader carries the signed cart-session token in both directions.
const CartSessionHeader = "X-Cart-Session"

type sessionRegistry interface {
	Get(ctx context.Context, id string) (*cart.Session, error)
}

// CartSession resolves the caller's cart session from the token header. A
// missing, expired or forged token starts a new session; the new token, or a
// renewed one once past half its lifetime, is returned in the same header.
func CartSession(cfg config.SessionConfig, registry sessionRegistry, logg *logger.Logger) func(http.Handler) http.Handler {
	now := time.Now
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := strings.TrimSpace(r.Header.Get(CartSessionHeader))

			var sessionID, userID string
			reissue := true
			if raw != "" {
				claims, err := auth.ParseCartSessionToken(cfg, raw)
				if err == nil {
					sessionID = claims.SessionID()
					userID = claims.UserID
					reissue = claims.ExpiresAt != nil && claims.ExpiresAt.Sub(now()) < cfg.TTL/2
				} else {
					logg.Debug(logg.WithField(ctx, "reason", err.Error()), "cart session token rejected")
				}
			}
			if sessionID == "" {
				sessionID = auth.NewSessionID()
			}

			if reissue {
				token, err := auth.MintCartSessionToken(cfg, now(), sessionID, userID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue cart session"))
					return
				}
				w.Header().Set(CartSessionHeader, token)
			}

			ctx = logg.WithSessionID(ctx, sessionID)
			session, err := registry.Get(ctx, sessionID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart session"))
				return
			}

			ctx = WithCartSession(ctx, session)
			if userID != "" {
				ctx = WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
