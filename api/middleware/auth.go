package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/solsticehq/beacon-messaging/api/responses"
	pkgauth "github.com/solsticehq/beacon-messaging/pkg/auth"
	"github.com/solsticehq/beacon-messaging/pkg/config"
	pkgerrors "github.com/solsticehq/beacon-messaging/pkg/errors"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

// ServiceAuth validates a bearer token minted for an internal caller and
// seeds the request context with the caller name.
func ServiceAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseServiceToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxServiceName, claims.ServiceName)
			if logg != nil {
				ctx = logg.WithField(ctx, "caller", claims.ServiceName)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
