package middleware

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/storefront-gateway/pkg/auth"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
)

// Session resolves the requester from a Clerk session token when one is
// present. Missing or invalid tokens leave the request anonymous.
func Session(verifier auth.Verifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token, err := auth.TokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			session, err := verifier.Verify(ctx, token)
			if err != nil {
				if logg != nil && !errors.Is(err, auth.ErrNoToken) {
					logg.Debug(logg.WithField(ctx, "error", err.Error()), "session token rejected")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithUserID(ctx, session.UserID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, session.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
