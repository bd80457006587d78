package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/angelmondragon/storefront-gateway/internal/routeguard"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
)

type routeDecider interface {
	Decide(ctx context.Context, auth routeguard.AuthContext, path string) routeguard.Decision
}

type decisionCounter interface {
	IncDecision(action, rule string)
}

// assetPattern matches paths whose last segment carries a file extension.
var assetPattern = regexp.MustCompile(`^.+\.[\w]+$`)

// ShouldGuard reports whether the route guard runs for path. Static assets
// and framework internals are skipped; /api and /trpc are always guarded.
func ShouldGuard(path string) bool {
	if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/trpc") {
		return true
	}
	rest := strings.TrimPrefix(path, "/")
	if strings.HasPrefix(rest, "_next") {
		return false
	}
	return !assetPattern.MatchString(rest)
}

// RouteGuard redirects requests according to the session and role table.
func RouteGuard(guard routeDecider, counter decisionCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard == nil || !ShouldGuard(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			auth := routeguard.AuthContext{UserID: UserIDFromContext(ctx)}
			decision := guard.Decide(ctx, auth, r.URL.Path)

			if counter != nil {
				counter.IncDecision(string(decision.Action), string(decision.Rule))
			}
			if decision.Role != "" {
				ctx = WithRole(ctx, decision.Role.String())
				if logg != nil {
					ctx = logg.WithActorRole(ctx, decision.Role.String())
				}
			}

			if logg != nil {
				if decision.Err != nil {
					logg.Error(ctx, "role lookup failed", decision.Err)
				} else if !decision.Allowed() {
					logg.Debug(logg.WithFields(ctx, map[string]any{
						"rule":     string(decision.Rule),
						"location": decision.Location,
					}), "route guard redirect")
				}
			}

			if !decision.Allowed() {
				http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
