package controllers

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/angelmondragon/storefront-gateway/api/middleware"
	"github.com/angelmondragon/storefront-gateway/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-gateway/pkg/errors"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
)

const (
	HeaderForwardedUserID = "X-Storefront-User-Id"
	HeaderForwardedRole   = "X-Storefront-Role"
)

// Upstream proxies allowed requests to the frontend. With no target every
// request is answered with 404.
func Upstream(target *url.URL, logg *logger.Logger) http.Handler {
	if target == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
		})
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()

			// identity headers are only ever set by the gateway
			pr.Out.Header.Del(HeaderForwardedUserID)
			pr.Out.Header.Del(HeaderForwardedRole)
			if userID := middleware.UserIDFromContext(pr.In.Context()); userID != "" {
				pr.Out.Header.Set(HeaderForwardedUserID, userID)
			}
			if role := middleware.RoleFromContext(pr.In.Context()); role != "" {
				pr.Out.Header.Set(HeaderForwardedRole, role)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upstream unavailable"))
		},
	}
}
