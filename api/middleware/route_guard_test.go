package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/angelmondragon/storefront-gateway/internal/routeguard"
)

type mapRoles map[string]string

func (m mapRoles) LookupRole(_ context.Context, userID string) (string, error) {
	role, ok := m[userID]
	if !ok {
		return "", errors.New("unknown user")
	}
	return role, nil
}

type recordingCounter struct {
	decisions []string
}

func (r *recordingCounter) IncDecision(action, rule string) {
	r.decisions = append(r.decisions, action+":"+rule)
}

func TestShouldGuard(t *testing.T) {
	cases := map[string]bool{
		"/":                        true,
		"/dashboard":               true,
		"/admin/users":             true,
		"/sign-in":                 true,
		"/api/webhooks/register":   true,
		"/api/files/report.pdf":    true,
		"/trpc/users.list":         true,
		"/favicon.ico":             false,
		"/images/logo.svg":         false,
		"/_next/static/chunks/app": false,
		"/_next":                   false,
	}
	for path, want := range cases {
		if got := ShouldGuard(path); got != want {
			t.Errorf("%s: expected %v, got %v", path, want, got)
		}
	}
}

func newGuardedHandler(counter *recordingCounter) http.Handler {
	guard := routeguard.New(mapRoles{"admin": "admin", "vendor": "vendor", "customer": ""})
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Role", RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Test-User"); id != "" {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
	return withUser(RouteGuard(guard, counter, nil)(final))
}

func TestRouteGuardRedirects(t *testing.T) {
	cases := []struct {
		user     string
		path     string
		status   int
		location string
		role     string
	}{
		{user: "", path: "/admin", status: http.StatusTemporaryRedirect, location: "/sign-in"},
		{user: "", path: "/sign-up", status: http.StatusOK},
		{user: "", path: "/logo.png", status: http.StatusOK},
		{user: "admin", path: "/", status: http.StatusTemporaryRedirect, location: "/admin/dashboard"},
		{user: "vendor", path: "/dashboard", status: http.StatusTemporaryRedirect, location: "/vendor/dashboard"},
		{user: "customer", path: "/dashboard", status: http.StatusOK, role: "customer"},
		{user: "customer", path: "/vendor/orders", status: http.StatusTemporaryRedirect, location: "/dashboard"},
		{user: "admin", path: "/admin/reports", status: http.StatusOK, role: "admin"},
		{user: "ghost", path: "/products", status: http.StatusTemporaryRedirect, location: "/error"},
		{user: "ghost", path: "/error", status: http.StatusOK},
	}

	for _, tc := range cases {
		counter := &recordingCounter{}
		handler := newGuardedHandler(counter)

		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.user != "" {
			req.Header.Set("X-Test-User", tc.user)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Errorf("%s %s: expected status %d, got %d", tc.user, tc.path, tc.status, rec.Code)
			continue
		}
		if got := rec.Header().Get("Location"); got != tc.location {
			t.Errorf("%s %s: expected location %q, got %q", tc.user, tc.path, tc.location, got)
		}
		if tc.status == http.StatusOK {
			if got := rec.Header().Get("X-Role"); got != tc.role {
				t.Errorf("%s %s: expected role %q, got %q", tc.user, tc.path, tc.role, got)
			}
		}
	}
}

func TestRouteGuardCountsDecisions(t *testing.T) {
	counter := &recordingCounter{}
	handler := newGuardedHandler(counter)

	for _, path := range []string{"/admin", "/favicon.ico", "/"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	want := []string{"redirect:unauthenticated", "allow:public"}
	if !reflect.DeepEqual(counter.decisions, want) {
		t.Fatalf("expected decisions %v, got %v", want, counter.decisions)
	}
}
