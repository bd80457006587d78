package controllers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/angelmondragon/storefront-gateway/api/middleware"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestUpstreamWithoutTargetIs404(t *testing.T) {
	rec := httptest.NewRecorder()
	Upstream(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpstreamForwardsIdentity(t *testing.T) {
	var gotPath, gotUser, gotRole string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.Header.Get(HeaderForwardedUserID)
		gotRole = r.Header.Get(HeaderForwardedRole)
		_, _ = io.WriteString(w, "frontend")
	}))
	defer backend.Close()

	req := httptest.NewRequest(http.MethodGet, "/vendor/dashboard", nil)
	req.Header.Set(HeaderForwardedUserID, "spoofed")
	ctx := middleware.WithRole(middleware.WithUserID(req.Context(), "user_1"), "vendor")

	rec := httptest.NewRecorder()
	Upstream(mustParseURL(t, backend.URL), nil).ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK || rec.Body.String() != "frontend" {
		t.Fatalf("expected proxied 200, got %d %q", rec.Code, rec.Body.String())
	}
	if gotPath != "/vendor/dashboard" {
		t.Errorf("expected path preserved, got %q", gotPath)
	}
	if gotUser != "user_1" || gotRole != "vendor" {
		t.Errorf("expected forwarded identity user_1/vendor, got %q/%q", gotUser, gotRole)
	}
}

func TestUpstreamStripsSpoofedIdentityForAnonymous(t *testing.T) {
	var gotUser string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get(HeaderForwardedUserID)
	}))
	defer backend.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderForwardedUserID, "spoofed")
	Upstream(mustParseURL(t, backend.URL), nil).ServeHTTP(httptest.NewRecorder(), req)
	if gotUser != "" {
		t.Fatalf("expected spoofed header stripped, got %q", gotUser)
	}
}

func TestUpstreamUnavailableIs503(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := mustParseURL(t, backend.URL)
	backend.Close()

	rec := httptest.NewRecorder()
	Upstream(target, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
