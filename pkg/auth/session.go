package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/angelmondragon/storefront-gateway/pkg/config"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie Clerk's frontend SDK stores the session token in.
const SessionCookie = "__session"

var (
	ErrNoToken         = errors.New("no session token")
	errMissingSubject  = errors.New("token missing subject claim")
	errJWKSURLRequired = errors.New("clerk JWKS URL is required")
)

// Session is the verified identity attached to a request.
type Session struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// Verifier validates a session token.
type Verifier interface {
	Verify(ctx context.Context, token string) (Session, error)
}

// ClerkVerifier validates Clerk-issued RS256 session tokens.
type ClerkVerifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
	jwks     *keyfunc.JWKS
}

// NewClerkVerifier loads the instance JWKS and keeps it refreshed in the background.
func NewClerkVerifier(ctx context.Context, cfg config.ClerkConfig, logg *logger.Logger) (*ClerkVerifier, error) {
	if strings.TrimSpace(cfg.JWKSURL) == "" {
		return nil, errJWKSURLRequired
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "clerk jwks refresh failed")
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load clerk jwks: %w", err)
	}

	v := NewKeyfuncVerifier(jwks.Keyfunc, cfg.Issuer, cfg.Audience)
	v.jwks = jwks
	return v, nil
}

// NewKeyfuncVerifier builds a verifier around an explicit key source.
func NewKeyfuncVerifier(kf jwt.Keyfunc, issuer, audience string) *ClerkVerifier {
	return &ClerkVerifier{keyfunc: kf, issuer: issuer, audience: audience}
}

func (v *ClerkVerifier) Verify(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, v.keyfunc, options...); err != nil {
		return Session{}, fmt.Errorf("token verification failed: %w", err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return Session{}, errMissingSubject
	}

	session := Session{UserID: subject}
	session.SessionID, _ = claims["sid"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}

// Close stops the background JWKS refresh.
func (v *ClerkVerifier) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
		parts := strings.SplitN(raw, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token, nil
			}
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrNoToken
}
