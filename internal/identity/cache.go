package identity

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-gateway/pkg/logger"
	"github.com/angelmondragon/storefront-gateway/pkg/redis"
)

type roleStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	RoleKey(userID string) string
}

// CachedDirectory memoizes role lookups in Redis.
// Cache failures are logged and never fail the lookup.
type CachedDirectory struct {
	next   Directory
	store  roleStore
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedDirectory wraps next with a read-through cache. A nil store or a
// non-positive ttl returns next unchanged.
func NewCachedDirectory(next Directory, store roleStore, ttl time.Duration, logg *logger.Logger) Directory {
	if store == nil || ttl <= 0 {
		return next
	}
	return &CachedDirectory{next: next, store: store, ttl: ttl, logger: logg}
}

func (d *CachedDirectory) LookupRole(ctx context.Context, userID string) (string, error) {
	key := d.store.RoleKey(userID)

	cached, err := d.store.Get(ctx, key)
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.ErrNil):
		d.warn(ctx, "role cache read failed", err)
	}

	role, err := d.next.LookupRole(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := d.store.Set(ctx, key, role, d.ttl); err != nil {
		d.warn(ctx, "role cache write failed", err)
	}
	return role, nil
}

func (d *CachedDirectory) warn(ctx context.Context, msg string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Warn(d.logger.WithField(ctx, "error", err.Error()), msg)
}
