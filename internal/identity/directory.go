package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-gateway/pkg/config"
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// Directory resolves the role stored on an identity provider profile.
// An empty role with a nil error means the profile carries no role.
type Directory interface {
	LookupRole(ctx context.Context, userID string) (string, error)
}

type userGetter interface {
	Get(ctx context.Context, id string) (*clerk.User, error)
}

// ClerkDirectory reads publicMetadata.role from the Clerk backend API.
type ClerkDirectory struct {
	users userGetter
}

// NewClerkDirectory builds a directory backed by the Clerk user API.
func NewClerkDirectory(cfg config.ClerkConfig) (*ClerkDirectory, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("clerk secret key is required")
	}

	backend := clerk.BackendConfig{Key: clerk.String(cfg.SecretKey)}
	if cfg.APIURL != "" {
		backend.URL = clerk.String(cfg.APIURL)
	}
	return newClerkDirectory(user.NewClient(&clerk.ClientConfig{BackendConfig: backend})), nil
}

func newClerkDirectory(users userGetter) *ClerkDirectory {
	return &ClerkDirectory{users: users}
}

func (d *ClerkDirectory) LookupRole(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	usr, err := d.users.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("fetch clerk user %s: %w", userID, err)
	}
	if usr == nil {
		return "", fmt.Errorf("fetch clerk user %s: empty response", userID)
	}
	return roleFromMetadata(usr.PublicMetadata)
}

func roleFromMetadata(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var metadata struct {
		Role any `json:"role"`
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return "", fmt.Errorf("decode public metadata: %w", err)
	}

	// non-string roles fall through to the default dashboard
	role, _ := metadata.Role.(string)
	return role, nil
}
