package routeguard

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-gateway/pkg/enums"
)

const (
	PathRoot      = "/"
	PathSignIn    = "/sign-in"
	PathSignUp    = "/sign-up"
	PathError     = "/error"
	PathDashboard = "/dashboard"
	PathWebhook   = "/api/webhooks/register"

	prefixAdmin  = "/admin"
	prefixVendor = "/vendor"
)

type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
)

// Rule names the row of the decision table that produced a Decision.
type Rule string

const (
	RulePublic          Rule = "public"
	RuleUnauthenticated Rule = "unauthenticated"
	RuleLookupFailed    Rule = "lookup_failed"
	RulePublicPath      Rule = "public_path"
	RuleDashboard       Rule = "dashboard"
	RuleAdminOnly       Rule = "admin_only"
	RuleVendorOnly      Rule = "vendor_only"
	RuleDefault         Rule = "default"
)

// AuthContext is the per-request authentication state. UserID is empty for
// anonymous requests.
type AuthContext struct {
	UserID string
}

func (a AuthContext) Authenticated() bool {
	return a.UserID != ""
}

type Decision struct {
	Action   Action
	Location string
	Rule     Rule
	Role     enums.DashboardRole
	Err      error
}

func (d Decision) Allowed() bool {
	return d.Action == ActionAllow
}

// RoleResolver looks up the raw role claim for a user.
type RoleResolver interface {
	LookupRole(ctx context.Context, userID string) (string, error)
}

type Guard struct {
	roles  RoleResolver
	public map[string]struct{}
}

// DefaultPublicPaths are reachable without a session. Matching is exact.
func DefaultPublicPaths() []string {
	return []string{PathRoot, PathWebhook, PathSignIn, PathSignUp}
}

// New builds a guard. When publicPaths is empty DefaultPublicPaths is used.
func New(roles RoleResolver, publicPaths ...string) *Guard {
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths()
	}
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &Guard{roles: roles, public: public}
}

func (g *Guard) IsPublic(path string) bool {
	_, ok := g.public[path]
	return ok
}

// Decide evaluates the routing table top to bottom; the first matching row wins.
func (g *Guard) Decide(ctx context.Context, auth AuthContext, path string) Decision {
	if !auth.Authenticated() {
		if g.IsPublic(path) {
			return allow(RulePublic, "")
		}
		return redirect(PathSignIn, RuleUnauthenticated, "")
	}

	raw, err := g.lookup(ctx, auth.UserID)
	if err != nil {
		d := redirect(PathError, RuleLookupFailed, "")
		if path == PathError {
			d = allow(RuleLookupFailed, "")
		}
		d.Err = err
		return d
	}
	role := enums.ParseDashboardRole(raw)
	dashboard := role.DashboardPath()

	switch {
	case g.IsPublic(path):
		return redirect(dashboard, RulePublicPath, role)
	case path == PathDashboard:
		// customers already sit on their dashboard
		if dashboard == path {
			return allow(RuleDashboard, role)
		}
		return redirect(dashboard, RuleDashboard, role)
	case strings.HasPrefix(path, prefixAdmin) && role != enums.DashboardRoleAdmin:
		return redirect(dashboard, RuleAdminOnly, role)
	case strings.HasPrefix(path, prefixVendor) && role != enums.DashboardRoleVendor:
		return redirect(dashboard, RuleVendorOnly, role)
	default:
		return allow(RuleDefault, role)
	}
}

func (g *Guard) lookup(ctx context.Context, userID string) (string, error) {
	if g.roles == nil {
		return "", nil
	}
	return g.roles.LookupRole(ctx, userID)
}

func allow(rule Rule, role enums.DashboardRole) Decision {
	return Decision{Action: ActionAllow, Rule: rule, Role: role}
}

func redirect(location string, rule Rule, role enums.DashboardRole) Decision {
	return Decision{Action: ActionRedirect, Location: location, Rule: rule, Role: role}
}
