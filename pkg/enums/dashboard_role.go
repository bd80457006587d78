package enums

import "strings"

// DashboardRole is the routing role read from the identity provider's public
// metadata. Unknown and empty values resolve to DashboardRoleCustomer.
type DashboardRole string

const (
	DashboardRoleAdmin    DashboardRole = "admin"
	DashboardRoleVendor   DashboardRole = "vendor"
	DashboardRoleCustomer DashboardRole = "customer"
)

// ParseDashboardRole never fails: the customer arm is the default.
func ParseDashboardRole(value string) DashboardRole {
	switch DashboardRole(strings.TrimSpace(value)) {
	case DashboardRoleAdmin:
		return DashboardRoleAdmin
	case DashboardRoleVendor:
		return DashboardRoleVendor
	default:
		return DashboardRoleCustomer
	}
}

// String implements fmt.Stringer.
func (r DashboardRole) String() string {
	return string(r)
}

// DashboardPath returns the landing page for the role.
func (r DashboardRole) DashboardPath() string {
	switch r {
	case DashboardRoleAdmin:
		return "/admin/dashboard"
	case DashboardRoleVendor:
		return "/vendor/dashboard"
	default:
		return "/dashboard"
	}
}
