package enums

import (
	"database/sql/driver"
	"fmt"
)

// UserRole is the role column persisted on local user records.
type UserRole string

const (
	UserRoleUser   UserRole = "USER"
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleVendor UserRole = "VENDOR"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleAdmin,
	UserRoleVendor,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// Value implements driver.Valuer.
func (r UserRole) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid user role %q", r)
	}
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *UserRole) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported user role type %T", value)
	}
	parsed, err := ParseUserRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
