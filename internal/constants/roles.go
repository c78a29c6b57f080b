package constants

import "fmt"

// StaffRole is the role carried in a staff access token
type StaffRole string

const (
	RoleViewer   StaffRole = "viewer"
	RoleOperator StaffRole = "operator"
	RoleAdmin    StaffRole = "admin"
)

// Stringer ­– convenient for fmt / logs
func (r StaffRole) String() string { return string(r) }

// CanWrite reports whether the role may change pilot records
func (r StaffRole) CanWrite() bool {
	return r == RoleOperator || r == RoleAdmin
}

// ParseStaffRole validates a role string
func ParseStaffRole(s string) (StaffRole, error) {
	switch StaffRole(s) {
	case RoleViewer, RoleOperator, RoleAdmin:
		return StaffRole(s), nil
	default:
		return "", fmt.Errorf("unknown staff role %q", s)
	}
}
