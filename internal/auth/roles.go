package auth

import (
	"github.com/spec-kit/academy-portal/internal/domain"
)

// Portal paths that the session logic redirects to.
const (
	PathRoot             = "/"
	PathLogin            = "/login"
	PathPendingApproval  = "/pending-approval"
	PathAdminDashboard   = "/admin"
	PathStaffDashboard   = "/staff"
	PathDefaultDashboard = "/dashboard"
)

var (
	// StaffRoles land on the staff dashboard.
	StaffRoles = []domain.Role{domain.RoleCenterAdmin, domain.RoleTeacher, domain.RoleAssistant}
	// MemberRoles land on the default dashboard.
	MemberRoles = []domain.Role{domain.RoleStudent, domain.RoleParent}
)

// DashboardURL maps a role set to its landing page. Admin wins over staff
// roles, which win over student/parent roles, whatever the order of roles.
func DashboardURL(roles []domain.Role) string {
	switch {
	case HasAnyRole(roles, domain.RoleAdmin):
		return PathAdminDashboard
	case HasAnyRole(roles, StaffRoles...):
		return PathStaffDashboard
	case HasAnyRole(roles, MemberRoles...):
		return PathDefaultDashboard
	default:
		return PathRoot
	}
}

// HasAnyRole reports whether roles and allowed intersect.
func HasAnyRole(roles []domain.Role, allowed ...domain.Role) bool {
	if len(roles) == 0 || len(allowed) == 0 {
		return false
	}
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}
	for _, role := range roles {
		if _, ok := allowedSet[role]; ok {
			return true
		}
	}
	return false
}
