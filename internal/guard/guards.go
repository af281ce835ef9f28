package guard

import (
	"github.com/spec-kit/academy-portal/internal/auth"
	"github.com/spec-kit/academy-portal/internal/domain"
)

// Guest keeps signed-in users away from the login and registration pages.
func Guest(in Input) Decision {
	if !in.Session.LoggedIn {
		return Allow()
	}
	var roles []domain.Role
	if in.Session.User != nil {
		roles = in.Session.User.Roles
	}
	return Redirect(auth.DashboardURL(roles))
}

// Auth requires a session.
func Auth(in Input) Decision {
	if !in.Session.LoggedIn {
		return Redirect(LoginURL(in.URL))
	}
	return Allow()
}

// Approval holds center admins at the pending page until the backend approves
// them and signs out rejected ones. Other roles pass.
func Approval(in Input) Decision {
	if !in.Session.LoggedIn {
		return Redirect(LoginURL(in.URL))
	}
	user := in.Session.User
	if user == nil {
		return Redirect(auth.PathLogin)
	}
	if !user.HasRole(domain.RoleCenterAdmin) {
		return Allow()
	}
	switch user.ApprovalStatus {
	case domain.ApprovalPending:
		return Redirect(auth.PathPendingApproval)
	case domain.ApprovalRejected:
		return RedirectAndSignOut(auth.PathLogin)
	default:
		return Allow()
	}
}

// Role admits users holding one of the route's required roles. A route that
// declares no roles admits nobody.
func Role(in Input) Decision {
	required := in.Route.RequiredRoles
	if len(required) == 0 {
		return Redirect(auth.PathRoot)
	}
	user := in.Session.User
	if user == nil {
		return Redirect(auth.PathRoot)
	}
	if auth.HasAnyRole(user.Roles, required...) {
		return Allow()
	}
	if user.Role != "" && auth.HasAnyRole([]domain.Role{user.Role}, required...) {
		return Allow()
	}
	return Redirect(auth.PathRoot)
}

// Protected is the chain configured on role-restricted routes.
var Protected = Chain(Auth, Approval, Role)

// Authenticated is the chain for pages any approved user may open.
var Authenticated = Chain(Auth, Approval)
