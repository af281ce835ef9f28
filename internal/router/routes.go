package router

import (
	"strings"

	"github.com/spec-kit/academy-portal/internal/auth"
	"github.com/spec-kit/academy-portal/internal/domain"
	"github.com/spec-kit/academy-portal/internal/guard"
)

// Route is one entry of the portal route table.
type Route struct {
	Path          string
	Guard         guard.Guard
	RequiredRoles []domain.Role
	// Nested also matches every page below Path.
	Nested bool
	// AuthPage marks login and registration flows, where the notification
	// channel is not opened.
	AuthPage bool
}

func public(guard.Input) guard.Decision { return guard.Allow() }

// DefaultRoutes is the academy portal route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: auth.PathRoot, Guard: public},
		{Path: auth.PathLogin, Guard: guard.Guest, AuthPage: true},
		{Path: "/register", Guard: guard.Guest, AuthPage: true},
		{Path: "/forgot-password", Guard: guard.Guest, AuthPage: true},
		{Path: "/reset-password", Guard: guard.Guest, AuthPage: true},
		{Path: "/verify-email", Guard: guard.Guest, AuthPage: true},
		{Path: "/auth/callback", Guard: public, AuthPage: true},
		{Path: auth.PathPendingApproval, Guard: guard.Auth},
		{Path: auth.PathAdminDashboard, Guard: guard.Protected, RequiredRoles: []domain.Role{domain.RoleAdmin}, Nested: true},
		{Path: auth.PathStaffDashboard, Guard: guard.Protected, RequiredRoles: auth.StaffRoles, Nested: true},
		{Path: auth.PathDefaultDashboard, Guard: guard.Protected, RequiredRoles: auth.MemberRoles, Nested: true},
		{Path: "/notifications", Guard: guard.Authenticated},
		{Path: "/profile", Guard: guard.Authenticated},
		{Path: "/ai-assistant", Guard: guard.Authenticated},
	}
}

func (r Route) matches(path string) bool {
	if path == r.Path {
		return true
	}
	return r.Nested && strings.HasPrefix(path, r.Path+"/")
}

// pathOf strips query and fragment and normalizes trailing slashes.
func pathOf(rawURL string) string {
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
