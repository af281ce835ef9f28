// Package guard decides whether a navigation may proceed.
//
// Guards are pure functions of the session snapshot, the requested URL and
// the matched route. They never touch storage; a decision that requires the
// session to be cleared says so with SignOut and the caller carries it out.
package guard

import (
	"net/url"

	"github.com/spec-kit/academy-portal/internal/auth"
	"github.com/spec-kit/academy-portal/internal/domain"
)

// Session is the part of the session state guards look at.
type Session struct {
	LoggedIn bool
	User     *domain.User
}

// Route is the matched route definition.
type Route struct {
	Path          string
	RequiredRoles []domain.Role
}

// Input is everything a guard decides on.
type Input struct {
	Session Session
	URL     string
	Route   Route
}

// Kind tags a Decision.
type Kind int

const (
	KindAllow Kind = iota
	KindRedirect
)

// Decision is the outcome of a guard.
type Decision struct {
	Kind    Kind
	Path    string
	SignOut bool
}

// Guard evaluates one navigation.
type Guard func(Input) Decision

// Allow lets the navigation commit.
func Allow() Decision {
	return Decision{Kind: KindAllow}
}

// Redirect sends the navigation elsewhere.
func Redirect(path string) Decision {
	return Decision{Kind: KindRedirect, Path: path}
}

// RedirectAndSignOut clears the session, then redirects.
func RedirectAndSignOut(path string) Decision {
	return Decision{Kind: KindRedirect, Path: path, SignOut: true}
}

// Allowed reports whether the decision lets the navigation commit.
func (d Decision) Allowed() bool {
	return d.Kind == KindAllow
}

// Chain evaluates guards in order and stops at the first redirect.
func Chain(guards ...Guard) Guard {
	return func(in Input) Decision {
		for _, g := range guards {
			if d := g(in); !d.Allowed() {
				return d
			}
		}
		return Allow()
	}
}

// LoginURL builds the login path carrying the page to return to.
func LoginURL(returnURL string) string {
	if returnURL == "" || returnURL == auth.PathRoot {
		return auth.PathLogin
	}
	return auth.PathLogin + "?" + url.Values{"returnUrl": {returnURL}}.Encode()
}
