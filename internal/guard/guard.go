// Package guard decides whether a console route may be served for the current session.
//
// Checks run in a fixed order and the first failing one wins:
//
//  1. not authenticated        -> login (carrying the requested location)
//  2. password change pending  -> password change
//  3. required permissions     -> unauthorized
//  4. otherwise                -> render
//
// Decisions are recomputed on every request; nothing is cached.
package guard

import (
	"net/url"

	"schoolpay/internal/rbac"
	"schoolpay/internal/session"
)

type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectPasswordChange
	RedirectUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectPasswordChange:
		return "redirect_password_change"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// Requirement is the per-route permission configuration.
// An empty Permissions list means the route is open to any signed-in user.
type Requirement struct {
	Permissions []rbac.Permission
	RequireAll  bool
}

// Any requires at least one of ps.
func Any(ps ...rbac.Permission) Requirement { return Requirement{Permissions: ps} }

// All requires every one of ps.
func All(ps ...rbac.Permission) Requirement { return Requirement{Permissions: ps, RequireAll: true} }

// Paths are the redirect targets.
type Paths struct {
	Login          string
	ChangePassword string
	Unauthorized   string
	Home           string
}

func DefaultPaths() Paths {
	return Paths{
		Login:          "/login",
		ChangePassword: "/change-password",
		Unauthorized:   "/unauthorized",
		Home:           "/dashboard",
	}
}

// FromParam is the query parameter that carries the originally requested location.
const FromParam = "from"

// Decision is the outcome plus, for redirects, where to go.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide evaluates the guard for one navigation attempt.
func Decide(st session.State, target string, req Requirement, paths Paths) Decision {
	if !st.IsAuthenticated() {
		return Decision{Outcome: RedirectLogin, Location: LoginLocation(paths.Login, target)}
	}
	if st.MustChangePassword {
		return Decision{Outcome: RedirectPasswordChange, Location: paths.ChangePassword}
	}
	if len(req.Permissions) > 0 {
		ok := st.HasAnyPermission(req.Permissions...)
		if req.RequireAll {
			ok = st.HasAllPermissions(req.Permissions...)
		}
		if !ok {
			return Decision{Outcome: RedirectUnauthorized, Location: paths.Unauthorized}
		}
	}
	return Decision{Outcome: Render}
}

// DecideHome resolves the root route: login, pending password change, or the home page.
func DecideHome(st session.State, paths Paths) Decision {
	switch {
	case !st.IsAuthenticated():
		return Decision{Outcome: RedirectLogin, Location: paths.Login}
	case st.MustChangePassword:
		return Decision{Outcome: RedirectPasswordChange, Location: paths.ChangePassword}
	default:
		return Decision{Outcome: Render, Location: paths.Home}
	}
}

// LoginLocation builds the login URL carrying target so login can send the user back.
func LoginLocation(login, target string) string {
	if target == "" || target == login {
		return login
	}
	return login + "?" + url.Values{FromParam: {target}}.Encode()
}

// SafeReturn validates a from value coming back from the login page.
// Only same-origin absolute paths are accepted; anything else yields fallback.
func SafeReturn(from, fallback string) string {
	if from == "" || from[0] != '/' || (len(from) > 1 && (from[1] == '/' || from[1] == '\\')) {
		return fallback
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return from
}
