// Package guard gates navigation and actions. Resolve decides which screen a
// path mounts, redirecting unauthenticated dashboard access to the login
// screen; Policy is the explicit authorization seam applied before actions.
package guard

import (
	"errors"
	"net/url"
	"strings"

	"github.com/orionsagar/catalog-console/internal/session"
)

// ErrLoginRequired indicates the action needs an authenticated session.
var ErrLoginRequired = errors.New("login required")

// Screen names the console's navigable surfaces.
type Screen string

const (
	ScreenLogin          Screen = "login"
	ScreenRegister       Screen = "register"
	ScreenProducts       Screen = "products"
	ScreenProjects       Screen = "projects"
	ScreenItems          Screen = "items"
	ScreenAuditLogs      Screen = "auditlogs"
	ScreenProductSummary Screen = "summary/product"
	ScreenProjectSummary Screen = "summary/project"
)

// Action names an operation a screen can perform, for policy checks.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Policy decides whether an identity may perform an action.
type Policy func(identity *session.Identity, action Action) error

// AllowAuthenticated is the default policy: any authenticated identity
// passes, regardless of role. Role-specific rules plug in here when the
// backend defines them.
func AllowAuthenticated(identity *session.Identity, _ Action) error {
	if identity == nil {
		return ErrLoginRequired
	}
	return nil
}

// Resolution is the outcome of resolving a navigation path.
type Resolution struct {
	// Screen to mount; empty when redirecting.
	Screen Screen
	// Params holds query parameters and the trailing id segment for
	// summary screens (under "id").
	Params url.Values
	// RedirectTo is the path to navigate to instead.
	RedirectTo string
	// Replace indicates the redirect must replace history so back
	// navigation cannot return to the guarded path.
	Replace bool
}

// Redirected reports whether the resolution is a redirect.
func (r Resolution) Redirected() bool { return r.RedirectTo != "" }

// Resolve maps a path to a screen, or to a redirect. Presence of a token is
// the only gate; no role or claim is consulted.
func Resolve(path string, loggedIn bool) Resolution {
	parsed, err := url.Parse(path)
	if err != nil {
		return Resolution{RedirectTo: "/login"}
	}

	switch parsed.Path {
	case "/login":
		return Resolution{Screen: ScreenLogin}
	case "/register":
		return Resolution{Screen: ScreenRegister}
	}

	if parsed.Path == "/dashboard" || strings.HasPrefix(parsed.Path, "/dashboard/") {
		if !loggedIn {
			return Resolution{RedirectTo: "/login", Replace: true}
		}
		return resolveDashboard(parsed)
	}

	return Resolution{RedirectTo: "/login"}
}

func resolveDashboard(parsed *url.URL) Resolution {
	sub := strings.TrimPrefix(strings.TrimPrefix(parsed.Path, "/dashboard"), "/")
	params := parsed.Query()

	switch {
	case sub == "products":
		return Resolution{Screen: ScreenProducts, Params: params}
	case sub == "projects":
		return Resolution{Screen: ScreenProjects, Params: params}
	case sub == "items":
		return Resolution{Screen: ScreenItems, Params: params}
	case sub == "auditlogs":
		return Resolution{Screen: ScreenAuditLogs, Params: params}
	case strings.HasPrefix(sub, "summary/product/"):
		params.Set("id", strings.TrimPrefix(sub, "summary/product/"))
		return Resolution{Screen: ScreenProductSummary, Params: params}
	case strings.HasPrefix(sub, "summary/project/"):
		params.Set("id", strings.TrimPrefix(sub, "summary/project/"))
		return Resolution{Screen: ScreenProjectSummary, Params: params}
	}

	// Unknown dashboard sub-paths land on products.
	return Resolution{RedirectTo: "/dashboard/products"}
}
