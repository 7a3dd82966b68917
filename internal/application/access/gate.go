// Package access decides, per request, whether a route may be served given the
// presence of a verified session.
package access

import (
	"errors"
	"fmt"
	"strings"
)

// RouteClass is how the gate treats a path.
type RouteClass uint8

const (
	RoutePublic RouteClass = iota
	RouteProtected
	RouteAuthOnly
)

func (c RouteClass) String() string {
	switch c {
	case RoutePublic:
		return "public"
	case RouteProtected:
		return "protected"
	case RouteAuthOnly:
		return "auth_only"
	}
	return fmt.Sprintf("RouteClass(%d)", uint8(c))
}

// Action is the outcome of the gate.
type Action uint8

const (
	ActionAllow Action = iota
	ActionRedirectLogin
	ActionRedirectLanding
)

func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionRedirectLogin:
		return "redirect_login"
	case ActionRedirectLanding:
		return "redirect_landing"
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// Decide is the gate state machine. An invalid session counts as no session.
func Decide(class RouteClass, authenticated bool) Action {
	switch class {
	case RouteProtected:
		if !authenticated {
			return ActionRedirectLogin
		}
		return ActionAllow
	case RouteAuthOnly:
		if authenticated {
			return ActionRedirectLanding
		}
		return ActionAllow
	case RoutePublic:
		return ActionAllow
	}
	// Unknown classes are treated as protected.
	if !authenticated {
		return ActionRedirectLogin
	}
	return ActionAllow
}

// Rules classify paths and name the redirect targets.
type Rules struct {
	// Excluded prefixes bypass the gate entirely. A path is excluded when the text
	// after its leading "/" starts with one of them.
	Excluded []string
	// Protected and AuthOnly match a path equal to the prefix or below it.
	Protected   []string
	AuthOnly    []string
	LoginPath   string
	LandingPath string
}

// DefaultRules gates the dashboard and expense pages behind a session and keeps
// signed-in users off the login and signup pages.
func DefaultRules() Rules {
	return Rules{
		Excluded:    []string{"api", "_next/static", "_next/image", "favicon.ico"},
		Protected:   []string{"/dashboard", "/expenses"},
		AuthOnly:    []string{"/login", "/signup"},
		LoginPath:   "/login",
		LandingPath: "/dashboard",
	}
}

// Validate rejects redirect targets that the gate would redirect again: a login
// path behind a session, or a landing path closed to signed-in users.
func (r Rules) Validate() error {
	var errs []error
	if r.Matches(r.LoginPath) && r.Classify(r.LoginPath) == RouteProtected {
		errs = append(errs, fmt.Errorf("login path %q is protected and would redirect to itself", r.LoginPath))
	}
	if r.Matches(r.LandingPath) && r.Classify(r.LandingPath) == RouteAuthOnly {
		errs = append(errs, fmt.Errorf("landing path %q is auth-only and would redirect to itself", r.LandingPath))
	}
	return errors.Join(errs...)
}

// Matches reports whether the gate runs for path at all.
func (r Rules) Matches(path string) bool {
	rest := strings.TrimPrefix(path, "/")
	for _, ex := range r.Excluded {
		if strings.HasPrefix(rest, ex) {
			return false
		}
	}
	return true
}

// Classify returns the class of path. Paths not listed are public.
func (r Rules) Classify(path string) RouteClass {
	for _, p := range r.Protected {
		if underPrefix(path, p) {
			return RouteProtected
		}
	}
	for _, p := range r.AuthOnly {
		if underPrefix(path, p) {
			return RouteAuthOnly
		}
	}
	return RoutePublic
}

// Evaluate runs the gate for path and returns the action with its redirect target.
// Excluded paths are always allowed.
func (r Rules) Evaluate(path string, authenticated bool) (Action, string) {
	if !r.Matches(path) {
		return ActionAllow, ""
	}
	switch a := Decide(r.Classify(path), authenticated); a {
	case ActionRedirectLogin:
		return a, r.LoginPath
	case ActionRedirectLanding:
		return a, r.LandingPath
	default:
		return a, ""
	}
}

func underPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return path == "/"
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
