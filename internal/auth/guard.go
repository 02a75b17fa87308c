package auth

import (
	"slices"
	"strings"
)

type requirementKind uint8

const (
	requireAuthenticated requirementKind = iota
	requireAnyRole
	requirePermission
)

// Requirement is the access rule an operation declares. The zero value only
// asks for an authenticated caller.
type Requirement struct {
	kind       requirementKind
	roles      []string
	permission string
}

// RequireAuthenticated admits any caller holding a valid token.
func RequireAuthenticated() Requirement {
	return Requirement{kind: requireAuthenticated}
}

// RequireAnyRole admits callers whose role is one of names.
func RequireAnyRole(names ...string) Requirement {
	return Requirement{kind: requireAnyRole, roles: slices.Clone(names)}
}

// RequirePermission admits callers whose permission snapshot contains name.
func RequirePermission(name string) Requirement {
	return Requirement{kind: requirePermission, permission: name}
}

func (r Requirement) String() string {
	switch r.kind {
	case requireAnyRole:
		return "roles:" + strings.Join(r.roles, ",")
	case requirePermission:
		return "permission:" + r.permission
	default:
		return "authenticated"
	}
}

// Decision is the outcome of Decide.
type Decision uint8

const (
	DecisionUnauthenticated Decision = iota
	DecisionAuthorized
	DecisionForbidden
)

// String returns the machine-readable reason code.
func (d Decision) String() string {
	switch d {
	case DecisionAuthorized:
		return "authorized"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "unauthenticated"
	}
}

// Err maps the decision onto the package sentinels; nil when authorized.
func (d Decision) Err() error {
	switch d {
	case DecisionAuthorized:
		return nil
	case DecisionForbidden:
		return ErrForbidden
	default:
		return ErrUnauthenticated
	}
}

// Decide compares verified claims against req. Nil claims mean the caller did
// not authenticate. It reads nothing but its arguments.
func Decide(claims *Claims, req Requirement) Decision {
	if claims == nil {
		return DecisionUnauthenticated
	}
	switch req.kind {
	case requireAnyRole:
		for _, name := range req.roles {
			if claims.HasRole(name) {
				return DecisionAuthorized
			}
		}
		return DecisionForbidden
	case requirePermission:
		if claims.HasPermission(req.permission) {
			return DecisionAuthorized
		}
		return DecisionForbidden
	default:
		return DecisionAuthorized
	}
}
