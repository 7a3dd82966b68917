package domain

import "fmt"

// Role is the closed set of account roles. Add variants at the end; every switch
// over Role must handle each one.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdministrator
	RoleMember
)

// String returns the persisted / wire form.
func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "ADMINISTRATOR"
	case RoleMember:
		return "MEMBER"
	case RoleUnknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is a known, assignable role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleMember:
		return true
	case RoleUnknown:
		return false
	}
	return false
}

// ParseRole parses the persisted form. Unknown strings are an error, never a default.
func ParseRole(s string) (Role, error) {
	switch s {
	case "ADMINISTRATOR":
		return RoleAdministrator, nil
	case "MEMBER":
		return RoleMember, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}
