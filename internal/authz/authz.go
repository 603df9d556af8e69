// Package authz holds the single owner-or-admin rule applied to every
// complaint and feedback instance.
package authz

import "errors"

// ErrDenied is returned when the principal may not act on the resource.
var ErrDenied = errors.New("not authorized")

// Role is the authorization role of a principal.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// ParseRole maps a stored role to a Role.  Unknown values get no privileges.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Action names the operation being attempted on a single resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Principal is the authenticated identity of a request.  Name and Email are
// carried for response shaping only and take no part in decisions.
type Principal struct {
	ID    uint64
	Role  Role
	Name  string
	Email string
}

// Owned is implemented by resources that carry a single owning user.
type Owned interface {
	OwnerID() uint64
}

// Authorize allows the action iff the principal owns the resource or is an
// admin.  The rule is the same for every action.
func Authorize(p Principal, ownerID uint64, _ Action) error {
	if p.Role.IsAdmin() {
		return nil
	}
	if p.ID != 0 && p.ID == ownerID {
		return nil
	}
	return ErrDenied
}

// AuthorizeResource is Authorize applied to an Owned value.
func AuthorizeResource(p Principal, r Owned, action Action) error {
	return Authorize(p, r.OwnerID(), action)
}
