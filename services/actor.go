package services

import (
	"mps_intranet_go/models"
)

// Actor is the authenticated lawyer on whose behalf an operation runs
type Actor struct {
	Username    string
	Permissions models.Permissions
}

// ActorFromSnapshot builds an Actor from a session user
func ActorFromSnapshot(u models.LawyerSnapshot) Actor {
	return Actor{Username: u.Username, Permissions: u.Permissions}
}

// IsAdmin checks for the admin permission
func (a Actor) IsAdmin() bool {
	return a.Permissions.Has(models.PermissionAdmin)
}

// Can reports whether the actor may use a section. Admins may use all of them.
func (a Actor) Can(p models.Permission) bool {
	return a.Permissions.Has(p) || a.IsAdmin()
}

// Scope is the default data scope: everything for admins, own records otherwise
func (a Actor) Scope() Scope {
	if a.IsAdmin() {
		return AllLawyers()
	}
	return LawyerScope(a.Username)
}

// Scope selects whose records a read covers
type Scope struct {
	Username string
	All      bool
}

// AllLawyers covers every lawyer's records
func AllLawyers() Scope {
	return Scope{All: true}
}

// LawyerScope covers one lawyer's records
func LawyerScope(username string) Scope {
	return Scope{Username: username}
}

// Includes reports whether a record owned by owner falls inside the scope
func (s Scope) Includes(owner string) bool {
	return s.All || s.Username == owner
}

// require returns ErrForbidden unless the actor may use the section
func (a Actor) require(p models.Permission) error {
	if !a.Can(p) {
		return ErrForbidden
	}
	return nil
}

// canTouch returns ErrForbidden unless the actor owns the record or is an admin
func (a Actor) canTouch(owner string) error {
	if a.IsAdmin() || a.Username == owner {
		return nil
	}
	return ErrForbidden
}

// ownerFor resolves the owner of a new record. Only admins may create for someone else.
func (a Actor) ownerFor(requested string) (string, error) {
	if requested == "" || requested == a.Username {
		return a.Username, nil
	}
	if !a.IsAdmin() {
		return "", ErrForbidden
	}
	return requested, nil
}

// SystemAdmin is the actor used by maintenance tools running outside a session
func SystemAdmin() Actor {
	return Actor{Username: SystemActor, Permissions: models.Permissions(models.AllPermissions)}
}
