package access

import (
	"fmt"

	"github.com/google/uuid"
)

// Scope restricts which rows a query may return. It is either Unrestricted or
// OwnedBy; a nil Scope is never valid and storage rejects it.
type Scope interface {
	isScope()
	String() string
}

// Unrestricted matches every row.
type Unrestricted struct{}

func (Unrestricted) isScope()       {}
func (Unrestricted) String() string { return "unrestricted" }

// OwnedBy matches events created by ActorID, and RSVPs whose parent event was
// created by ActorID.
type OwnedBy struct {
	ActorID uuid.UUID
}

func (OwnedBy) isScope() {}
func (o OwnedBy) String() string {
	return fmt.Sprintf("owned_by:%s", o.ActorID)
}

// ScopeFor derives the row filter for actor. Absence of a usable identity is
// ErrUnauthenticated or ErrForbidden, never Unrestricted.
func ScopeFor(actor *Actor) (Scope, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !actor.Role.Valid() || actor.ID == uuid.Nil {
		return nil, ErrForbidden
	}
	if Authorize(actor.Role, ManageAllEvents) {
		return Unrestricted{}, nil
	}
	return OwnedBy{ActorID: actor.ID}, nil
}

// CheckScope validates a scope handed to storage.
func CheckScope(scope Scope) error {
	switch s := scope.(type) {
	case Unrestricted:
		return nil
	case OwnedBy:
		if s.ActorID == uuid.Nil {
			return fmt.Errorf("%w: scope owner is empty", ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("%w: missing row scope", ErrForbidden)
	}
}

// Allows reports whether a row owned by ownerID is inside the scope.
func Allows(scope Scope, ownerID uuid.UUID) bool {
	switch s := scope.(type) {
	case Unrestricted:
		return true
	case OwnedBy:
		return s.ActorID != uuid.Nil && s.ActorID == ownerID
	}
	return false
}
