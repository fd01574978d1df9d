package access

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnauthenticated is returned when a request carries no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the actor's role does not grant the action.
	ErrForbidden = errors.New("forbidden")
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleStaff      Role = "STAFF"
	RoleEventOwner Role = "EVENT_OWNER"
)

// ParseRole accepts the stored profile role in any letter case.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleStaff, RoleEventOwner:
		return r, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := grants[r]
	return ok
}

type Action string

const (
	ManageAllEvents  Action = "manage_all_events"
	ManageOwnEvents  Action = "manage_own_events"
	ManageUsers      Action = "manage_users"
	ViewAllAttendees Action = "view_all_attendees"
	ViewOwnAttendees Action = "view_own_attendees"
	ExportData       Action = "export_data"
	DeleteEvents     Action = "delete_events"
	CreateEvents     Action = "create_events"
	EditEvents       Action = "edit_events"
)

// Actions lists every action known to the policy.
var Actions = []Action{
	ManageAllEvents,
	ManageOwnEvents,
	ManageUsers,
	ViewAllAttendees,
	ViewOwnAttendees,
	ExportData,
	DeleteEvents,
	CreateEvents,
	EditEvents,
}

var grants = map[Role]map[Action]bool{
	RoleAdmin: {
		ManageAllEvents:  true,
		ManageOwnEvents:  true,
		ManageUsers:      true,
		ViewAllAttendees: true,
		ViewOwnAttendees: true,
		ExportData:       true,
		DeleteEvents:     true,
		CreateEvents:     true,
		EditEvents:       true,
	},
	RoleStaff: {
		ManageAllEvents:  true,
		ManageOwnEvents:  true,
		ViewAllAttendees: true,
		ViewOwnAttendees: true,
		ExportData:       true,
		DeleteEvents:     true,
		CreateEvents:     true,
		EditEvents:       true,
	},
	RoleEventOwner: {
		ManageOwnEvents:  true,
		ViewOwnAttendees: true,
		ExportData:       true,
		CreateEvents:     true,
	},
}

// Authorize reports whether role is granted action. Unknown roles get nothing.
func Authorize(role Role, action Action) bool {
	return grants[role][action]
}

// Require fails with ErrUnauthenticated for a missing actor and ErrForbidden
// when the actor's role lacks action.
func Require(actor *Actor, action Action) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !Authorize(actor.Role, action) {
		return ErrForbidden
	}
	return nil
}

// CanManageEvent decides whether actor may perform action (edit_events,
// delete_events) on an event created by ownerID.
func CanManageEvent(actor *Actor, action Action, ownerID uuid.UUID) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if Authorize(actor.Role, ManageAllEvents) && Authorize(actor.Role, action) {
		return nil
	}
	if Authorize(actor.Role, ManageOwnEvents) && actor.Owns(ownerID) {
		return nil
	}
	return ErrForbidden
}

// CanViewAttendees decides whether actor may read the attendee list of an
// event created by ownerID.
func CanViewAttendees(actor *Actor, ownerID uuid.UUID) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if Authorize(actor.Role, ViewAllAttendees) {
		return nil
	}
	if Authorize(actor.Role, ViewOwnAttendees) && actor.Owns(ownerID) {
		return nil
	}
	return ErrForbidden
}
