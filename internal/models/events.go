package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:event"`

	ID               uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Title            string    `bun:"title,notnull" json:"title"`
	Description      string    `bun:"description,notnull" json:"description"`
	Location         string    `bun:"location,notnull" json:"location"`
	Date             time.Time `bun:"event_date,notnull" json:"date"`
	MaxAttendeeCount *int      `bun:"max_attendee_count" json:"max_attendee_count"`
	CreatedBy        uuid.UUID `bun:"created_by,type:uuid,notnull" json:"created_by"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// EventInput is the payload for creating an event.
type EventInput struct {
	Title            string    `json:"title" validate:"required,max=200"`
	Description      string    `json:"description" validate:"max=5000"`
	Location         string    `json:"location" validate:"required,max=300"`
	Date             time.Time `json:"date" validate:"required"`
	MaxAttendeeCount *int      `json:"max_attendee_count" validate:"omitnil,gt=0"`
}

// EventPatch carries the fields of an event update. Nil fields are left
// untouched; ClearMaxAttendeeCount removes the capacity limit.
type EventPatch struct {
	Title                 *string    `json:"title" validate:"omitnil,min=1,max=200"`
	Description           *string    `json:"description" validate:"omitnil,max=5000"`
	Location              *string    `json:"location" validate:"omitnil,min=1,max=300"`
	Date                  *time.Time `json:"date"`
	MaxAttendeeCount      *int       `json:"max_attendee_count" validate:"omitnil,gt=0"`
	ClearMaxAttendeeCount bool       `json:"clear_max_attendee_count"`
}

func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil &&
		p.Date == nil && p.MaxAttendeeCount == nil && !p.ClearMaxAttendeeCount
}

// TouchesCapacity reports whether applying the patch can lower the capacity.
func (p EventPatch) TouchesCapacity() bool {
	return p.MaxAttendeeCount != nil
}

// Apply copies the set fields onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Date != nil {
		e.Date = p.Date.UTC()
	}
	switch {
	case p.ClearMaxAttendeeCount:
		e.MaxAttendeeCount = nil
	case p.MaxAttendeeCount != nil:
		capacity := *p.MaxAttendeeCount
		e.MaxAttendeeCount = &capacity
	}
}

type EventCountFilter struct {
	// StartsAfter limits the count to events dated strictly after it when set.
	StartsAfter time.Time
}

// EventSummary is an event together with its confirmed attendance.
type EventSummary struct {
	*Event
	AttendeeCount int                     `json:"attendee_count"`
	CapacityState admission.CapacityState `json:"capacity_state"`
	SpotsLeft     *int                    `json:"spots_left"`
}

func NewEventSummary(e *Event, confirmed int) *EventSummary {
	return &EventSummary{
		Event:         e,
		AttendeeCount: confirmed,
		CapacityState: admission.State(e.MaxAttendeeCount, confirmed),
		SpotsLeft:     admission.SpotsLeft(e.MaxAttendeeCount, confirmed),
	}
}
