package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/uptrace/bun"
)

type RsvpStatus string

const (
	RsvpConfirmed RsvpStatus = "confirmed"
	RsvpCancelled RsvpStatus = "cancelled"
)

func (s RsvpStatus) Valid() bool {
	return s == RsvpConfirmed || s == RsvpCancelled
}

type Rsvp struct {
	bun.BaseModel `bun:"table:rsvps,alias:rsvp"`

	ID        uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	EventID   uuid.UUID  `bun:"event_id,type:uuid,notnull,unique:rsvps_event_email" json:"event_id"`
	Name      string     `bun:"name,notnull" json:"name"`
	Email     string     `bun:"email,notnull,unique:rsvps_event_email" json:"email"`
	Status    RsvpStatus `bun:"status,notnull" json:"status"`
	CreatedAt time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at,notnull" json:"updated_at"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
}

// Registration describes r as a prior registration. A nil r is no registration.
func (r *Rsvp) Registration() admission.Registration {
	if r == nil {
		return admission.Registration{}
	}
	return admission.Registration{Exists: true, Confirmed: r.Status == RsvpConfirmed}
}

type RsvpInput struct {
	EventID uuid.UUID  `json:"event_id" validate:"required"`
	Name    string     `json:"name" validate:"required,max=120"`
	Email   string     `json:"email" validate:"required,email,max=254"`
	Status  RsvpStatus `json:"status" validate:"omitempty,oneof=confirmed cancelled"`
}

// Normalize trims the name, lower-cases the email and defaults the status.
func (in *RsvpInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if in.Status == "" {
		in.Status = RsvpConfirmed
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DecideFunc is evaluated by the store inside its atomic unit with the current
// event, its confirmed count and the prior registration for the email, if any.
type DecideFunc func(event *Event, confirmed int, prior *Rsvp) admission.Decision

type RsvpFilter struct {
	EventID uuid.UUID
	Status  RsvpStatus
	// Query matches name or email case-insensitively.
	Query string
}

type RsvpCountFilter struct {
	EventID uuid.UUID
	// CreatedFrom and CreatedTo bound created_at as [from, to) when set.
	CreatedFrom time.Time
	CreatedTo   time.Time
}
