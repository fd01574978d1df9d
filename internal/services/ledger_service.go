package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/joshua-takyi/eventease/internal/models"
)

// LedgerService answers attendance questions: counts, admission previews and
// the dashboard figures.
type LedgerService struct {
	events models.EventRepo
	rsvps  models.RsvpRepo
	now    func() time.Time
}

func NewLedgerService(store models.Store) *LedgerService {
	return &LedgerService{
		events: store,
		rsvps:  store,
		now:    time.Now,
	}
}

type Dashboard struct {
	Events             int     `json:"events"`
	UpcomingEvents     int     `json:"upcoming_events"`
	TotalAttendees     int     `json:"total_attendees"`
	AttendeesThisMonth int     `json:"attendees_this_month"`
	AttendeesLastMonth int     `json:"attendees_last_month"`
	GrowthPercentage   float64 `json:"growth_percentage"`
}

// AttendeeCount returns the number of confirmed RSVPs for the event.
func (ls *LedgerService) AttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	if _, err := ls.events.GetEventByID(ctx, eventID); err != nil {
		return 0, err
	}
	return ls.rsvps.CountConfirmed(ctx, access.Unrestricted{}, models.RsvpCountFilter{EventID: eventID})
}

// AdmitRsvp previews the decision a confirmed RSVP from email would get now.
// The stored outcome is decided again inside the write.
func (ls *LedgerService) AdmitRsvp(ctx context.Context, eventID uuid.UUID, email string) (admission.Decision, error) {
	email = models.NormalizeEmail(email)
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return 0, NewValidationError("email", "must be a valid email address")
	}

	event, err := ls.events.GetEventByID(ctx, eventID)
	if err != nil {
		return 0, err
	}
	prior, err := ls.rsvps.GetRsvp(ctx, eventID, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return 0, err
	}
	confirmed, err := ls.rsvps.CountConfirmed(ctx, access.Unrestricted{}, models.RsvpCountFilter{EventID: eventID})
	if err != nil {
		return 0, err
	}
	return admission.Decide(event.MaxAttendeeCount, confirmed, prior.Registration(), true), nil
}

// Growth counts confirmed RSVPs created this month and last month within the
// actor's scope.
func (ls *LedgerService) Growth(ctx context.Context, actor *access.Actor, now time.Time) (thisMonth, lastMonth int, pct float64, err error) {
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return 0, 0, 0, err
	}
	return ls.growth(ctx, scope, now)
}

func (ls *LedgerService) growth(ctx context.Context, scope access.Scope, now time.Time) (int, int, float64, error) {
	current, previous := admission.MonthWindows(now)
	thisMonth, err := ls.rsvps.CountConfirmed(ctx, scope, models.RsvpCountFilter{
		CreatedFrom: current.From,
		CreatedTo:   current.To,
	})
	if err != nil {
		return 0, 0, 0, err
	}
	lastMonth, err := ls.rsvps.CountConfirmed(ctx, scope, models.RsvpCountFilter{
		CreatedFrom: previous.From,
		CreatedTo:   previous.To,
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return thisMonth, lastMonth, admission.GrowthPercentage(thisMonth, lastMonth), nil
}

func (ls *LedgerService) Dashboard(ctx context.Context, actor *access.Actor) (*Dashboard, error) {
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	now := ls.now()

	var d Dashboard
	if d.Events, err = ls.events.CountEvents(ctx, scope, models.EventCountFilter{}); err != nil {
		return nil, err
	}
	if d.UpcomingEvents, err = ls.events.CountEvents(ctx, scope, models.EventCountFilter{StartsAfter: now}); err != nil {
		return nil, err
	}
	if d.TotalAttendees, err = ls.rsvps.CountConfirmed(ctx, scope, models.RsvpCountFilter{}); err != nil {
		return nil, err
	}
	if d.AttendeesThisMonth, d.AttendeesLastMonth, d.GrowthPercentage, err = ls.growth(ctx, scope, now); err != nil {
		return nil, err
	}
	return &d, nil
}
