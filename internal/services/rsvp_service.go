package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/joshua-takyi/eventease/internal/logging"
	"github.com/joshua-takyi/eventease/internal/metrics"
	"github.com/joshua-takyi/eventease/internal/models"
)

type RsvpService struct {
	rsvps   models.RsvpRepo
	events  models.EventRepo
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewRsvpService(store models.Store, m *metrics.Metrics, logger *slog.Logger) *RsvpService {
	return &RsvpService{
		rsvps:   store,
		events:  store,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// UpsertRsvp registers or updates the RSVP for (event, email). A Full decision
// is returned together with ErrFull; nothing is written in that case.
func (rs *RsvpService) UpsertRsvp(ctx context.Context, in models.RsvpInput) (*models.Rsvp, admission.Decision, error) {
	in.Normalize()
	if err := validate(in); err != nil {
		return nil, 0, err
	}

	wantConfirmed := in.Status == models.RsvpConfirmed
	decide := func(event *models.Event, confirmed int, prior *models.Rsvp) admission.Decision {
		return admission.Decide(event.MaxAttendeeCount, confirmed, prior.Registration(), wantConfirmed)
	}

	rsvp, decision, err := rs.rsvps.UpsertRsvp(ctx, in, rs.now(), decide)
	if err != nil {
		return nil, 0, err
	}
	rs.metrics.RecordDecision(decision)

	log := logging.FromContext(ctx, rs.logger)
	if decision == admission.Full {
		log.Info("rsvp refused", "event_id", in.EventID, "decision", decision)
		return nil, decision, fmt.Errorf("event %s: %w", in.EventID, ErrFull)
	}
	log.Info("rsvp stored",
		"event_id", in.EventID,
		"rsvp_id", rsvp.ID,
		"status", rsvp.Status,
		"decision", decision,
	)
	return rsvp, decision, nil
}

// ListAttendees lists RSVPs across every event the actor may see.
func (rs *RsvpService) ListAttendees(ctx context.Context, actor *access.Actor, filter models.RsvpFilter) ([]*models.Rsvp, error) {
	if err := requireAttendeeView(actor); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, NewValidationError("status", "must be one of: confirmed, cancelled")
	}
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	return rs.rsvps.ListRsvps(ctx, scope, filter)
}

// ExportAttendees is ListAttendees gated on export_data.
func (rs *RsvpService) ExportAttendees(ctx context.Context, actor *access.Actor, filter models.RsvpFilter) ([]*models.Rsvp, error) {
	if err := access.Require(actor, access.ExportData); err != nil {
		return nil, err
	}
	return rs.ListAttendees(ctx, actor, filter)
}

func (rs *RsvpService) EventAttendees(ctx context.Context, actor *access.Actor, eventID uuid.UUID) ([]*models.Rsvp, error) {
	event, err := rs.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewAttendees(actor, event.CreatedBy); err != nil {
		return nil, err
	}
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	return rs.rsvps.ListRsvps(ctx, scope, models.RsvpFilter{EventID: eventID})
}

// RemoveAttendee deletes the RSVP outright, freeing its seat if it held one.
func (rs *RsvpService) RemoveAttendee(ctx context.Context, actor *access.Actor, eventID, rsvpID uuid.UUID) error {
	event, err := rs.events.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if err := access.CanManageEvent(actor, access.EditEvents, event.CreatedBy); err != nil {
		return err
	}
	if err := rs.rsvps.DeleteRsvp(ctx, eventID, rsvpID); err != nil {
		return err
	}

	logging.FromContext(ctx, rs.logger).Info("attendee removed",
		"event_id", eventID,
		"rsvp_id", rsvpID,
		"actor_id", actor.ID,
	)
	return nil
}

func requireAttendeeView(actor *access.Actor) error {
	if actor == nil {
		return access.ErrUnauthenticated
	}
	if actor.Can(access.ViewAllAttendees) || actor.Can(access.ViewOwnAttendees) {
		return nil
	}
	return fmt.Errorf("role %q cannot view attendees: %w", actor.Role, access.ErrForbidden)
}
