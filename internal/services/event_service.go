package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/logging"
	"github.com/joshua-takyi/eventease/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampPage bounds offset and limit to sane values.
func ClampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return offset, limit
}

type EventService struct {
	repo   models.EventRepo
	logger *slog.Logger
	now    func() time.Time
}

func NewEventService(repo models.EventRepo, logger *slog.Logger) *EventService {
	return &EventService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (es *EventService) CreateEvent(ctx context.Context, actor *access.Actor, in models.EventInput) (*models.EventSummary, error) {
	if err := access.Require(actor, access.CreateEvents); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate(in); err != nil {
		return nil, err
	}

	now := es.now().UTC()
	event, err := es.repo.CreateEvent(ctx, &models.Event{
		ID:               uuid.New(),
		Title:            in.Title,
		Description:      in.Description,
		Location:         in.Location,
		Date:             in.Date.UTC(),
		MaxAttendeeCount: in.MaxAttendeeCount,
		CreatedBy:        actor.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	logging.FromContext(ctx, es.logger).Info("event created",
		"event_id", event.ID,
		"created_by", actor.ID,
	)
	return models.NewEventSummary(event, 0), nil
}

// GetEvent returns the event if it falls inside the actor's scope.
func (es *EventService) GetEvent(ctx context.Context, actor *access.Actor, id uuid.UUID) (*models.EventSummary, error) {
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	event, err := es.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Allows(scope, event.CreatedBy) {
		return nil, fmt.Errorf("event %s is outside %s: %w", id, scope, access.ErrForbidden)
	}
	return es.summarize(ctx, event)
}

func (es *EventService) ListEvents(ctx context.Context, actor *access.Actor, offset, limit int) ([]*models.EventSummary, int, error) {
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return nil, 0, err
	}
	return es.list(ctx, scope, offset, limit)
}

// ListPublicEvents lists every event for anonymous visitors.
func (es *EventService) ListPublicEvents(ctx context.Context, offset, limit int) ([]*models.EventSummary, int, error) {
	return es.list(ctx, access.Unrestricted{}, offset, limit)
}

func (es *EventService) GetPublicEvent(ctx context.Context, id uuid.UUID) (*models.EventSummary, error) {
	event, err := es.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return es.summarize(ctx, event)
}

// ExportEvents returns every event in the actor's scope for CSV export.
func (es *EventService) ExportEvents(ctx context.Context, actor *access.Actor) ([]*models.EventSummary, error) {
	if err := access.Require(actor, access.ExportData); err != nil {
		return nil, err
	}
	scope, err := access.ScopeFor(actor)
	if err != nil {
		return nil, err
	}

	var all []*models.EventSummary
	for offset := 0; ; offset += MaxPageSize {
		page, total, err := es.list(ctx, scope, offset, MaxPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
	}
}

func (es *EventService) UpdateEvent(ctx context.Context, actor *access.Actor, id uuid.UUID, patch models.EventPatch) (*models.EventSummary, error) {
	event, err := es.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageEvent(actor, access.EditEvents, event.CreatedBy); err != nil {
		return nil, err
	}

	trimPtr(patch.Title)
	trimPtr(patch.Location)
	trimPtr(patch.Description)
	if patch.Empty() {
		return nil, NewValidationError("body", "has no fields to update")
	}
	if err := validate(patch); err != nil {
		return nil, err
	}

	updated, err := es.repo.UpdateEvent(ctx, id, patch, es.now())
	if err != nil {
		if errors.Is(err, models.ErrCapacityBelowAttendance) {
			return nil, NewValidationError("max_attendee_count", "is below the number of confirmed attendees")
		}
		return nil, err
	}

	logging.FromContext(ctx, es.logger).Info("event updated", "event_id", id, "actor_id", actor.ID)
	return es.summarize(ctx, updated)
}

func (es *EventService) DeleteEvent(ctx context.Context, actor *access.Actor, id uuid.UUID) error {
	event, err := es.repo.GetEventByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanManageEvent(actor, access.DeleteEvents, event.CreatedBy); err != nil {
		return err
	}
	if err := es.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}

	logging.FromContext(ctx, es.logger).Info("event deleted", "event_id", id, "actor_id", actor.ID)
	return nil
}

func (es *EventService) list(ctx context.Context, scope access.Scope, offset, limit int) ([]*models.EventSummary, int, error) {
	offset, limit = ClampPage(offset, limit)
	events, total, err := es.repo.ListEvents(ctx, scope, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	counts, err := es.repo.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]*models.EventSummary, 0, len(events))
	for _, e := range events {
		summaries = append(summaries, models.NewEventSummary(e, counts[e.ID]))
	}
	return summaries, total, nil
}

func (es *EventService) summarize(ctx context.Context, event *models.Event) (*models.EventSummary, error) {
	counts, err := es.repo.ConfirmedCounts(ctx, []uuid.UUID{event.ID})
	if err != nil {
		return nil, err
	}
	return models.NewEventSummary(event, counts[event.ID]), nil
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
