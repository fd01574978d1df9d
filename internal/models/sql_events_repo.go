package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

func (r *SQLRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Date = event.Date.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	event.UpdatedAt = event.UpdatedAt.UTC()

	if _, err := r.db.NewInsert().Model(event).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

func (r *SQLRepo) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	return r.findEvent(ctx, r.db, id, false)
}

// findEvent loads one event. With lock set the row is held FOR UPDATE on
// Postgres; SQLite serializes writers on its single connection instead.
func (r *SQLRepo) findEvent(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*Event, error) {
	event := new(Event)
	q := db.NewSelect().Model(event).Where("event.id = ?", id)
	if lock && r.db.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return event, nil
}

func (r *SQLRepo) ListEvents(ctx context.Context, scope access.Scope, offset, limit int) ([]*Event, int, error) {
	events := make([]*Event, 0)
	q, err := scopeEvents(r.db.NewSelect().Model(&events), scope)
	if err != nil {
		return nil, 0, err
	}

	total, err := q.
		OrderExpr("event.event_date ASC, event.id ASC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}

func (r *SQLRepo) UpdateEvent(ctx context.Context, id uuid.UUID, patch EventPatch, now time.Time) (*Event, error) {
	var updated *Event
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		event, err := r.findEvent(ctx, tx, id, true)
		if err != nil {
			return err
		}

		patch.Apply(event)
		if patch.TouchesCapacity() && event.MaxAttendeeCount != nil {
			confirmed, err := countConfirmed(ctx, tx, id)
			if err != nil {
				return err
			}
			if confirmed > *event.MaxAttendeeCount {
				return fmt.Errorf("%d confirmed, capacity %d: %w", confirmed, *event.MaxAttendeeCount, ErrCapacityBelowAttendance)
			}
		}
		event.UpdatedAt = now.UTC()

		if _, err := tx.NewUpdate().Model(event).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEvent removes the event and its RSVPs in one transaction.
func (r *SQLRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Rsvp)(nil)).
			Where("event_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete rsvps: %w", err)
		}

		res, err := tx.NewDelete().
			Model((*Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

func (r *SQLRepo) CountEvents(ctx context.Context, scope access.Scope, filter EventCountFilter) (int, error) {
	q, err := scopeEvents(r.db.NewSelect().Model((*Event)(nil)), scope)
	if err != nil {
		return 0, err
	}
	if !filter.StartsAfter.IsZero() {
		q = q.Where("event.event_date > ?", filter.StartsAfter.UTC())
	}

	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

func (r *SQLRepo) ConfirmedCounts(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID uuid.UUID `bun:"event_id"`
		Count   int       `bun:"confirmed"`
	}
	if err := r.db.NewSelect().
		Model((*Rsvp)(nil)).
		Column("event_id").
		ColumnExpr("COUNT(*) AS confirmed").
		Where("rsvp.event_id IN (?)", bun.In(eventIDs)).
		Where("rsvp.status = ?", RsvpConfirmed).
		Group("event_id").
		Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to count attendees: %w", err)
	}

	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	return counts, nil
}

func countConfirmed(ctx context.Context, db bun.IDB, eventID uuid.UUID) (int, error) {
	n, err := db.NewSelect().
		Model((*Rsvp)(nil)).
		Where("rsvp.event_id = ?", eventID).
		Where("rsvp.status = ?", RsvpConfirmed).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count confirmed rsvps: %w", err)
	}
	return n, nil
}
