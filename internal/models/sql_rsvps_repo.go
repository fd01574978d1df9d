package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/uptrace/bun"
)

// UpsertRsvp locks the event, reads the prior registration and the confirmed
// count, asks decide and writes the row, all in one transaction. A refused
// decision is returned with a nil row and no write.
func (r *SQLRepo) UpsertRsvp(ctx context.Context, in RsvpInput, now time.Time, decide DecideFunc) (*Rsvp, admission.Decision, error) {
	var (
		stored   *Rsvp
		decision admission.Decision
	)
	now = now.UTC()

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		event, err := r.findEvent(ctx, tx, in.EventID, true)
		if err != nil {
			return err
		}

		prior, err := findRsvp(ctx, tx, in.EventID, in.Email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		confirmed, err := countConfirmed(ctx, tx, in.EventID)
		if err != nil {
			return err
		}

		decision = decide(event, confirmed, prior)
		if !decision.Allowed() {
			return nil
		}

		row := &Rsvp{
			ID:        uuid.New(),
			EventID:   in.EventID,
			Name:      in.Name,
			Email:     in.Email,
			Status:    in.Status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (event_id, email) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("status = EXCLUDED.status").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to upsert rsvp: %w", err)
		}

		stored, err = findRsvp(ctx, tx, in.EventID, in.Email)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return stored, decision, nil
}

func (r *SQLRepo) GetRsvp(ctx context.Context, eventID uuid.UUID, email string) (*Rsvp, error) {
	return findRsvp(ctx, r.db, eventID, NormalizeEmail(email))
}

func findRsvp(ctx context.Context, db bun.IDB, eventID uuid.UUID, email string) (*Rsvp, error) {
	rsvp := new(Rsvp)
	if err := db.NewSelect().
		Model(rsvp).
		Where("rsvp.event_id = ?", eventID).
		Where("rsvp.email = ?", email).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rsvp for %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load rsvp: %w", err)
	}
	return rsvp, nil
}

func (r *SQLRepo) ListRsvps(ctx context.Context, scope access.Scope, filter RsvpFilter) ([]*Rsvp, error) {
	rsvps := make([]*Rsvp, 0)
	q, err := scopeRsvps(r.db.NewSelect().Model(&rsvps).Relation("Event"), scope)
	if err != nil {
		return nil, err
	}

	if filter.EventID != uuid.Nil {
		q = q.Where("rsvp.event_id = ?", filter.EventID)
	}
	if filter.Status != "" {
		q = q.Where("rsvp.status = ?", filter.Status)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + term + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(rsvp.name) LIKE ?", like).
				WhereOr("LOWER(rsvp.email) LIKE ?", like)
		})
	}

	if err := q.OrderExpr("rsvp.created_at DESC, rsvp.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	return rsvps, nil
}

func (r *SQLRepo) DeleteRsvp(ctx context.Context, eventID, rsvpID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Rsvp)(nil)).
		Where("id = ?", rsvpID).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete rsvp: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rsvp %s: %w", rsvpID, ErrNotFound)
	}
	return nil
}

func (r *SQLRepo) CountConfirmed(ctx context.Context, scope access.Scope, filter RsvpCountFilter) (int, error) {
	q, err := scopeRsvps(r.db.NewSelect().Model((*Rsvp)(nil)), scope)
	if err != nil {
		return 0, err
	}

	q = q.Where("rsvp.status = ?", RsvpConfirmed)
	if filter.EventID != uuid.Nil {
		q = q.Where("rsvp.event_id = ?", filter.EventID)
	}
	if !filter.CreatedFrom.IsZero() {
		q = q.Where("rsvp.created_at >= ?", filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		q = q.Where("rsvp.created_at < ?", filter.CreatedTo.UTC())
	}

	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count rsvps: %w", err)
	}
	return n, nil
}
