package models

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema creates the events and rsvps tables and their indexes when they
// do not exist yet.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*Event)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("events table: %w", err)
		}
		if _, err := tx.NewCreateTable().
			Model((*Rsvp)(nil)).
			IfNotExists().
			ForeignKey(`("event_id") REFERENCES "events" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return fmt.Errorf("rsvps table: %w", err)
		}

		for _, idx := range []struct {
			model   interface{}
			name    string
			columns []string
		}{
			{(*Event)(nil), "events_created_by_idx", []string{"created_by"}},
			{(*Event)(nil), "events_event_date_idx", []string{"event_date"}},
			{(*Rsvp)(nil), "rsvps_event_status_idx", []string{"event_id", "status"}},
			{(*Rsvp)(nil), "rsvps_created_at_idx", []string{"created_at"}},
		} {
			if _, err := tx.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				Column(idx.columns...).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("index %s: %w", idx.name, err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("CreateSchema: %w", err)
	}

	return nil
}
