package models

import (
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/uptrace/bun"
)

// scopeEvents restricts an event query to what scope may see.
func scopeEvents(q *bun.SelectQuery, scope access.Scope) (*bun.SelectQuery, error) {
	if err := access.CheckScope(scope); err != nil {
		return nil, err
	}
	if owned, ok := scope.(access.OwnedBy); ok {
		q = q.Where("event.created_by = ?", owned.ActorID)
	}
	return q, nil
}

// scopeRsvps restricts an rsvp query to rows whose parent event scope may see.
func scopeRsvps(q *bun.SelectQuery, scope access.Scope) (*bun.SelectQuery, error) {
	if err := access.CheckScope(scope); err != nil {
		return nil, err
	}
	if owned, ok := scope.(access.OwnedBy); ok {
		q = q.Where("rsvp.event_id IN (SELECT id FROM events WHERE created_by = ?)", owned.ActorID)
	}
	return q, nil
}
