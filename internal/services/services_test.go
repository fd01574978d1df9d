package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *models.SQLRepo {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, models.CreateSchema(context.Background(), db))
	return models.SQLNewRepo(db)
}

func actor(role access.Role) *access.Actor {
	return &access.Actor{ID: uuid.New(), Email: string(role) + "@x.com", Name: string(role), Role: role}
}

func intPtr(n int) *int { return &n }

func createEvent(t *testing.T, es *EventService, owner *access.Actor, capacity *int) *models.EventSummary {
	t.Helper()
	event, err := es.CreateEvent(context.Background(), owner, models.EventInput{
		Title:            "Event by " + owner.Name,
		Location:         "Accra",
		Date:             time.Now().Add(48 * time.Hour),
		MaxAttendeeCount: capacity,
	})
	require.NoError(t, err)
	return event
}
