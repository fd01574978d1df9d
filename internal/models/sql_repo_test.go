package models_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestStore(t *testing.T) *models.SQLRepo {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is its own database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, models.CreateSchema(context.Background(), db))
	return models.SQLNewRepo(db)
}

func intPtr(n int) *int { return &n }

func createEvent(t *testing.T, repo *models.SQLRepo, owner uuid.UUID, title string, capacity *int) *models.Event {
	t.Helper()
	now := time.Now().UTC()
	event, err := repo.CreateEvent(context.Background(), &models.Event{
		Title:            title,
		Location:         "Accra",
		Date:             now.Add(72 * time.Hour),
		MaxAttendeeCount: capacity,
		CreatedBy:        owner,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.NoError(t, err)
	return event
}

func decideFor(status models.RsvpStatus) models.DecideFunc {
	return func(event *models.Event, confirmed int, prior *models.Rsvp) admission.Decision {
		return admission.Decide(event.MaxAttendeeCount, confirmed, prior.Registration(), status == models.RsvpConfirmed)
	}
}

func upsert(t *testing.T, repo *models.SQLRepo, eventID uuid.UUID, name, email string, status models.RsvpStatus) (*models.Rsvp, admission.Decision) {
	t.Helper()
	in := models.RsvpInput{EventID: eventID, Name: name, Email: email, Status: status}
	in.Normalize()
	rsvp, decision, err := repo.UpsertRsvp(context.Background(), in, time.Now(), decideFor(in.Status))
	require.NoError(t, err)
	return rsvp, decision
}

func confirmedFor(t *testing.T, repo *models.SQLRepo, eventID uuid.UUID) int {
	t.Helper()
	n, err := repo.CountConfirmed(context.Background(), access.Unrestricted{}, models.RsvpCountFilter{EventID: eventID})
	require.NoError(t, err)
	return n
}

func TestSQLRepo_AdmissionScenario(t *testing.T) {
	repo := newTestStore(t)
	event := createEvent(t, repo, uuid.New(), "Launch", intPtr(2))

	_, d := upsert(t, repo, event.ID, "A", "a@x.com", models.RsvpConfirmed)
	assert.Equal(t, admission.Admit, d)
	_, d = upsert(t, repo, event.ID, "B", "b@x.com", models.RsvpConfirmed)
	assert.Equal(t, admission.Admit, d)
	assert.Equal(t, 2, confirmedFor(t, repo, event.ID))

	rsvp, d := upsert(t, repo, event.ID, "C", "c@x.com", models.RsvpConfirmed)
	assert.Equal(t, admission.Full, d)
	assert.Nil(t, rsvp)
	_, err := repo.GetRsvp(context.Background(), event.ID, "c@x.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	rsvp, d = upsert(t, repo, event.ID, "A", "a@x.com", models.RsvpCancelled)
	assert.Equal(t, admission.AlreadyRegistered, d)
	assert.Equal(t, models.RsvpCancelled, rsvp.Status)
	assert.Equal(t, 1, confirmedFor(t, repo, event.ID))

	_, d = upsert(t, repo, event.ID, "C", "c@x.com", models.RsvpConfirmed)
	assert.Equal(t, admission.Admit, d)
	assert.Equal(t, 2, confirmedFor(t, repo, event.ID))

	// the cancelled registrant cannot take back a seat while the event is full
	_, d = upsert(t, repo, event.ID, "A", "a@x.com", models.RsvpConfirmed)
	assert.Equal(t, admission.Full, d)
	assert.Equal(t, 2, confirmedFor(t, repo, event.ID))
}

func TestSQLRepo_UpsertTwiceKeepsOneRow(t *testing.T) {
	repo := newTestStore(t)
	event := createEvent(t, repo, uuid.New(), "Meetup", nil)

	first, d := upsert(t, repo, event.ID, "First Name", "  Guest@Example.com ", models.RsvpConfirmed)
	require.Equal(t, admission.Admit, d)
	second, d := upsert(t, repo, event.ID, "Second Name", "guest@example.com", models.RsvpConfirmed)
	require.Equal(t, admission.AlreadyRegistered, d)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Second Name", second.Name)
	assert.Equal(t, "guest@example.com", second.Email)

	rows, err := repo.ListRsvps(context.Background(), access.Unrestricted{}, models.RsvpFilter{EventID: event.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Second Name", rows[0].Name)
	assert.Equal(t, 1, confirmedFor(t, repo, event.ID))
}

func TestSQLRepo_ConfirmedRegistrantNeverFull(t *testing.T) {
	repo := newTestStore(t)
	event := createEvent(t, repo, uuid.New(), "Tiny", intPtr(1))

	_, d := upsert(t, repo, event.ID, "Only", "only@x.com", models.RsvpConfirmed)
	require.Equal(t, admission.Admit, d)

	for i := 0; i < 3; i++ {
		_, d = upsert(t, repo, event.ID, fmt.Sprintf("Only %d", i), "only@x.com", models.RsvpConfirmed)
		assert.Equal(t, admission.AlreadyRegistered, d)
		assert.Equal(t, 1, confirmedFor(t, repo, event.ID))
	}
}

func TestSQLRepo_ConcurrentUpsertsNeverOverbook(t *testing.T) {
	repo := newTestStore(t)
	event := createEvent(t, repo, uuid.New(), "Popular", intPtr(3))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := models.RsvpInput{EventID: event.ID, Name: "Guest", Email: fmt.Sprintf("guest%d@x.com", i)}
			in.Normalize()
			_, d, err := repo.UpsertRsvp(context.Background(), in, time.Now(), decideFor(in.Status))
			if err != nil {
				t.Errorf("upsert %d: %v", i, err)
				return
			}
			if d == admission.Admit {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, admitted)
	assert.Equal(t, 3, confirmedFor(t, repo, event.ID))
}

func TestSQLRepo_UpsertUnknownEvent(t *testing.T) {
	repo := newTestStore(t)
	in := models.RsvpInput{EventID: uuid.New(), Name: "Ghost", Email: "ghost@x.com", Status: models.RsvpConfirmed}

	_, _, err := repo.UpsertRsvp(context.Background(), in, time.Now(), decideFor(in.Status))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLRepo_OwnerScoping(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	aliceEvent := createEvent(t, repo, alice, "Alice's", nil)
	bobEvent := createEvent(t, repo, bob, "Bob's", nil)
	upsert(t, repo, aliceEvent.ID, "One", "one@x.com", models.RsvpConfirmed)
	upsert(t, repo, bobEvent.ID, "Two", "two@x.com", models.RsvpConfirmed)
	upsert(t, repo, bobEvent.ID, "Three", "three@x.com", models.RsvpConfirmed)

	events, total, err := repo.ListEvents(ctx, access.OwnedBy{ActorID: alice}, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, aliceEvent.ID, events[0].ID)

	events, total, err = repo.ListEvents(ctx, access.Unrestricted{}, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, events, 2)

	rsvps, err := repo.ListRsvps(ctx, access.OwnedBy{ActorID: alice}, models.RsvpFilter{})
	require.NoError(t, err)
	require.Len(t, rsvps, 1)
	assert.Equal(t, "one@x.com", rsvps[0].Email)
	require.NotNil(t, rsvps[0].Event)
	assert.Equal(t, alice, rsvps[0].Event.CreatedBy)

	// filtering by a foreign event id still yields nothing
	rsvps, err = repo.ListRsvps(ctx, access.OwnedBy{ActorID: alice}, models.RsvpFilter{EventID: bobEvent.ID})
	require.NoError(t, err)
	assert.Empty(t, rsvps)

	rsvps, err = repo.ListRsvps(ctx, access.Unrestricted{}, models.RsvpFilter{})
	require.NoError(t, err)
	assert.Len(t, rsvps, 3)

	n, err := repo.CountConfirmed(ctx, access.OwnedBy{ActorID: bob}, models.RsvpCountFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CountEvents(ctx, access.OwnedBy{ActorID: bob}, models.EventCountFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLRepo_RejectsInvalidScope(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, _, err := repo.ListEvents(ctx, nil, 0, 10)
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = repo.ListRsvps(ctx, access.OwnedBy{}, models.RsvpFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)

	_, err = repo.CountConfirmed(ctx, nil, models.RsvpCountFilter{})
	assert.ErrorIs(t, err, access.ErrForbidden)
}

func TestSQLRepo_ListRsvpsFilters(t *testing.T) {
	repo := newTestStore(t)
	event := createEvent(t, repo, uuid.New(), "Filters", nil)
	upsert(t, repo, event.ID, "Ama Mensah", "ama@x.com", models.RsvpConfirmed)
	upsert(t, repo, event.ID, "Kofi Boateng", "kofi@y.com", models.RsvpCancelled)

	rows, err := repo.ListRsvps(context.Background(), access.Unrestricted{}, models.RsvpFilter{Status: models.RsvpCancelled})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kofi@y.com", rows[0].Email)

	rows, err = repo.ListRsvps(context.Background(), access.Unrestricted{}, models.RsvpFilter{Query: "MENSAH"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ama@x.com", rows[0].Email)

	rows, err = repo.ListRsvps(context.Background(), access.Unrestricted{}, models.RsvpFilter{Query: "y.com"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kofi Boateng", rows[0].Name)
}

func TestSQLRepo_DeleteEventCascades(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	event := createEvent(t, repo, uuid.New(), "Doomed", nil)
	upsert(t, repo, event.ID, "A", "a@x.com", models.RsvpConfirmed)
	upsert(t, repo, event.ID, "B", "b@x.com", models.RsvpCancelled)

	require.NoError(t, repo.DeleteEvent(ctx, event.ID))

	_, err := repo.GetEventByID(ctx, event.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	rows, err := repo.ListRsvps(ctx, access.Unrestricted{}, models.RsvpFilter{EventID: event.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.ErrorIs(t, repo.DeleteEvent(ctx, event.ID), models.ErrNotFound)
}

func TestSQLRepo_UpdateEventCapacity(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	event := createEvent(t, repo, uuid.New(), "Resize", intPtr(5))
	upsert(t, repo, event.ID, "A", "a@x.com", models.RsvpConfirmed)
	upsert(t, repo, event.ID, "B", "b@x.com", models.RsvpConfirmed)

	_, err := repo.UpdateEvent(ctx, event.ID, models.EventPatch{MaxAttendeeCount: intPtr(1)}, time.Now())
	assert.True(t, errors.Is(err, models.ErrCapacityBelowAttendance))

	title := "Resized"
	updated, err := repo.UpdateEvent(ctx, event.ID, models.EventPatch{Title: &title, MaxAttendeeCount: intPtr(2)}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Resized", updated.Title)
	require.NotNil(t, updated.MaxAttendeeCount)
	assert.Equal(t, 2, *updated.MaxAttendeeCount)

	updated, err = repo.UpdateEvent(ctx, event.ID, models.EventPatch{ClearMaxAttendeeCount: true}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, updated.MaxAttendeeCount)

	stored, err := repo.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.MaxAttendeeCount)
	assert.Equal(t, "Resized", stored.Title)

	_, err = repo.UpdateEvent(ctx, uuid.New(), models.EventPatch{Title: &title}, time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSQLRepo_DeleteRsvpReleasesSeat(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	event := createEvent(t, repo, uuid.New(), "Seats", intPtr(1))
	other := createEvent(t, repo, uuid.New(), "Other", nil)

	rsvp, _ := upsert(t, repo, event.ID, "A", "a@x.com", models.RsvpConfirmed)
	_, d := upsert(t, repo, event.ID, "B", "b@x.com", models.RsvpConfirmed)
	require.Equal(t, admission.Full, d)

	assert.ErrorIs(t, repo.DeleteRsvp(ctx, other.ID, rsvp.ID), models.ErrNotFound)
	require.NoError(t, repo.DeleteRsvp(ctx, event.ID, rsvp.ID))

	_, d = upsert(t, repo, event.ID, "B", "b@x.com", models.RsvpConfirmed)
	assert.Equal(t, admission.Admit, d)
}

func TestSQLRepo_ConfirmedCountsAndWindows(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	first := createEvent(t, repo, uuid.New(), "First", nil)
	second := createEvent(t, repo, uuid.New(), "Second", nil)
	empty := createEvent(t, repo, uuid.New(), "Empty", nil)

	upsert(t, repo, first.ID, "A", "a@x.com", models.RsvpConfirmed)
	upsert(t, repo, first.ID, "B", "b@x.com", models.RsvpConfirmed)
	upsert(t, repo, first.ID, "C", "c@x.com", models.RsvpCancelled)
	upsert(t, repo, second.ID, "D", "d@x.com", models.RsvpConfirmed)

	counts, err := repo.ConfirmedCounts(ctx, []uuid.UUID{first.ID, second.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[first.ID])
	assert.Equal(t, 1, counts[second.ID])
	assert.Equal(t, 0, counts[empty.ID])

	now := time.Now()
	n, err := repo.CountConfirmed(ctx, access.Unrestricted{}, models.RsvpCountFilter{
		CreatedFrom: now.Add(-time.Hour),
		CreatedTo:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.CountConfirmed(ctx, access.Unrestricted{}, models.RsvpCountFilter{
		CreatedFrom: now.Add(-48 * time.Hour),
		CreatedTo:   now.Add(-24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Zero(t, n)

	upcoming, err := repo.CountEvents(ctx, access.Unrestricted{}, models.EventCountFilter{StartsAfter: now})
	require.NoError(t, err)
	assert.Equal(t, 3, upcoming)
	upcoming, err = repo.CountEvents(ctx, access.Unrestricted{}, models.EventCountFilter{StartsAfter: now.Add(96 * time.Hour)})
	require.NoError(t, err)
	assert.Zero(t, upcoming)
}
