package models

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	DefaultMongoDBName = "eventease"
	EventsColName      = "events"
	RsvpsColName       = "rsvps"
)

type eventDocument struct {
	ID               string    `bson:"_id"`
	Title            string    `bson:"title"`
	Description      string    `bson:"description"`
	Location         string    `bson:"location"`
	Date             time.Time `bson:"date"`
	MaxAttendeeCount *int      `bson:"max_attendee_count,omitempty"`
	CreatedBy        string    `bson:"created_by"`
	ConfirmedCount   int       `bson:"confirmed_count"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func newEventDocument(e *Event, confirmed int) eventDocument {
	return eventDocument{
		ID:               e.ID.String(),
		Title:            e.Title,
		Description:      e.Description,
		Location:         e.Location,
		Date:             e.Date.UTC(),
		MaxAttendeeCount: e.MaxAttendeeCount,
		CreatedBy:        e.CreatedBy.String(),
		ConfirmedCount:   confirmed,
		CreatedAt:        e.CreatedAt.UTC(),
		UpdatedAt:        e.UpdatedAt.UTC(),
	}
}

func (d eventDocument) toModel() (*Event, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("event id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("event owner %q: %w", d.CreatedBy, err)
	}
	return &Event{
		ID:               id,
		Title:            d.Title,
		Description:      d.Description,
		Location:         d.Location,
		Date:             d.Date.UTC(),
		MaxAttendeeCount: d.MaxAttendeeCount,
		CreatedBy:        owner,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}, nil
}

type rsvpDocument struct {
	ID        string     `bson:"_id"`
	EventID   string     `bson:"event_id"`
	Name      string     `bson:"name"`
	Email     string     `bson:"email"`
	Status    RsvpStatus `bson:"status"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

func (d rsvpDocument) toModel() (*Rsvp, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("rsvp id %q: %w", d.ID, err)
	}
	eventID, err := uuid.Parse(d.EventID)
	if err != nil {
		return nil, fmt.Errorf("rsvp event id %q: %w", d.EventID, err)
	}
	return &Rsvp{
		ID:        id,
		EventID:   eventID,
		Name:      d.Name,
		Email:     d.Email,
		Status:    d.Status,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, dbName, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(dbName).Collection(colName), nil
}

func (mdb *MongodbRepo) collections(ctx context.Context) (events, rsvps *mongo.Collection, err error) {
	if events, err = mdb.GetCollection(ctx, mdb.dbName, EventsColName); err != nil {
		return nil, nil, err
	}
	if rsvps, err = mdb.GetCollection(ctx, mdb.dbName, RsvpsColName); err != nil {
		return nil, nil, err
	}
	return events, rsvps, nil
}

// EnsureIndexes creates both collections' indexes, including the unique
// (event_id, email) index that backs RSVP upserts.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	events, rsvps, err := mdb.collections(ctx)
	if err != nil {
		return err
	}

	if _, err := rsvps.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("rsvps_event_email"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("rsvps_event_status"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("rsvps_created_at"),
		},
	}); err != nil {
		return fmt.Errorf("error creating rsvp indexes: %w", err)
	}

	if _, err := events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: options.Index().SetName("events_created_by"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetName("events_date"),
		},
	}); err != nil {
		return fmt.Errorf("error creating event indexes: %w", err)
	}
	return nil
}

// withTransaction runs fn in a snapshot transaction. The driver retries fn on
// transient write conflicts, so fn must be safe to run more than once.
func (mdb *MongodbRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	session, err := mdb.mongodbClient.StartSession()
	if err != nil {
		return nil, fmt.Errorf("error starting session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	return session.WithTransaction(ctx, fn, txnOpts)
}

// eventScopeFilter translates scope into an events filter.
func eventScopeFilter(scope access.Scope) (bson.M, error) {
	if err := access.CheckScope(scope); err != nil {
		return nil, err
	}
	if owned, ok := scope.(access.OwnedBy); ok {
		return bson.M{"created_by": owned.ActorID.String()}, nil
	}
	return bson.M{}, nil
}

// rsvpScopeFilter translates scope into an rsvps filter. Owned scopes resolve
// to the $in list of the owner's event ids.
func (mdb *MongodbRepo) rsvpScopeFilter(ctx context.Context, events *mongo.Collection, scope access.Scope) (bson.M, error) {
	filter, err := eventScopeFilter(scope)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return filter, nil
	}

	ids, err := events.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, fmt.Errorf("error resolving owned events: %w", err)
	}
	if ids == nil {
		ids = []interface{}{}
	}
	return bson.M{"event_id": bson.M{"$in": ids}}, nil
}

func rsvpListFilter(scopeClause bson.M, filter RsvpFilter) bson.M {
	clauses := []bson.M{}
	if len(scopeClause) > 0 {
		clauses = append(clauses, scopeClause)
	}
	if filter.EventID != uuid.Nil {
		clauses = append(clauses, bson.M{"event_id": filter.EventID.String()})
	}
	if filter.Status != "" {
		clauses = append(clauses, bson.M{"status": filter.Status})
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		}})
	}
	return andFilter(clauses)
}

func rsvpCountFilter(scopeClause bson.M, filter RsvpCountFilter) bson.M {
	clauses := []bson.M{{"status": RsvpConfirmed}}
	if len(scopeClause) > 0 {
		clauses = append(clauses, scopeClause)
	}
	if filter.EventID != uuid.Nil {
		clauses = append(clauses, bson.M{"event_id": filter.EventID.String()})
	}
	created := bson.M{}
	if !filter.CreatedFrom.IsZero() {
		created["$gte"] = filter.CreatedFrom.UTC()
	}
	if !filter.CreatedTo.IsZero() {
		created["$lt"] = filter.CreatedTo.UTC()
	}
	if len(created) > 0 {
		clauses = append(clauses, bson.M{"created_at": created})
	}
	return andFilter(clauses)
}

func andFilter(clauses []bson.M) bson.M {
	switch len(clauses) {
	case 0:
		return bson.M{}
	case 1:
		return clauses[0]
	}
	all := make(bson.A, 0, len(clauses))
	for _, c := range clauses {
		all = append(all, c)
	}
	return bson.M{"$and": all}
}
