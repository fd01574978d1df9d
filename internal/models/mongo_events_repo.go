package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	events, _, err := mdb.collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	doc := newEventDocument(event, 0)
	if _, err := events.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("error inserting event: %w", err)
	}
	return doc.toModel()
}

func (mdb *MongodbRepo) GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	events, _, err := mdb.collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	doc, err := findEventDocument(ctx, events, id)
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

func findEventDocument(ctx context.Context, events *mongo.Collection, id uuid.UUID) (*eventDocument, error) {
	var doc eventDocument
	if err := events.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error finding event: %w", err)
	}
	return &doc, nil
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, scope access.Scope, offset, limit int) ([]*Event, int, error) {
	filter, err := eventScopeFilter(scope)
	if err != nil {
		return nil, 0, err
	}
	events, _, err := mdb.collections(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	total, err := events.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting events: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := events.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding events: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*Event, 0)
	for cursor.Next(ctx) {
		var doc eventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("error decoding event: %w", err)
		}
		event, err := doc.toModel()
		if err != nil {
			return nil, 0, err
		}
		result = append(result, event)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %w", err)
	}
	return result, int(total), nil
}

func (mdb *MongodbRepo) UpdateEvent(ctx context.Context, id uuid.UUID, patch EventPatch, now time.Time) (*Event, error) {
	events, _, err := mdb.collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	res, err := mdb.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		doc, err := findEventDocument(sc, events, id)
		if err != nil {
			return nil, err
		}
		event, err := doc.toModel()
		if err != nil {
			return nil, err
		}

		patch.Apply(event)
		if patch.TouchesCapacity() && event.MaxAttendeeCount != nil && doc.ConfirmedCount > *event.MaxAttendeeCount {
			return nil, fmt.Errorf("%d confirmed, capacity %d: %w", doc.ConfirmedCount, *event.MaxAttendeeCount, ErrCapacityBelowAttendance)
		}
		event.UpdatedAt = now.UTC()

		// replacing keeps confirmed_count from the snapshot; a concurrent
		// $inc on the same document aborts this transaction instead
		if _, err := events.ReplaceOne(sc, bson.M{"_id": doc.ID}, newEventDocument(event, doc.ConfirmedCount)); err != nil {
			return nil, fmt.Errorf("error updating event: %w", err)
		}
		return event, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Event), nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	events, rsvps, err := mdb.collections(ctx)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	_, err = mdb.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := rsvps.DeleteMany(sc, bson.M{"event_id": id.String()}); err != nil {
			return nil, fmt.Errorf("error deleting rsvps: %w", err)
		}
		res, err := events.DeleteOne(sc, bson.M{"_id": id.String()})
		if err != nil {
			return nil, fmt.Errorf("error deleting event: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, nil
	})
	return err
}

func (mdb *MongodbRepo) CountEvents(ctx context.Context, scope access.Scope, filter EventCountFilter) (int, error) {
	query, err := eventScopeFilter(scope)
	if err != nil {
		return 0, err
	}
	events, _, err := mdb.collections(ctx)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}
	if !filter.StartsAfter.IsZero() {
		query["date"] = bson.M{"$gt": filter.StartsAfter.UTC()}
	}

	n, err := events.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return int(n), nil
}

// ConfirmedCounts reads the confirmed_count maintained on each event document.
func (mdb *MongodbRepo) ConfirmedCounts(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	events, _, err := mdb.collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	ids := make(bson.A, 0, len(eventIDs))
	for _, id := range eventIDs {
		ids = append(ids, id.String())
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "confirmed_count": 1})
	cursor, err := events.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding events: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID             string `bson:"_id"`
			ConfirmedCount int    `bson:"confirmed_count"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding event: %w", err)
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("event id %q: %w", doc.ID, err)
		}
		counts[id] = doc.ConfirmedCount
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return counts, nil
}
