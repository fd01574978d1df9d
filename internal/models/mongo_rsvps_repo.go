package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/admission"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type upsertOutcome struct {
	rsvp     *Rsvp
	decision admission.Decision
}

// UpsertRsvp runs the decision and the write in one transaction. Every write
// that changes the confirmed count also bumps confirmed_count on the event, so
// two transactions admitting into the same event conflict and one is retried
// against the new count.
func (mdb *MongodbRepo) UpsertRsvp(ctx context.Context, in RsvpInput, now time.Time, decide DecideFunc) (*Rsvp, admission.Decision, error) {
	events, rsvps, err := mdb.collections(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}
	now = now.UTC()

	res, err := mdb.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		eventDoc, err := findEventDocument(sc, events, in.EventID)
		if err != nil {
			return nil, err
		}
		event, err := eventDoc.toModel()
		if err != nil {
			return nil, err
		}

		filter := bson.M{"event_id": in.EventID.String(), "email": in.Email}
		prior, err := findRsvpDocument(sc, rsvps, filter)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		decision := decide(event, eventDoc.ConfirmedCount, prior)
		if !decision.Allowed() {
			return upsertOutcome{decision: decision}, nil
		}

		update := bson.M{
			"$set": bson.M{
				"name":       in.Name,
				"status":     in.Status,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"_id":        uuid.NewString(),
				"event_id":   in.EventID.String(),
				"email":      in.Email,
				"created_at": now,
			},
		}
		opts := options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After)

		var saved rsvpDocument
		if err := rsvps.FindOneAndUpdate(sc, filter, update, opts).Decode(&saved); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("rsvp for %s: %w", in.Email, ErrConflict)
			}
			return nil, fmt.Errorf("error upserting rsvp: %w", err)
		}

		if delta := admission.Delta(prior.Registration(), in.Status == RsvpConfirmed); delta != 0 {
			if _, err := events.UpdateOne(sc,
				bson.M{"_id": eventDoc.ID},
				bson.M{"$inc": bson.M{"confirmed_count": delta}},
			); err != nil {
				return nil, fmt.Errorf("error updating attendee count: %w", err)
			}
		}

		stored, err := saved.toModel()
		if err != nil {
			return nil, err
		}
		return upsertOutcome{rsvp: stored, decision: decision}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	outcome := res.(upsertOutcome)
	return outcome.rsvp, outcome.decision, nil
}

func findRsvpDocument(ctx context.Context, rsvps *mongo.Collection, filter bson.M) (*Rsvp, error) {
	var doc rsvpDocument
	if err := rsvps.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("rsvp: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("error finding rsvp: %w", err)
	}
	return doc.toModel()
}

func (mdb *MongodbRepo) GetRsvp(ctx context.Context, eventID uuid.UUID, email string) (*Rsvp, error) {
	_, rsvps, err := mdb.collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	return findRsvpDocument(ctx, rsvps, bson.M{
		"event_id": eventID.String(),
		"email":    NormalizeEmail(email),
	})
}

func (mdb *MongodbRepo) ListRsvps(ctx context.Context, scope access.Scope, filter RsvpFilter) ([]*Rsvp, error) {
	events, rsvps, err := mdb.collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	scopeClause, err := mdb.rsvpScopeFilter(ctx, events, scope)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := rsvps.Find(ctx, rsvpListFilter(scopeClause, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error finding rsvps: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*Rsvp, 0)
	eventIDs := bson.A{}
	seen := map[uuid.UUID]bool{}
	for cursor.Next(ctx) {
		var doc rsvpDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding rsvp: %w", err)
		}
		rsvp, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		if !seen[rsvp.EventID] {
			seen[rsvp.EventID] = true
			eventIDs = append(eventIDs, doc.EventID)
		}
		result = append(result, rsvp)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	parents, err := mdb.eventsByID(ctx, events, eventIDs)
	if err != nil {
		return nil, err
	}
	for _, rsvp := range result {
		rsvp.Event = parents[rsvp.EventID]
	}
	return result, nil
}

func (mdb *MongodbRepo) eventsByID(ctx context.Context, events *mongo.Collection, ids bson.A) (map[uuid.UUID]*Event, error) {
	cursor, err := events.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("error finding events: %w", err)
	}
	defer cursor.Close(ctx)

	byID := make(map[uuid.UUID]*Event, len(ids))
	for cursor.Next(ctx) {
		var doc eventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding event: %w", err)
		}
		event, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		byID[event.ID] = event
	}
	return byID, cursor.Err()
}

// DeleteRsvp removes the row and, when it was confirmed, releases its seat.
func (mdb *MongodbRepo) DeleteRsvp(ctx context.Context, eventID, rsvpID uuid.UUID) error {
	events, rsvps, err := mdb.collections(ctx)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	_, err = mdb.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var doc rsvpDocument
		err := rsvps.FindOneAndDelete(sc, bson.M{
			"_id":      rsvpID.String(),
			"event_id": eventID.String(),
		}).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, fmt.Errorf("rsvp %s: %w", rsvpID, ErrNotFound)
			}
			return nil, fmt.Errorf("error deleting rsvp: %w", err)
		}

		if doc.Status == RsvpConfirmed {
			if _, err := events.UpdateOne(sc,
				bson.M{"_id": eventID.String()},
				bson.M{"$inc": bson.M{"confirmed_count": -1}},
			); err != nil {
				return nil, fmt.Errorf("error updating attendee count: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

func (mdb *MongodbRepo) CountConfirmed(ctx context.Context, scope access.Scope, filter RsvpCountFilter) (int, error) {
	events, rsvps, err := mdb.collections(ctx)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}
	scopeClause, err := mdb.rsvpScopeFilter(ctx, events, scope)
	if err != nil {
		return 0, err
	}

	n, err := rsvps.CountDocuments(ctx, rsvpCountFilter(scopeClause, filter))
	if err != nil {
		return 0, fmt.Errorf("error counting rsvps: %w", err)
	}
	return int(n), nil
}
