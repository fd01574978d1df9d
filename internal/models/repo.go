package models

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/supabase-community/supabase-go"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names so clients can map errors back to their payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// EventRepo persists events. Every list or count takes an access.Scope and
// rejects a nil one.
type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, scope access.Scope, offset, limit int) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, patch EventPatch, now time.Time) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	CountEvents(ctx context.Context, scope access.Scope, filter EventCountFilter) (int, error)
	ConfirmedCounts(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// RsvpRepo persists RSVPs. UpsertRsvp runs decide and the write in one atomic
// unit so neither the (event, email) uniqueness nor the capacity can race.
type RsvpRepo interface {
	UpsertRsvp(ctx context.Context, in RsvpInput, now time.Time, decide DecideFunc) (*Rsvp, admission.Decision, error)
	GetRsvp(ctx context.Context, eventID uuid.UUID, email string) (*Rsvp, error)
	ListRsvps(ctx context.Context, scope access.Scope, filter RsvpFilter) ([]*Rsvp, error)
	DeleteRsvp(ctx context.Context, eventID, rsvpID uuid.UUID) error
	CountConfirmed(ctx context.Context, scope access.Scope, filter RsvpCountFilter) (int, error)
}

// Store is the event and RSVP persistence backend.
type Store interface {
	EventRepo
	RsvpRepo
}

type SupabaseRepo struct {
	supabaseClient *supabase.Client
	url            string
	key            string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, url, key string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		url:            url,
		key:            key,
	}
}

// GetAuthenticatedClient returns a Supabase client that acts with the caller's
// access token so row level security applies.
func (su *SupabaseRepo) GetAuthenticatedClient(accessToken string) (*supabase.Client, error) {
	if su.url == "" || su.key == "" {
		return su.supabaseClient, nil
	}

	options := &supabase.ClientOptions{
		Headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
		},
	}

	return supabase.NewClient(su.url, su.key, options)
}

func (su *SupabaseRepo) clientFor(accessToken string) (*supabase.Client, error) {
	if accessToken == "" {
		return su.supabaseClient, nil
	}
	return su.GetAuthenticatedClient(accessToken)
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultMongoDBName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

type SQLRepo struct {
	db *bun.DB
}

func SQLNewRepo(db *bun.DB) *SQLRepo {
	return &SQLRepo{db: db}
}

var (
	_ Store    = (*SQLRepo)(nil)
	_ Store    = (*MongodbRepo)(nil)
	_ UserRepo = (*SupabaseRepo)(nil)
)
