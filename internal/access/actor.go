package access

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated identity of a request. It is built once per
// request by the auth middleware and carried through the request context.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

func (a *Actor) Owns(ownerID uuid.UUID) bool {
	return a != nil && a.ID != uuid.Nil && a.ID == ownerID
}

func (a *Actor) Can(action Action) bool {
	return a != nil && Authorize(a.Role, action)
}

type actorKey struct{}

// WithActor returns a derived context carrying actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom extracts the actor stored by WithActor. It returns
// ErrUnauthenticated when the context carries none.
func ActorFrom(ctx context.Context) (*Actor, error) {
	if ctx == nil {
		return nil, ErrUnauthenticated
	}
	actor, _ := ctx.Value(actorKey{}).(*Actor)
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return actor, nil
}
